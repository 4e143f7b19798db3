package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Writer persists one JSON artifact per run into the output directory. The
// artifact is the run's full job set plus per-stream counts, written for
// humans and for downstream scripting.
type Writer struct {
	outputDir string
	now       func() time.Time
	logger    *slog.Logger
}

// NewWriter returns a report writer targeting outputDir. The directory is
// created on first write.
func NewWriter(outputDir string, logger *slog.Logger) *Writer {
	return &Writer{outputDir: outputDir, now: time.Now, logger: logger}
}

type reportFile struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Status      string         `json:"status"`
	TotalJobs   int            `json:"total_jobs"`
	NewJobs     int            `json:"new_jobs"`
	Streams     []streamReport `json:"streams"`
	Jobs        []jobReport    `json:"jobs"`
}

type streamReport struct {
	Label         string `json:"label"`
	JobCount      int    `json:"job_count"`
	ReportedTotal int    `json:"reported_total"`
	Status        string `json:"status"`
}

type jobReport struct {
	ID             string     `json:"unique_job_number"`
	Title          string     `json:"title"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	PostalCode     string     `json:"postal_code,omitempty"`
	Country        string     `json:"country"`
	Remote         bool       `json:"remote"`
	PostedAt       *time.Time `json:"date_posted,omitempty"`
	DetailURL      string     `json:"job_detail_url"`
	EmploymentType string     `json:"emptype,omitempty"`
	PayMin         *float64   `json:"payrate_min,omitempty"`
	PayMax         *float64   `json:"payrate_max,omitempty"`
	PayPeriod      string     `json:"payrate_period,omitempty"`
	Streams        []string   `json:"streams"`
	New            bool       `json:"new"`
}

// Write serializes the run to a timestamped file and returns its path. The
// file lands atomically: a temp file in the same directory is renamed into
// place, so readers never observe a half-written report.
func (w *Writer) Write(result *model.AggregateResult, newJobs []model.Job) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	newIDs := make(map[string]bool, len(newJobs))
	for _, j := range newJobs {
		newIDs[j.ID] = true
	}

	out := reportFile{
		GeneratedAt: result.Timestamp,
		Status:      result.Status.String(),
		TotalJobs:   len(result.Jobs),
		NewJobs:     len(newJobs),
	}
	for _, s := range result.Streams {
		out.Streams = append(out.Streams, streamReport{
			Label:         s.Label,
			JobCount:      s.JobCount,
			ReportedTotal: s.ReportedTotal,
			Status:        s.Status.String(),
		})
	}
	for _, j := range result.Jobs {
		jr := jobReport{
			ID:             j.ID,
			Title:          j.Title,
			City:           j.City,
			State:          j.State,
			PostalCode:     j.PostalCode,
			Country:        j.Country,
			Remote:         j.Remote,
			DetailURL:      j.DetailURL,
			EmploymentType: j.EmploymentType,
			Streams:        j.Streams,
			New:            newIDs[j.ID],
		}
		if !j.PostedAt.IsZero() {
			t := j.PostedAt
			jr.PostedAt = &t
		}
		if j.Pay != nil {
			min, max := j.Pay.Min, j.Pay.Max
			jr.PayMin = &min
			jr.PayMax = &max
			jr.PayPeriod = j.Pay.Period
		}
		out.Jobs = append(out.Jobs, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	name := fmt.Sprintf("jobs_%s.json", w.now().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, name)

	tmp, err := os.CreateTemp(w.outputDir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("creating temp report: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("renaming report into place: %w", err)
	}

	w.logger.Info("report written", "path", path, "jobs", len(result.Jobs), "new", len(newJobs))
	return path, nil
}
