package report

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWrite_ShapeAndNewFlag(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discardLogger())
	w.now = func() time.Time { return time.Date(2026, 8, 27, 14, 30, 5, 0, time.UTC) }

	posted := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	result := &model.AggregateResult{
		Jobs: []model.Job{
			{ID: "JO-1", Title: "Staff Accountant", City: "Dallas", State: "TX",
				Country: "us", PostedAt: posted,
				DetailURL: "https://www.roberthalf.com/us/en/job/JO-1",
				Pay:       &model.PayRange{Min: 40, Max: 55, Period: "hour", Currency: "USD"},
				Streams:   []string{"state"}},
			{ID: "JO-2", Title: "Payroll Clerk", Country: "us", Remote: true,
				DetailURL: "https://www.roberthalf.com/us/en/job/JO-2",
				Streams:   []string{"remote"}},
		},
		Streams: []model.StreamStats{
			{Label: "state", JobCount: 1, ReportedTotal: 1, Status: model.StreamCompleted},
			{Label: "remote", JobCount: 1, ReportedTotal: 1, Status: model.StreamCompleted},
		},
		Timestamp: time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC),
		Status:    model.RunCompleted,
	}

	path, err := w.Write(result, []model.Job{result.Jobs[1]})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "jobs_20260827_143005.json" {
		t.Errorf("file name = %q, want timestamped name", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	var got reportFile
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report not valid JSON: %v", err)
	}

	if got.Status != "completed" || got.TotalJobs != 2 || got.NewJobs != 1 {
		t.Errorf("summary = status %q total %d new %d", got.Status, got.TotalJobs, got.NewJobs)
	}
	if len(got.Streams) != 2 || got.Streams[0].Label != "state" {
		t.Errorf("streams = %+v", got.Streams)
	}
	if len(got.Jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(got.Jobs))
	}
	if got.Jobs[0].New || !got.Jobs[1].New {
		t.Errorf("new flags = [%v %v], want [false true]", got.Jobs[0].New, got.Jobs[1].New)
	}
	if got.Jobs[0].PayMin == nil || *got.Jobs[0].PayMin != 40 {
		t.Errorf("pay not serialized: %+v", got.Jobs[0])
	}
	if got.Jobs[1].PayMin != nil {
		t.Errorf("nil pay serialized as value: %+v", got.Jobs[1])
	}
	if got.Jobs[1].PostedAt != nil {
		t.Errorf("zero posted date serialized: %+v", got.Jobs[1].PostedAt)
	}

	// Wire-format field names survive.
	if !strings.Contains(string(data), `"unique_job_number"`) {
		t.Error("report missing unique_job_number field")
	}
}

func TestWrite_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w := NewWriter(dir, discardLogger())

	result := &model.AggregateResult{Timestamp: time.Now(), Status: model.RunCompleted}
	if _, err := w.Write(result, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("output dir entries = %v, %v", entries, err)
	}
}

func TestWrite_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, discardLogger())

	result := &model.AggregateResult{Timestamp: time.Now(), Status: model.RunCompleted}
	if _, err := w.Write(result, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".report-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
