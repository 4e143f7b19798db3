package aggregate

import (
	"context"
	"log/slog"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
	"github.com/JosephStocks/roberthalf-scraper/internal/paginator"
)

// SessionProvider is the slice of the session manager the aggregator needs:
// hand out a usable session, and discard one the upstream rejected.
type SessionProvider interface {
	Get(ctx context.Context) (*model.Session, error)
	Invalidate()
}

// Aggregator runs every configured query stream against one session, recovers
// from mid-run session rejection within a bounded re-auth budget, and merges
// the streams into a single deduplicated result.
type Aggregator struct {
	sessions   SessionProvider
	paginator  *paginator.Paginator
	streams    []model.QueryStream
	maxReauths int
	now        func() time.Time
	logger     *slog.Logger
}

// NewAggregator builds the run orchestrator. maxReauths bounds full re-logins
// per run across all streams, not per stream.
func NewAggregator(sessions SessionProvider, p *paginator.Paginator, streams []model.QueryStream, maxReauths int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sessions:   sessions,
		paginator:  p,
		streams:    streams,
		maxReauths: maxReauths,
		now:        time.Now,
		logger:     logger,
	}
}

// Run executes one full aggregation pass. A failed stream never sinks the
// others: the result carries whatever was captured, and only a run that could
// not obtain an initial session returns an error.
func (a *Aggregator) Run(ctx context.Context) (*model.AggregateResult, error) {
	result := &model.AggregateResult{Timestamp: a.now()}

	sess, err := a.sessions.Get(ctx)
	if err != nil {
		result.Status = model.RunFailed
		for _, stream := range a.streams {
			result.Streams = append(result.Streams, model.StreamStats{
				Label: stream.Label, Status: model.StreamFailed,
			})
		}
		return result, err
	}

	reauthsLeft := a.maxReauths
	byID := make(map[string]*model.Job)
	order := make([]string, 0, 64)

	for i, stream := range a.streams {
		if sess == nil {
			// A re-auth already failed; nothing left to fetch with.
			result.Streams = append(result.Streams, model.StreamStats{
				Label: stream.Label, Status: model.StreamFailed,
			})
			continue
		}

		stats := a.runStream(ctx, stream, &sess, &reauthsLeft)
		result.Streams = append(result.Streams, stats.stats)

		for _, job := range stats.jobs {
			merge(byID, &order, job)
		}

		a.logger.Info("stream finished",
			"stream", stream.Label,
			"status", stats.stats.Status.String(),
			"jobs", stats.stats.JobCount,
			"reported_total", stats.stats.ReportedTotal,
			"remaining_streams", len(a.streams)-i-1,
		)
	}

	for _, id := range order {
		result.Jobs = append(result.Jobs, *byID[id])
	}
	model.SortJobs(result.Jobs)
	result.Status = runStatus(result)

	a.logger.Info("run finished",
		"status", result.Status.String(),
		"unique_jobs", len(result.Jobs),
		"streams", len(result.Streams),
	)
	return result, nil
}

type streamOutcome struct {
	jobs  []model.Job
	stats model.StreamStats
}

// runStream paginates one stream to completion, re-authenticating and resuming
// from the rejected page when the session dies mid-stream. sess is shared
// across streams so a replacement session carries forward; it is set to nil
// when a re-auth fails, which poisons the remaining streams.
func (a *Aggregator) runStream(ctx context.Context, stream model.QueryStream, sess **model.Session, reauthsLeft *int) streamOutcome {
	var jobs []model.Job
	page := 1
	// Carried across resume iterations: a resumed call that dies before its
	// first OK page reports a zero total, which must not clobber the total
	// captured before the re-auth.
	reportedTotal := 0

	for {
		out := a.paginator.Paginate(ctx, stream, *sess, page)
		jobs = append(jobs, out.Jobs...)
		if out.ReportedTotal > 0 {
			reportedTotal = out.ReportedTotal
		}

		if !out.AuthInvalid {
			status := out.Status
			if status != model.StreamCompleted && len(jobs) == 0 {
				status = model.StreamFailed
			}
			return streamOutcome{jobs: jobs, stats: model.StreamStats{
				Label:         stream.Label,
				JobCount:      len(jobs),
				ReportedTotal: reportedTotal,
				Status:        status,
			}}
		}

		if *reauthsLeft <= 0 {
			a.logger.Error("session rejected with re-auth budget exhausted",
				"stream", stream.Label, "page", out.NextPage)
			status := model.StreamPartial
			if len(jobs) == 0 {
				status = model.StreamFailed
			}
			return streamOutcome{jobs: jobs, stats: model.StreamStats{
				Label:         stream.Label,
				JobCount:      len(jobs),
				ReportedTotal: reportedTotal,
				Status:        status,
			}}
		}

		*reauthsLeft--
		a.logger.Warn("re-authenticating mid-run",
			"stream", stream.Label, "resume_page", out.NextPage, "reauths_left", *reauthsLeft)

		a.sessions.Invalidate()
		fresh, err := a.sessions.Get(ctx)
		if err != nil {
			a.logger.Error("re-authentication failed", "error", err)
			*sess = nil
			status := model.StreamPartial
			if len(jobs) == 0 {
				status = model.StreamFailed
			}
			return streamOutcome{jobs: jobs, stats: model.StreamStats{
				Label:         stream.Label,
				JobCount:      len(jobs),
				ReportedTotal: reportedTotal,
				Status:        status,
			}}
		}

		*sess = fresh
		page = out.NextPage
	}
}

// merge folds a job into the dedup map. The first sighting wins structurally;
// later sightings contribute their stream labels and fill in fields the first
// sighting lacked.
func merge(byID map[string]*model.Job, order *[]string, job model.Job) {
	existing, ok := byID[job.ID]
	if !ok {
		j := job
		byID[job.ID] = &j
		*order = append(*order, job.ID)
		return
	}

	for _, label := range job.Streams {
		if !existing.SeenUnder(label) {
			existing.Streams = append(existing.Streams, label)
		}
	}
	if existing.City == "" {
		existing.City = job.City
	}
	if existing.State == "" {
		existing.State = job.State
	}
	if existing.PostalCode == "" {
		existing.PostalCode = job.PostalCode
	}
	if existing.Pay == nil {
		existing.Pay = job.Pay
	}
	if existing.PostedAt.IsZero() {
		existing.PostedAt = job.PostedAt
	}
}

// runStatus derives the run outcome from its streams: completed only when all
// streams completed, failed only when nothing was captured at all.
func runStatus(result *model.AggregateResult) model.RunStatus {
	allCompleted := true
	for _, s := range result.Streams {
		if s.Status != model.StreamCompleted {
			allCompleted = false
			break
		}
	}
	switch {
	case allCompleted:
		return model.RunCompleted
	case len(result.Jobs) > 0:
		return model.RunPartial
	default:
		return model.RunFailed
	}
}
