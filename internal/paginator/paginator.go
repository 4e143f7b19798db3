package paginator

import (
	"context"
	"log/slog"

	"github.com/JosephStocks/roberthalf-scraper/internal/filter"
	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Outcome is the result of paginating one stream, possibly partially.
type Outcome struct {
	Jobs          []model.Job
	ReportedTotal int
	Status        model.StreamStatus
	// AuthInvalid set means the stream stopped because the upstream
	// rejected the session. Jobs holds everything captured so far and
	// NextPage is the page to resume from once a new session exists.
	AuthInvalid bool
	NextPage    int
	Err         error // cause for partial/failed outcomes
}

// Paginator drives a fetcher across all pages of a single query stream until
// exhaustion. It owns only the paging loop; retry, throttling, and session
// recovery live elsewhere.
type Paginator struct {
	fetcher model.PageFetcher
	filter  model.JobFilter
	logger  *slog.Logger
}

// NewPaginator creates a paginator over the given fetch chain. jobFilter
// narrows jobs per page as they stream in; nil keeps everything.
func NewPaginator(fetcher model.PageFetcher, jobFilter model.JobFilter, logger *slog.Logger) *Paginator {
	if jobFilter == nil {
		jobFilter = filter.PassAll{}
	}
	return &Paginator{fetcher: fetcher, filter: jobFilter, logger: logger}
}

// Paginate fetches pages of stream starting at startPage until the stream is
// exhausted or fails. Two independent conditions end a healthy stream: a page
// shorter than the page size, and the page count reaching the server-reported
// total. Checking both guards against an off-by-one on the final page and
// against a stalled or wrong total.
func (p *Paginator) Paginate(ctx context.Context, stream model.QueryStream, sess *model.Session, startPage int) Outcome {
	out := Outcome{NextPage: startPage}

	page := startPage
	for {
		res := p.fetcher.FetchPage(ctx, stream, page, sess)

		switch res.Status {
		case model.StatusOK:
			// fall through to accumulation below

		case model.StatusAuthInvalid:
			p.logger.Warn("session rejected mid-stream",
				"stream", stream.Label, "page", page, "captured", len(out.Jobs))
			out.AuthInvalid = true
			out.NextPage = page
			out.Status = model.StreamPartial
			out.Err = res.Err
			return out

		case model.StatusTransient:
			// Retries are already exhausted by the time this surfaces.
			p.logger.Error("stream stopped after exhausting retries",
				"stream", stream.Label, "page", page, "error", res.Err)
			out.Status = model.StreamPartial
			out.NextPage = page
			out.Err = res.Err
			return out

		default: // StatusFatal
			p.logger.Error("stream stopped on fatal response",
				"stream", stream.Label, "page", page, "error", res.Err)
			out.Status = model.StreamPartial
			out.NextPage = page
			out.Err = res.Err
			return out
		}

		out.ReportedTotal = res.Total

		kept := 0
		for _, job := range res.Jobs {
			if p.filter.Match(job) {
				out.Jobs = append(out.Jobs, job)
				kept++
			}
		}

		p.logger.Info("processed page",
			"stream", stream.Label,
			"page", page,
			"received", len(res.Jobs),
			"kept", kept,
			"reported_total", res.Total,
		)

		if len(res.Jobs) == 0 {
			break
		}
		if len(res.Jobs) < stream.PageSize {
			// Short page: the server has no more results.
			break
		}
		if page*stream.PageSize >= res.Total {
			break
		}

		page++
		out.NextPage = page
	}

	out.Status = model.StreamCompleted
	out.NextPage = page + 1
	return out
}
