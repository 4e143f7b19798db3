package paginator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedFetcher serves canned results keyed by page number.
type scriptedFetcher struct {
	pages map[int]model.PageResult
	calls []int
}

func (s *scriptedFetcher) FetchPage(_ context.Context, stream model.QueryStream, page int, _ *model.Session) model.PageResult {
	s.calls = append(s.calls, page)
	res, ok := s.pages[page]
	if !ok {
		return model.PageResult{Stream: stream.Label, Page: page, Status: model.StatusFatal,
			Err: fmt.Errorf("unscripted page %d", page)}
	}
	res.Stream = stream.Label
	res.Page = page
	return res
}

func pageOf(n, total int, page int) model.PageResult {
	jobs := make([]model.Job, n)
	for i := range jobs {
		jobs[i] = model.Job{ID: fmt.Sprintf("JO-%d-%d", page, i), State: "TX", Country: "us"}
	}
	return model.PageResult{Status: model.StatusOK, Jobs: jobs, Total: total}
}

func stream() model.QueryStream {
	return model.QueryStream{Label: "state", PageSize: 25}
}

func TestPaginate_ThreePagesExactStop(t *testing.T) {
	// 25 + 25 + 7 with total 57: exactly 3 fetches, then stop.
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: pageOf(25, 57, 1),
		2: pageOf(25, 57, 2),
		3: pageOf(7, 57, 3),
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v (%v), want completed", out.Status, out.Err)
	}
	if len(f.calls) != 3 {
		t.Fatalf("fetches = %v, want exactly [1 2 3]", f.calls)
	}
	if len(out.Jobs) != 57 {
		t.Errorf("jobs = %d, want 57 (none dropped, none duplicated)", len(out.Jobs))
	}
	if out.ReportedTotal != 57 {
		t.Errorf("ReportedTotal = %d, want 57", out.ReportedTotal)
	}
}

func TestPaginate_TotalBoundStopsFullFinalPage(t *testing.T) {
	// Total 50 with two full pages: the total bound must stop pagination
	// even though the last page is not short.
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: pageOf(25, 50, 1),
		2: pageOf(25, 50, 2),
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v (%v), want completed", out.Status, out.Err)
	}
	if len(f.calls) != 2 {
		t.Fatalf("fetches = %v, want [1 2]", f.calls)
	}
	if len(out.Jobs) != 50 {
		t.Errorf("jobs = %d, want 50", len(out.Jobs))
	}
}

func TestPaginate_EmptyFirstPage(t *testing.T) {
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: pageOf(0, 0, 1),
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v, want completed", out.Status)
	}
	if len(out.Jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(out.Jobs))
	}
}

func TestPaginate_AuthInvalidPreservesCapturedPages(t *testing.T) {
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: pageOf(25, 60, 1),
		2: {Status: model.StatusAuthInvalid, Err: model.ErrSessionInvalid},
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if !out.AuthInvalid {
		t.Fatal("AuthInvalid not set")
	}
	if len(out.Jobs) != 25 {
		t.Errorf("jobs = %d, want 25 (page 1 must not be dropped)", len(out.Jobs))
	}
	if out.NextPage != 2 {
		t.Errorf("NextPage = %d, want 2 (resume from rejected page)", out.NextPage)
	}
}

func TestPaginate_ResumeFromPage(t *testing.T) {
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		2: pageOf(25, 57, 2),
		3: pageOf(7, 57, 3),
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 2)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v (%v), want completed", out.Status, out.Err)
	}
	if len(f.calls) != 2 || f.calls[0] != 2 {
		t.Fatalf("fetches = %v, want [2 3]", f.calls)
	}
	if len(out.Jobs) != 32 {
		t.Errorf("jobs = %d, want 32", len(out.Jobs))
	}
}

func TestPaginate_TransientExhaustionIsPartial(t *testing.T) {
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: pageOf(25, 60, 1),
		2: {Status: model.StatusTransient, Err: errors.New("retries exhausted")},
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamPartial {
		t.Fatalf("status = %v, want partial", out.Status)
	}
	if out.AuthInvalid {
		t.Error("AuthInvalid set for transient failure")
	}
	if len(out.Jobs) != 25 {
		t.Errorf("jobs = %d, want 25 (captured pages survive)", len(out.Jobs))
	}
}

func TestPaginate_FatalIsPartial(t *testing.T) {
	f := &scriptedFetcher{pages: map[int]model.PageResult{
		1: {Status: model.StatusFatal, Err: errors.New("unexpected shape")},
	}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamPartial {
		t.Fatalf("status = %v, want partial", out.Status)
	}
	if len(out.Jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(out.Jobs))
	}
}

func TestPaginate_NilFilterKeepsEverything(t *testing.T) {
	mixed := pageOf(10, 10, 1)
	for i := range mixed.Jobs {
		mixed.Jobs[i].State = "OK"
	}
	f := &scriptedFetcher{pages: map[int]model.PageResult{1: mixed}}
	p := NewPaginator(f, nil, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v, want completed", out.Status)
	}
	if len(out.Jobs) != 10 {
		t.Errorf("jobs = %d, want all 10 with no filter configured", len(out.Jobs))
	}
}

// keepTX drops everything outside TX.
type keepTX struct{}

func (keepTX) Match(j model.Job) bool { return j.State == "TX" }

func TestPaginate_FilterAppliedPerPage(t *testing.T) {
	mixed := pageOf(10, 10, 1)
	for i := range mixed.Jobs {
		if i%2 == 1 {
			mixed.Jobs[i].State = "OK"
		}
	}
	f := &scriptedFetcher{pages: map[int]model.PageResult{1: mixed}}
	p := NewPaginator(f, keepTX{}, discardLogger())

	out := p.Paginate(context.Background(), stream(), nil, 1)
	if out.Status != model.StreamCompleted {
		t.Fatalf("status = %v, want completed", out.Status)
	}
	if len(out.Jobs) != 5 {
		t.Errorf("jobs = %d, want 5 after filtering", len(out.Jobs))
	}
}
