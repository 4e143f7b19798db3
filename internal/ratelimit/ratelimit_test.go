package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingFetcher struct {
	calls int
}

func (c *countingFetcher) FetchPage(_ context.Context, stream model.QueryStream, page int, _ *model.Session) model.PageResult {
	c.calls++
	return model.PageResult{Stream: stream.Label, Page: page, Status: model.StatusOK}
}

func TestThrottle_NoPauseBeforeFirstFetch(t *testing.T) {
	inner := &countingFetcher{}
	f := NewThrottledFetcher(inner, 100, 1, time.Second, 2*time.Second, discardLogger())

	var slept []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	res := f.FetchPage(context.Background(), model.QueryStream{Label: "state"}, 1, nil)
	if res.Status != model.StatusOK {
		t.Fatalf("status = %v", res.Status)
	}
	if len(slept) != 0 {
		t.Fatalf("slept before first fetch: %v", slept)
	}
}

func TestThrottle_PausesBetweenFetches(t *testing.T) {
	inner := &countingFetcher{}
	f := NewThrottledFetcher(inner, 100, 1, 2*time.Second, 6*time.Second, discardLogger())

	var slept []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	ctx := context.Background()
	stream := model.QueryStream{Label: "state"}
	for page := 1; page <= 4; page++ {
		f.FetchPage(ctx, stream, page, nil)
	}

	if inner.calls != 4 {
		t.Fatalf("inner calls = %d, want 4", inner.calls)
	}
	if len(slept) != 3 {
		t.Fatalf("slept %d times, want 3 (between fetches only)", len(slept))
	}
	for _, d := range slept {
		if d < 2*time.Second || d > 6*time.Second {
			t.Errorf("delay %v outside [2s, 6s] window", d)
		}
	}
}

func TestThrottle_DegenerateWindow(t *testing.T) {
	inner := &countingFetcher{}
	f := NewThrottledFetcher(inner, 100, 1, 3*time.Second, 3*time.Second, discardLogger())

	var slept []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	f.FetchPage(context.Background(), model.QueryStream{Label: "state"}, 1, nil)
	f.FetchPage(context.Background(), model.QueryStream{Label: "state"}, 2, nil)

	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Fatalf("slept = %v, want [3s]", slept)
	}
}

func TestThrottle_CancelledDuringPause(t *testing.T) {
	inner := &countingFetcher{}
	f := NewThrottledFetcher(inner, 100, 1, time.Hour, 2*time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	f.FetchPage(ctx, model.QueryStream{Label: "state"}, 1, nil)
	cancel()

	res := f.FetchPage(ctx, model.QueryStream{Label: "state"}, 2, nil)
	if res.Status != model.StatusTransient {
		t.Fatalf("status = %v, want transient on cancellation", res.Status)
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
}
