package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Ensure ThrottledFetcher implements model.PageFetcher.
var _ model.PageFetcher = (*ThrottledFetcher)(nil)

// ThrottledFetcher is a decorator that paces requests to the upstream host.
// Two mechanisms stack: a token-bucket ceiling on overall request rate, and a
// randomized pause between consecutive page fetches so the traffic pattern
// does not look like a tight loop. The pause is independent of retry backoff,
// which the retry decorator owns.
type ThrottledFetcher struct {
	inner    model.PageFetcher
	limiter  *rate.Limiter
	delayMin time.Duration
	delayMax time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger

	fetched bool // no pause before the very first request
}

// NewThrottledFetcher wraps a PageFetcher with rate limiting. reqPerSec and
// burst feed the token bucket; delayMin/delayMax bound the randomized
// inter-page pause.
func NewThrottledFetcher(inner model.PageFetcher, reqPerSec float64, burst int, delayMin, delayMax time.Duration, logger *slog.Logger) *ThrottledFetcher {
	return &ThrottledFetcher{
		inner:    inner,
		limiter:  rate.NewLimiter(rate.Limit(reqPerSec), burst),
		delayMin: delayMin,
		delayMax: delayMax,
		sleep:    sleepCtx,
		logger:   logger,
	}
}

// FetchPage pauses, waits for a rate token, then delegates. A cancellation
// while pacing comes back as a transient result so the caller's status
// handling stays uniform.
func (f *ThrottledFetcher) FetchPage(ctx context.Context, stream model.QueryStream, page int, sess *model.Session) model.PageResult {
	if f.fetched {
		d := f.pageDelay()
		f.logger.Debug("pausing before next page", "stream", stream.Label, "page", page, "delay", d)
		if err := f.sleep(ctx, d); err != nil {
			return cancelled(stream, page, err)
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return cancelled(stream, page, err)
	}

	res := f.inner.FetchPage(ctx, stream, page, sess)
	f.fetched = true
	return res
}

// pageDelay picks a uniform random duration from the configured window.
func (f *ThrottledFetcher) pageDelay() time.Duration {
	if f.delayMax <= f.delayMin {
		return f.delayMin
	}
	spread := f.delayMax - f.delayMin
	return f.delayMin + time.Duration(rand.Int64N(int64(spread)))
}

func cancelled(stream model.QueryStream, page int, err error) model.PageResult {
	return model.PageResult{
		Stream: stream.Label,
		Page:   page,
		Status: model.StatusTransient,
		Err:    fmt.Errorf("throttle wait: %w", err),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
