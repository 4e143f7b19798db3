package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// jitterFraction bounds the random spread applied to each computed delay so
// independent schedules do not retry in lockstep.
const jitterFraction = 0.3

// Ensure RetryFetcher implements model.PageFetcher.
var _ model.PageFetcher = (*RetryFetcher)(nil)

// RetryFetcher is a decorator that retries transient page failures with
// exponential backoff and jitter before delegating to the wrapped fetcher.
// Auth-invalid and fatal outcomes pass through untouched: re-authentication
// belongs to the caller, and fatal responses are not worth repeating.
type RetryFetcher struct {
	inner      model.PageFetcher
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewRetryFetcher wraps a PageFetcher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryFetcher(inner model.PageFetcher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleepCtx,
		logger:     logger,
	}
}

// FetchPage attempts one page fetch, retrying transient failures up to
// maxRetries times. After exhausting retries the final transient result is
// returned as-is; the caller decides whether the stream aborts or completes
// partially.
func (f *RetryFetcher) FetchPage(ctx context.Context, stream model.QueryStream, page int, sess *model.Session) model.PageResult {
	res := f.inner.FetchPage(ctx, stream, page, sess)
	if res.Status != model.StatusTransient {
		return res
	}

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		delay := f.backoffDelay(attempt, res.Err)

		f.logger.Warn("retrying page after transient error",
			"stream", stream.Label,
			"page", page,
			"attempt", attempt,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", res.Err,
		)

		if err := f.sleep(ctx, delay); err != nil {
			res.Err = fmt.Errorf("retry cancelled: %w", err)
			return res
		}

		res = f.inner.FetchPage(ctx, stream, page, sess)
		if res.Status != model.StatusTransient {
			return res
		}
	}

	f.logger.Error("page retries exhausted",
		"stream", stream.Label,
		"page", page,
		"attempts", f.maxRetries+1,
		"error", res.Err,
	)
	return res
}

// backoffDelay computes the delay for a given attempt: baseDelay * 2^(attempt-1)
// with ±30% jitter. If the error includes a Retry-After duration (HTTP 429),
// that takes precedence.
func (f *RetryFetcher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := Backoff(f.baseDelay, attempt)

	jitter := float64(delay) * jitterFraction
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// Backoff returns the un-jittered exponential delay for the given attempt
// (attempt 1 = baseDelay). Pure so the schedule is testable.
func Backoff(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
