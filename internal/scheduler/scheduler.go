package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// RunFunc executes one full scrape cycle: session, streams, persistence,
// notification. An error marks the cycle failed but never stops the loop.
type RunFunc func(ctx context.Context) error

// Scheduler owns the main loop: runs one immediate cycle, then ticks on the
// configured interval.
type Scheduler struct {
	run      RunFunc
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that executes run at the given interval.
func NewScheduler(run RunFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{run: run, interval: interval, logger: logger}
}

// Run starts the loop. It returns nil when ctx is cancelled (graceful
// shutdown); a failed cycle is logged and the next tick proceeds normally.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval.String())

	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.run(ctx); err != nil {
		s.logger.Error("cycle failed", "error", err, "duration", time.Since(start).Round(time.Second))
		return
	}
	s.logger.Info("cycle finished", "duration", time.Since(start).Round(time.Second))
}
