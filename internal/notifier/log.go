package notifier

import (
	"log/slog"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes the run summary and each new job to the given logger as
// structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs run outcomes via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the run summary plus one line per new job. Returns nil (stdout
// logging does not fail).
func (n *LogNotifier) Notify(result *model.AggregateResult, newJobs []model.Job) error {
	n.logger.Info("run summary",
		"status", result.Status.String(),
		"total_jobs", len(result.Jobs),
		"new_jobs", len(newJobs),
	)
	for _, j := range newJobs {
		args := []any{"id", j.ID, "title", j.Title, "city", j.City, "state", j.State, "url", j.DetailURL}
		if j.Remote {
			args = append(args, "remote", true)
		}
		if j.Pay != nil {
			args = append(args, "pay_min", j.Pay.Min, "pay_max", j.Pay.Max, "pay_period", j.Pay.Period)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}
