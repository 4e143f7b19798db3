package session

import (
	"context"
	"log/slog"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Validator performs a cheap probe to decide whether a candidate session is
// still accepted server-side.
type Validator interface {
	Usable(ctx context.Context, sess *model.Session) bool
}

// ProbeValidator validates a session by issuing a minimal one-job search
// through the regular page fetcher. The probe stream requests a single job on
// page one; anything other than an OK classification means the session cannot
// be trusted.
type ProbeValidator struct {
	fetcher model.PageFetcher
	stream  model.QueryStream
	logger  *slog.Logger
}

// NewProbeValidator builds a validator on top of the given fetcher. base
// supplies the fixed filter parameters (country, source, lobid) the endpoint
// expects even for probes.
func NewProbeValidator(fetcher model.PageFetcher, base model.QueryStream, logger *slog.Logger) *ProbeValidator {
	probe := base
	probe.Label = "probe"
	probe.PageSize = 1
	return &ProbeValidator{fetcher: fetcher, stream: probe, logger: logger}
}

// Usable issues the probe request and reports whether the session was
// accepted. Transient failures count as unusable: the caller re-authenticates
// rather than guessing.
func (v *ProbeValidator) Usable(ctx context.Context, sess *model.Session) bool {
	res := v.fetcher.FetchPage(ctx, v.stream, 1, sess)
	if res.Status == model.StatusOK {
		v.logger.Debug("session probe succeeded")
		return true
	}
	v.logger.Warn("session probe rejected", "status", res.Status.String(), "error", res.Err)
	return false
}
