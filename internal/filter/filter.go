package filter

import (
	"strings"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Ensure StateOrRemoteFilter implements model.JobFilter.
var _ model.JobFilter = (*StateOrRemoteFilter)(nil)

// StateOrRemoteFilter keeps jobs located in the target state plus US remote
// jobs. The search endpoint's distance filter is loose and regularly returns
// neighboring-state results, so the state check happens client-side.
type StateOrRemoteFilter struct {
	state string // two-letter code, upper case
}

// NewStateOrRemoteFilter returns a filter for the given state code.
func NewStateOrRemoteFilter(state string) *StateOrRemoteFilter {
	return &StateOrRemoteFilter{state: strings.ToUpper(state)}
}

// Match returns true for jobs in the target state or remote jobs in the US.
func (f *StateOrRemoteFilter) Match(job model.Job) bool {
	if strings.EqualFold(job.State, f.state) {
		return true
	}
	return job.Remote && strings.EqualFold(job.Country, "us")
}

// PassAll matches every job. Used when no client-side narrowing is wanted.
type PassAll struct{}

func (PassAll) Match(model.Job) bool { return true }
