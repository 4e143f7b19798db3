package model

import (
	"context"
	"time"
)

// Unified representation of a single job posting from the search API.
type Job struct {
	ID             string    // unique_job_number, identity key for dedup
	Title          string    // job title
	Description    string    // full HTML description
	City           string
	State          string    // two-letter state/province code
	PostalCode     string
	Country        string    // lowercase country code ("us")
	Remote         bool
	PostedAt       time.Time // date_posted from the API
	DetailURL      string    // direct link to the posting
	EmploymentType string    // emptype ("Temporary", "Full-Time", ...)
	Pay            *PayRange // nullable (not every posting lists pay)
	Streams        []string  // query stream labels this job was seen under
}

// PayRange is the advertised pay for a posting.
type PayRange struct {
	Min      float64
	Max      float64
	Period   string // "hour", "year", ...
	Currency string // "USD"
}

// SeenUnder reports whether the job was returned by the given stream.
func (j *Job) SeenUnder(label string) bool {
	for _, s := range j.Streams {
		if s == label {
			return true
		}
	}
	return false
}

// QueryStream is one paginated query configuration against the search
// endpoint. Streams are built once from config and never mutated during a run;
// only the page number varies per request.
type QueryStream struct {
	Label        string // e.g. "state", "remote"
	Remote       string // API expects "yes" or "No"
	Country      string
	Distance     string
	Source       []string
	LobIDs       []string
	PostedWithin string
	SortBy       string
	PageSize     int
	PayRateMin   int
}

// PageStatus classifies the outcome of one page fetch.
type PageStatus int

const (
	// StatusOK: 2xx with a parseable jobs payload.
	StatusOK PageStatus = iota
	// StatusAuthInvalid: 401/403, or a 2xx body that is not the expected
	// JSON shape. Retrying without re-authentication is useless.
	StatusAuthInvalid
	// StatusTransient: network error, timeout, 5xx, or 429.
	StatusTransient
	// StatusFatal: any other unexpected status or shape. Not retried.
	StatusFatal
)

func (s PageStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAuthInvalid:
		return "auth_invalid"
	case StatusTransient:
		return "transient"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PageResult is the classified outcome of fetching one page of one stream.
// Transient per-request; the paginator folds it into its accumulator.
type PageResult struct {
	Stream string
	Page   int
	Jobs   []Job
	Total  int   // server-reported total for the stream ("found")
	Status PageStatus
	Err    error // underlying cause for non-OK statuses, for logging
}

// PageFetcher issues one paginated request against the job-search endpoint.
// Outcomes are reported through PageResult.Status rather than the error
// return, so decorators can apply per-status policy.
type PageFetcher interface {
	FetchPage(ctx context.Context, stream QueryStream, page int, sess *Session) PageResult
}

// JobFilter decides whether a fetched job is kept.
type JobFilter interface {
	Match(job Job) bool
}

// Notifier announces the outcome of a run.
type Notifier interface {
	Notify(result *AggregateResult, newJobs []Job) error
}
