package model

import (
	"sort"
	"time"
)

// StreamStatus describes how far a single stream got.
type StreamStatus int

const (
	StreamCompleted StreamStatus = iota
	StreamPartial
	StreamFailed
)

func (s StreamStatus) String() string {
	switch s {
	case StreamCompleted:
		return "completed"
	case StreamPartial:
		return "partially_completed"
	case StreamFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunStatus is the overall outcome of one aggregation run.
type RunStatus int

const (
	RunCompleted RunStatus = iota
	RunPartial
	RunFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunPartial:
		return "partially_completed"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StreamStats records per-stream counts for one run.
type StreamStats struct {
	Label         string
	JobCount      int // jobs accumulated for this stream (pre-dedup)
	ReportedTotal int // server-reported "found" for this stream
	Status        StreamStatus
}

// AggregateResult is the final deduplicated, ordered job set for one run,
// handed read-only to reporting and notification.
type AggregateResult struct {
	Jobs      []Job
	Streams   []StreamStats
	Timestamp time.Time
	Status    RunStatus
}

// StreamStats returns the stats entry for the given label, if present.
func (r *AggregateResult) StreamStats(label string) (StreamStats, bool) {
	for _, s := range r.Streams {
		if s.Label == label {
			return s, true
		}
	}
	return StreamStats{}, false
}

// SortJobs orders jobs by posted date descending, ties broken by ID ascending
// so identical inputs always produce identical output.
func SortJobs(jobs []Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if !jobs[i].PostedAt.Equal(jobs[j].PostedAt) {
			return jobs[i].PostedAt.After(jobs[j].PostedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}
