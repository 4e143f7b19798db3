package filter

import (
	"testing"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func TestStateOrRemoteFilter(t *testing.T) {
	f := NewStateOrRemoteFilter("tx")

	tests := []struct {
		name string
		job  model.Job
		want bool
	}{
		{"in-state onsite", model.Job{State: "TX", Country: "us"}, true},
		{"in-state lowercase", model.Job{State: "tx", Country: "us"}, true},
		{"out-of-state onsite", model.Job{State: "OK", Country: "us"}, false},
		{"us remote out-of-state", model.Job{State: "NY", Country: "us", Remote: true}, true},
		{"foreign remote", model.Job{State: "", Country: "ca", Remote: true}, false},
		{"no location at all", model.Job{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Match(tt.job); got != tt.want {
				t.Errorf("Match(%+v) = %v, want %v", tt.job, got, tt.want)
			}
		})
	}
}

func TestPassAll(t *testing.T) {
	if !(PassAll{}).Match(model.Job{}) {
		t.Error("PassAll should match everything")
	}
}
