package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "rhwatch.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func resultWith(ts time.Time, jobs ...model.Job) *model.AggregateResult {
	return &model.AggregateResult{
		Jobs:      jobs,
		Timestamp: ts,
		Status:    model.RunCompleted,
		Streams: []model.StreamStats{
			{Label: "state", JobCount: len(jobs), ReportedTotal: len(jobs), Status: model.StreamCompleted},
		},
	}
}

func someJob(id string) model.Job {
	return model.Job{
		ID: id, Title: "Staff Accountant", City: "Dallas", State: "TX",
		Country: "us", PostedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		DetailURL: "https://www.roberthalf.com/us/en/job/" + id,
		Streams:   []string{"state"},
	}
}

func TestRecordRun_FirstRunAllNew(t *testing.T) {
	s := openStore(t)

	empty, err := s.IsEmpty()
	if err != nil || !empty {
		t.Fatalf("IsEmpty = %v, %v; want true, nil", empty, err)
	}

	newJobs, err := s.RecordRun(resultWith(time.Now(), someJob("JO-1"), someJob("JO-2")))
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if len(newJobs) != 2 {
		t.Fatalf("new jobs = %d, want 2", len(newJobs))
	}

	empty, _ = s.IsEmpty()
	if empty {
		t.Error("store still empty after recording a run")
	}
}

func TestRecordRun_SecondRunDetectsOnlyNew(t *testing.T) {
	s := openStore(t)

	if _, err := s.RecordRun(resultWith(time.Now(), someJob("JO-1"), someJob("JO-2"))); err != nil {
		t.Fatalf("first RecordRun: %v", err)
	}

	newJobs, err := s.RecordRun(resultWith(time.Now(), someJob("JO-2"), someJob("JO-3")))
	if err != nil {
		t.Fatalf("second RecordRun: %v", err)
	}
	if len(newJobs) != 1 || newJobs[0].ID != "JO-3" {
		t.Fatalf("new jobs = %+v, want only JO-3", newJobs)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	// Newest first.
	if runs[0].NewJobs != 1 || runs[0].TotalJobs != 2 {
		t.Errorf("latest run = %+v, want 1 new of 2 total", runs[0])
	}
	if runs[1].NewJobs != 2 {
		t.Errorf("first run = %+v, want 2 new", runs[1])
	}
}

func TestRecordRun_RefreshesMutableFields(t *testing.T) {
	s := openStore(t)

	first := someJob("JO-1")
	if _, err := s.RecordRun(resultWith(time.Now(), first)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	updated := first
	updated.Title = "Senior Staff Accountant"
	updated.Pay = &model.PayRange{Min: 40, Max: 55, Period: "hour", Currency: "USD"}
	updated.Streams = []string{"state", "remote"}
	if _, err := s.RecordRun(resultWith(time.Now(), updated)); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	runs, _ := s.ListRuns(1)
	jobs, err := s.JobsForRun(runs[0].ID)
	if err != nil {
		t.Fatalf("JobsForRun: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	got := jobs[0].Job
	if got.Title != "Senior Staff Accountant" {
		t.Errorf("title not refreshed: %q", got.Title)
	}
	if got.Pay == nil || got.Pay.Min != 40 || got.Pay.Currency != "USD" {
		t.Errorf("pay not refreshed: %+v", got.Pay)
	}
	if len(got.Streams) != 2 {
		t.Errorf("streams not refreshed: %v", got.Streams)
	}
}

func TestNewJobsForRun(t *testing.T) {
	s := openStore(t)

	s.RecordRun(resultWith(time.Now(), someJob("JO-1")))
	s.RecordRun(resultWith(time.Now(), someJob("JO-1"), someJob("JO-2")))

	runs, _ := s.ListRuns(1)
	fresh, err := s.NewJobsForRun(runs[0].ID)
	if err != nil {
		t.Fatalf("NewJobsForRun: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Job.ID != "JO-2" {
		t.Fatalf("fresh = %+v, want only JO-2", fresh)
	}
}

func TestCleanup_PrunesByLastSighting(t *testing.T) {
	s := openStore(t)
	t0 := time.Now()

	// Run 1: both jobs first seen long ago.
	s.RecordRun(resultWith(t0, someJob("JO-keep"), someJob("JO-old")))
	// Run 2: only JO-keep is re-sighted recently.
	s.RecordRun(resultWith(t0.Add(47*time.Hour), someJob("JO-keep")))
	// Run 3 is the latest run; its jobs always survive.
	s.RecordRun(resultWith(t0.Add(48*time.Hour), someJob("JO-new")))

	s.now = func() time.Time { return t0.Add(48 * time.Hour) }
	if err := s.Cleanup(24 * time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	survivors := map[string]bool{}
	runs, _ := s.ListRuns(10)
	for _, r := range runs {
		jobs, _ := s.JobsForRun(r.ID)
		for _, j := range jobs {
			survivors[j.Job.ID] = true
		}
	}

	if survivors["JO-old"] {
		t.Error("JO-old survived cleanup despite last sighting 48h ago")
	}
	// First seen before the cutoff, but re-sighted after it.
	if !survivors["JO-keep"] {
		t.Error("JO-keep pruned despite a recent sighting")
	}
	if !survivors["JO-new"] {
		t.Error("JO-new from the latest run pruned")
	}
}

func TestNopStore_EverythingIsNew(t *testing.T) {
	s := NewNopStore()
	res := resultWith(time.Now(), someJob("JO-1"))
	newJobs, err := s.RecordRun(res)
	if err != nil || len(newJobs) != 1 {
		t.Fatalf("RecordRun = %v, %v; want all jobs back", newJobs, err)
	}
}
