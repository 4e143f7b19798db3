package notifier

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleJob(id, title, city string, remote bool) model.Job {
	state := "TX"
	if remote {
		state = "NY"
	}
	return model.Job{
		ID: id, Title: title, City: city, State: state, Country: "us",
		Remote:    remote,
		PostedAt:  time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		DetailURL: "https://www.roberthalf.com/us/en/job/" + id,
	}
}

func resultWith(jobs ...model.Job) *model.AggregateResult {
	return &model.AggregateResult{Jobs: jobs, Timestamp: time.Now(), Status: model.RunCompleted}
}

func newTestNotifier(srvURL string, client *http.Client) *PushoverNotifier {
	n := NewPushoverNotifier("app-token", "user-key", "tx", client, discardLogger())
	n.apiURL = srvURL
	return n
}

func TestPushover_NoNewJobsSendsNothing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	if err := n.Notify(resultWith(sampleJob("JO-1", "Accountant", "Dallas", false)), nil); err != nil {
		t.Errorf("Notify with no new jobs = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestPushover_FormFields(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	jobs := []model.Job{
		sampleJob("JO-1", "Staff Accountant", "Dallas", false),
		sampleJob("JO-2", "Payroll Clerk", "", true),
	}

	if err := n.Notify(resultWith(jobs...), jobs); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if form.Get("token") != "app-token" || form.Get("user") != "user-key" {
		t.Errorf("credentials not sent: token=%q user=%q", form.Get("token"), form.Get("user"))
	}
	title := form.Get("title")
	if title != "Found 2 NEW jobs! (1 in TX, 1 remote)" {
		t.Errorf("title = %q", title)
	}
	msg := form.Get("message")
	if !strings.Contains(msg, "Staff Accountant (Dallas)") {
		t.Errorf("message missing in-state job: %q", msg)
	}
	if !strings.Contains(msg, "Payroll Clerk (Remote)") {
		t.Errorf("message missing remote job: %q", msg)
	}
	if !strings.Contains(msg, "https://www.roberthalf.com/us/en/job/JO-1") {
		t.Errorf("message missing detail URL: %q", msg)
	}
	if form.Get("priority") != "1" {
		t.Errorf("priority = %q, want 1", form.Get("priority"))
	}
	if form.Get("url") != "https://www.roberthalf.com/us/en/job/JO-1" {
		t.Errorf("url = %q, want first new job's detail URL", form.Get("url"))
	}
}

func TestPushover_PartialRunFlagged(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	jobs := []model.Job{sampleJob("JO-1", "Accountant", "Dallas", false)}
	result := resultWith(jobs...)
	result.Status = model.RunPartial

	if err := n.Notify(result, jobs); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(form.Get("title"), "[partial run]") {
		t.Errorf("partial run not flagged in title: %q", form.Get("title"))
	}
}

func TestPushover_LongListCollapses(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	var jobs []model.Job
	for i := 0; i < maxListedJobs+4; i++ {
		jobs = append(jobs, sampleJob("JO-"+strings.Repeat("9", i+1), "Analyst", "Austin", false))
	}

	if err := n.Notify(resultWith(jobs...), jobs); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(form.Get("message"), "...and 4 more") {
		t.Errorf("overflow not collapsed: %q", form.Get("message"))
	}
}

func TestPushover_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	jobs := []model.Job{sampleJob("JO-1", "Accountant", "Dallas", false)}
	if err := n.Notify(resultWith(jobs...), jobs); err == nil {
		t.Error("expected error on 500, got nil")
	}
}

func TestPushover_RateLimitedThenRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL, srv.Client())
	jobs := []model.Job{sampleJob("JO-1", "Accountant", "Dallas", false)}
	if err := n.Notify(resultWith(jobs...), jobs); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	n := NewLogNotifier(discardLogger())
	jobs := []model.Job{sampleJob("JO-1", "Accountant", "Dallas", false)}
	if err := n.Notify(resultWith(jobs...), jobs); err != nil {
		t.Errorf("Notify = %v, want nil", err)
	}
	if err := n.Notify(resultWith(), nil); err != nil {
		t.Errorf("Notify with empty run = %v, want nil", err)
	}
}
