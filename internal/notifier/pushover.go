package notifier

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Ensure PushoverNotifier implements model.Notifier.
var _ model.Notifier = (*PushoverNotifier)(nil)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// maxListedJobs caps how many postings appear in the push body before it
// collapses to a count. Pushover truncates messages at 1024 characters.
const maxListedJobs = 8

// PushoverNotifier sends a single push notification per run summarizing the
// new jobs found.
type PushoverNotifier struct {
	apiURL     string
	token      string
	userKey    string
	state      string // target state code, for the summary counts
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPushoverNotifier returns a notifier that posts run summaries to Pushover.
func NewPushoverNotifier(token, userKey, state string, httpClient *http.Client, logger *slog.Logger) *PushoverNotifier {
	return &PushoverNotifier{
		apiURL:     DefaultPushoverURL,
		token:      token,
		userKey:    userKey,
		state:      strings.ToUpper(state),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one push message for the run. Runs with no new jobs send
// nothing.
func (p *PushoverNotifier) Notify(result *model.AggregateResult, newJobs []model.Job) error {
	if len(newJobs) == 0 {
		p.logger.Info("no new jobs, skipping push notification")
		return nil
	}

	title, message := p.buildMessage(result, newJobs)

	form := url.Values{
		"token":     {p.token},
		"user":      {p.userKey},
		"title":     {title},
		"message":   {message},
		"priority":  {"1"},
		"url":       {newJobs[0].DetailURL},
		"url_title": {"View job"},
	}

	resp, err := p.httpClient.PostForm(p.apiURL, form)
	if err != nil {
		return fmt.Errorf("post to pushover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		p.logger.Warn("pushover rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := p.httpClient.PostForm(p.apiURL, form)
		if err != nil {
			return fmt.Errorf("post to pushover (retry): %w", err)
		}
		defer resp2.Body.Close()
		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("pushover returned %d on retry", resp2.StatusCode)
		}
		p.logger.Info("push notification sent", "new_jobs", len(newJobs), "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover returned %d", resp.StatusCode)
	}
	p.logger.Info("push notification sent", "new_jobs", len(newJobs))
	return nil
}

func (p *PushoverNotifier) buildMessage(result *model.AggregateResult, newJobs []model.Job) (title, message string) {
	inState, remote := 0, 0
	for _, j := range newJobs {
		if strings.EqualFold(j.State, p.state) {
			inState++
		}
		if j.Remote {
			remote++
		}
	}

	title = fmt.Sprintf("Found %d NEW jobs! (%d in %s, %d remote)",
		len(newJobs), inState, p.state, remote)
	if result.Status != model.RunCompleted {
		title += " [partial run]"
	}

	var b strings.Builder
	for i, j := range newJobs {
		if i == maxListedJobs {
			fmt.Fprintf(&b, "...and %d more\n", len(newJobs)-maxListedJobs)
			break
		}
		loc := j.City
		if j.Remote {
			loc = "Remote"
		}
		if loc == "" {
			loc = j.State
		}
		fmt.Fprintf(&b, "%s (%s)\n%s\n", j.Title, loc, j.DetailURL)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// SendTestMessage pushes a dummy run through the notifier to verify the
// integration works end to end.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	job := model.Job{
		ID:        "JO-TEST-0001",
		Title:     "Test Notification",
		City:      "Dallas",
		State:     "TX",
		Country:   "us",
		PostedAt:  now,
		DetailURL: "https://www.roberthalf.com/us/en/jobs",
		Streams:   []string{"state"},
	}
	result := &model.AggregateResult{
		Jobs:      []model.Job{job},
		Timestamp: now,
		Status:    model.RunCompleted,
	}
	return n.Notify(result, []model.Job{job})
}
