package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JosephStocks/roberthalf-scraper/internal/config"
	"github.com/JosephStocks/roberthalf-scraper/internal/model"
)

// Ensure SearchClient implements model.PageFetcher.
var _ model.PageFetcher = (*SearchClient)(nil)

// SearchClient issues paginated POST requests against the Robert Half job
// search servlet and classifies each outcome. It has no side effects beyond
// the outbound request: session and stream state are never mutated here.
type SearchClient struct {
	search config.SearchConfig
	client *http.Client
	logger *slog.Logger
}

// NewSearchClient creates a fetcher for the job-search endpoint.
func NewSearchClient(search config.SearchConfig, client *http.Client, logger *slog.Logger) *SearchClient {
	return &SearchClient{
		search: search,
		client: client,
		logger: logger,
	}
}

// searchRequest is the servlet's full request body. Fields the scraper does
// not filter on are sent empty; the endpoint expects them present.
type searchRequest struct {
	Country       string   `json:"country"`
	Keywords      string   `json:"keywords"`
	Location      string   `json:"location"`
	Distance      string   `json:"distance"`
	Remote        string   `json:"remote"`
	RemoteText    string   `json:"remoteText"`
	LanguageCodes []string `json:"languagecodes"`
	Source        []string `json:"source"`
	City          []string `json:"city"`
	EmpType       []string `json:"emptype"`
	LobID         []string `json:"lobid"`
	JobType       string   `json:"jobtype"`
	PostedWithin  string   `json:"postedwithin"`
	TimeType      string   `json:"timetype"`
	PageSize      int      `json:"pagesize"`
	PageNumber    int      `json:"pagenumber"`
	SortBy        string   `json:"sortby"`
	Mode          string   `json:"mode"`
	PayRateMin    int      `json:"payratemin"`
	IncludeDOE    string   `json:"includedoe"`
}

// searchResponse is the servlet's reply. Jobs is a pointer so a 2xx body
// missing the jobs array entirely is distinguishable from an empty page.
type searchResponse struct {
	Found string   `json:"found"`
	Jobs  *[]rhJob `json:"jobs"`
}

// rhJob mirrors one entry of the servlet's jobs array. Numeric-looking fields
// arrive string-encoded.
type rhJob struct {
	UniqueJobNumber string `json:"unique_job_number"`
	JobTitle        string `json:"jobtitle"`
	Description     string `json:"description"`
	DatePosted      string `json:"date_posted"`
	City            string `json:"city"`
	StateProvince   string `json:"stateprovince"`
	PostalCode      string `json:"postalcode"`
	Country         string `json:"country"`
	PayRateMin      string `json:"payrate_min"`
	PayRateMax      string `json:"payrate_max"`
	PayRatePeriod   string `json:"payrate_period"`
	Currency        string `json:"currency"`
	Remote          string `json:"remote"`
	JobDetailURL    string `json:"job_detail_url"`
	EmpType         string `json:"emptype"`
}

// FetchPage requests one page of one stream using the given session's cookies
// and user agent, and classifies the outcome. See model.PageStatus for the
// classification policy.
func (c *SearchClient) FetchPage(ctx context.Context, stream model.QueryStream, page int, sess *model.Session) model.PageResult {
	res := model.PageResult{Stream: stream.Label, Page: page}

	body := searchRequest{
		Country:       stream.Country,
		Distance:      stream.Distance,
		Remote:        stream.Remote,
		LanguageCodes: []string{},
		Source:        stream.Source,
		City:          []string{},
		EmpType:       []string{},
		LobID:         stream.LobIDs,
		PostedWithin:  stream.PostedWithin,
		PageSize:      stream.PageSize,
		PageNumber:    page,
		SortBy:        stream.SortBy,
		PayRateMin:    stream.PayRateMin,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		res.Status = model.StatusFatal
		res.Err = fmt.Errorf("marshal search request: %w", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.search.URL, bytes.NewReader(payload))
	if err != nil {
		res.Status = model.StatusFatal
		res.Err = fmt.Errorf("build search request: %w", err)
		return res
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.search.Origin)
	req.Header.Set("Referer", c.search.Referer)
	req.Header.Set("User-Agent", sess.UserAgent)
	req.Header.Set("Cookie", sess.CookieHeader())

	resp, err := c.client.Do(req)
	if err != nil {
		// Network failure, DNS, timeout: all worth retrying.
		res.Status = model.StatusTransient
		res.Err = fmt.Errorf("search page %d (%s): %w", page, stream.Label, err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Status, res.Err = classifyHTTPStatus(resp, stream.Label, page)
		return res
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// A 2xx with a non-JSON body is the site serving its login page:
		// the session is gone, retrying without re-auth is pointless.
		res.Status = model.StatusAuthInvalid
		res.Err = fmt.Errorf("search page %d (%s): %w: %w", page, stream.Label, model.ErrSessionInvalid, err)
		return res
	}
	if parsed.Jobs == nil {
		res.Status = model.StatusAuthInvalid
		res.Err = fmt.Errorf("search page %d (%s): %w: response has no jobs array", page, stream.Label, model.ErrSessionInvalid)
		return res
	}

	total, err := strconv.Atoi(strings.TrimSpace(parsed.Found))
	if err != nil {
		res.Status = model.StatusFatal
		res.Err = fmt.Errorf("search page %d (%s): unparseable found count %q", page, stream.Label, parsed.Found)
		return res
	}

	jobs := make([]model.Job, 0, len(*parsed.Jobs))
	for _, rj := range *parsed.Jobs {
		jobs = append(jobs, normalizeJob(rj, stream.Label))
	}

	c.logger.Debug("fetched page",
		"stream", stream.Label,
		"page", page,
		"jobs", len(jobs),
		"found", total,
	)

	res.Jobs = jobs
	res.Total = total
	res.Status = model.StatusOK
	return res
}

// classifyHTTPStatus maps a non-2xx response to a page status.
func classifyHTTPStatus(resp *http.Response, stream string, page int) (model.PageStatus, error) {
	httpErr := &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("search page %d (%s)", page, stream),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return model.StatusAuthInvalid, fmt.Errorf("%w: %w", model.ErrSessionInvalid, httpErr)
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		// The client never follows redirects, so a 3xx here is the servlet
		// bouncing a dead session to the login page.
		return model.StatusAuthInvalid, fmt.Errorf("%w: %w", model.ErrSessionInvalid, httpErr)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return model.StatusTransient, httpErr
	default:
		return model.StatusFatal, httpErr
	}
}

// normalizeJob converts one wire job into the unified model, tagging it with
// the stream it was seen under.
func normalizeJob(rj rhJob, stream string) model.Job {
	job := model.Job{
		ID:             rj.UniqueJobNumber,
		Title:          rj.JobTitle,
		Description:    rj.Description,
		City:           rj.City,
		State:          rj.StateProvince,
		PostalCode:     rj.PostalCode,
		Country:        strings.ToLower(rj.Country),
		Remote:         strings.EqualFold(rj.Remote, "yes"),
		PostedAt:       parsePostedAt(rj.DatePosted),
		DetailURL:      rj.JobDetailURL,
		EmploymentType: rj.EmpType,
		Streams:        []string{stream},
	}

	if pay := parsePayRange(rj); pay != nil {
		job.Pay = pay
	}
	return job
}

// parsePostedAt handles the two date formats the servlet has been seen
// emitting. An unparseable date yields the zero time; the job is still kept.
func parsePostedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func parsePayRange(rj rhJob) *model.PayRange {
	min, errMin := strconv.ParseFloat(strings.TrimSpace(rj.PayRateMin), 64)
	max, errMax := strconv.ParseFloat(strings.TrimSpace(rj.PayRateMax), 64)
	if errMin != nil || errMax != nil {
		return nil
	}
	currency := rj.Currency
	if currency == "" {
		currency = "USD"
	}
	return &model.PayRange{
		Min:      min,
		Max:      max,
		Period:   rj.PayRatePeriod,
		Currency: currency,
	}
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
