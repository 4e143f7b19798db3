package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the scraper.
type Config struct {
	Interval    time.Duration // schedule interval for daemon mode
	FilterState string        // two-letter state code for the state stream
	PostPeriod  string        // API posted-within period, e.g. PAST_24_HOURS
	PageSize    int

	Search       SearchConfig
	Session      SessionConfig
	Browser      BrowserConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	Notification NotificationConfig
	Proxy        ProxyConfig

	OutputDir string // JSON report artifacts
	DBPath    string // sqlite job history
	LockFile  string // flock path preventing overlapping runs
}

// SearchConfig holds fixed query parameters shared by every stream.
type SearchConfig struct {
	URL      string
	Referer  string
	Origin   string
	Source   []string
	LobIDs   []string
	Distance string
	Timeout  time.Duration // per-request timeout
}

// SessionConfig controls session persistence and reuse.
type SessionConfig struct {
	File            string
	MaxAge          time.Duration
	Save            bool
	RotateUserAgent bool
	UserAgent       string // default UA when rotation is off
}

// BrowserConfig controls the interactive login browser.
type BrowserConfig struct {
	LoginURL string
	Headless bool
	Timeout  time.Duration
	Username string // expanded from env by Load; keyring takes precedence
	Password string
}

// RateLimitConfig throttles steady-state request rate.
type RateLimitConfig struct {
	RequestsPerSecond float64 // global ceiling across streams
	Burst             int
	PageDelayMin      time.Duration // randomized delay between page fetches
	PageDelayMax      time.Duration
}

// RetryConfig bounds per-page retry behavior.
type RetryConfig struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // first backoff delay, doubled per retry
	MaxReauths int           // re-authentication budget per run
}

// NotificationConfig selects and configures the notifier.
type NotificationConfig struct {
	Type         string `yaml:"type"` // "log" or "pushover"
	PushoverToken string `yaml:"pushover_token"`
	PushoverUser  string `yaml:"pushover_user"`
}

// ProxyConfig routes both browser login and API traffic through a proxy.
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Server  string `yaml:"server"`
	Auth    string `yaml:"auth"` // "username:password"
	Bypass  string `yaml:"bypass"`
}

// Credentials splits Auth into username and password. The password may itself
// contain colons, so only the first one separates.
func (p ProxyConfig) Credentials() (user, pass string, ok bool) {
	if p.Auth == "" {
		return "", "", false
	}
	parts := strings.SplitN(p.Auth, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

const (
	defaultSearchURL = "https://www.roberthalf.com/bin/jobSearchServlet"
	defaultReferer   = "https://www.roberthalf.com/us/en/jobs"
	defaultOrigin    = "https://www.roberthalf.com"
	defaultLoginURL  = "https://online.roberthalf.com/s/login?app=0sp3w000001UJH5&c=US&d=en_US&language=en_US&redirect=false"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"
)

// rawConfig is used for YAML unmarshaling (snake_case fields, durations as strings).
type rawConfig struct {
	Interval    string `yaml:"interval"`
	FilterState string `yaml:"filter_state"`
	PostPeriod  string `yaml:"post_period"`
	PageSize    int    `yaml:"page_size"`

	Search       rawSearchConfig    `yaml:"search"`
	Session      rawSessionConfig   `yaml:"session"`
	Browser      rawBrowserConfig   `yaml:"browser"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
	Notification NotificationConfig `yaml:"notification"`
	Proxy        ProxyConfig        `yaml:"proxy"`

	OutputDir string `yaml:"output_dir"`
	DBPath    string `yaml:"db_path"`
	LockFile  string `yaml:"lock_file"`
}

type rawSearchConfig struct {
	URL      string   `yaml:"url"`
	Referer  string   `yaml:"referer"`
	Origin   string   `yaml:"origin"`
	Source   []string `yaml:"source"`
	LobIDs   []string `yaml:"lobids"`
	Distance string   `yaml:"distance"`
	Timeout  string   `yaml:"timeout"`
}

type rawSessionConfig struct {
	File            string `yaml:"file"`
	MaxAge          string `yaml:"max_age"`
	Save            *bool  `yaml:"save"`
	RotateUserAgent bool   `yaml:"rotate_user_agent"`
	UserAgent       string `yaml:"user_agent"`
}

type rawBrowserConfig struct {
	LoginURL string `yaml:"login_url"`
	Headless *bool  `yaml:"headless"`
	Timeout  string `yaml:"timeout"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	PageDelayMin      string  `yaml:"page_delay_min"`
	PageDelayMax      string  `yaml:"page_delay_max"`
}

type rawRetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
	MaxReauths int    `yaml:"max_reauths"`
}

// Load reads and parses the YAML config file at path, expands environment
// variables, applies defaults, validates, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables so secrets can live outside the file.
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		FilterState:  strings.ToUpper(raw.FilterState),
		PostPeriod:   raw.PostPeriod,
		PageSize:     raw.PageSize,
		Notification: raw.Notification,
		Proxy:        raw.Proxy,
		OutputDir:    raw.OutputDir,
		DBPath:       raw.DBPath,
		LockFile:     raw.LockFile,
	}

	if cfg.FilterState == "" {
		cfg.FilterState = "TX"
	}
	if cfg.PostPeriod == "" {
		cfg.PostPeriod = "PAST_24_HOURS"
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 25
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "jobs.db"
	}
	if cfg.LockFile == "" {
		cfg.LockFile = ".rhwatch.lock"
	}

	cfg.Interval, err = parseDuration(raw.Interval, 4*time.Hour, "interval")
	if err != nil {
		return nil, err
	}

	cfg.Search = SearchConfig{
		URL:      orDefault(raw.Search.URL, defaultSearchURL),
		Referer:  orDefault(raw.Search.Referer, defaultReferer),
		Origin:   orDefault(raw.Search.Origin, defaultOrigin),
		Source:   raw.Search.Source,
		LobIDs:   raw.Search.LobIDs,
		Distance: orDefault(raw.Search.Distance, "50"),
	}
	if len(cfg.Search.Source) == 0 {
		cfg.Search.Source = []string{"Salesforce"}
	}
	if len(cfg.Search.LobIDs) == 0 {
		cfg.Search.LobIDs = []string{"RHT"}
	}
	cfg.Search.Timeout, err = parseDuration(raw.Search.Timeout, 30*time.Second, "search.timeout")
	if err != nil {
		return nil, err
	}

	cfg.Session = SessionConfig{
		File:            orDefault(raw.Session.File, ".session/session_data.json"),
		Save:            raw.Session.Save == nil || *raw.Session.Save,
		RotateUserAgent: raw.Session.RotateUserAgent,
		UserAgent:       orDefault(raw.Session.UserAgent, defaultUserAgent),
	}
	cfg.Session.MaxAge, err = parseDuration(raw.Session.MaxAge, 12*time.Hour, "session.max_age")
	if err != nil {
		return nil, err
	}

	cfg.Browser = BrowserConfig{
		LoginURL: orDefault(raw.Browser.LoginURL, defaultLoginURL),
		Headless: raw.Browser.Headless == nil || *raw.Browser.Headless,
		Username: raw.Browser.Username,
		Password: raw.Browser.Password,
	}
	cfg.Browser.Timeout, err = parseDuration(raw.Browser.Timeout, 60*time.Second, "browser.timeout")
	if err != nil {
		return nil, err
	}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: raw.RateLimit.RequestsPerSecond,
		Burst:             raw.RateLimit.Burst,
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 0.5
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 1
	}
	cfg.RateLimit.PageDelayMin, err = parseDuration(raw.RateLimit.PageDelayMin, 5*time.Second, "rate_limit.page_delay_min")
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.PageDelayMax, err = parseDuration(raw.RateLimit.PageDelayMax, 15*time.Second, "rate_limit.page_delay_max")
	if err != nil {
		return nil, err
	}

	cfg.Retry = RetryConfig{
		MaxRetries: raw.Retry.MaxRetries,
		MaxReauths: raw.Retry.MaxReauths,
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.MaxReauths == 0 {
		cfg.Retry.MaxReauths = 2
	}
	cfg.Retry.BaseDelay, err = parseDuration(raw.Retry.BaseDelay, 5*time.Second, "retry.base_delay")
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if len(cfg.FilterState) != 2 {
		return fmt.Errorf("filter_state must be a two-letter state code, got %q", cfg.FilterState)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", cfg.PageSize)
	}
	if cfg.RateLimit.PageDelayMin > cfg.RateLimit.PageDelayMax {
		return fmt.Errorf("rate_limit.page_delay_min (%v) exceeds page_delay_max (%v)",
			cfg.RateLimit.PageDelayMin, cfg.RateLimit.PageDelayMax)
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be positive, got %v", cfg.Session.MaxAge)
	}
	if cfg.Notification.Type == "pushover" {
		if cfg.Notification.PushoverToken == "" || cfg.Notification.PushoverUser == "" {
			return fmt.Errorf("notification.pushover_token and notification.pushover_user are required when type is \"pushover\"")
		}
	}
	if cfg.Proxy.Enabled {
		if cfg.Proxy.Server == "" {
			return fmt.Errorf("proxy.server is required when proxy.enabled is true")
		}
		if cfg.Proxy.Auth != "" {
			if _, _, ok := cfg.Proxy.Credentials(); !ok {
				return fmt.Errorf("proxy.auth must be in username:password form")
			}
		}
	}
	return nil
}
