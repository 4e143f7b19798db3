package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/adapter"
	"github.com/JosephStocks/roberthalf-scraper/internal/aggregate"
	"github.com/JosephStocks/roberthalf-scraper/internal/auth"
	"github.com/JosephStocks/roberthalf-scraper/internal/config"
	"github.com/JosephStocks/roberthalf-scraper/internal/filter"
	"github.com/JosephStocks/roberthalf-scraper/internal/model"
	"github.com/JosephStocks/roberthalf-scraper/internal/notifier"
	"github.com/JosephStocks/roberthalf-scraper/internal/paginator"
	"github.com/JosephStocks/roberthalf-scraper/internal/ratelimit"
	"github.com/JosephStocks/roberthalf-scraper/internal/report"
	"github.com/JosephStocks/roberthalf-scraper/internal/retry"
	"github.com/JosephStocks/roberthalf-scraper/internal/secrets"
	"github.com/JosephStocks/roberthalf-scraper/internal/session"
	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "rhwatch",
	Short: "Robert Half job watcher",
	Long:  "rhwatch scrapes the Robert Half job search behind your login and alerts you to new postings.",
	// Default to `run` so that `rhwatch` with no args does a one-shot scrape.
	// This keeps cron entries that invoke the binary directly working.
	RunE: runOnceCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: RHWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > RHWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("RHWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "pushover":
		logger.Info("using pushover notifier")
		return notifier.NewPushoverNotifier(
			cfg.Notification.PushoverToken,
			cfg.Notification.PushoverUser,
			cfg.FilterState,
			httpClient,
			logger,
		)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// pipeline is the assembled scrape machinery for one process: session
// lifecycle, fetch chain, aggregation, persistence, reporting, notification.
type pipeline struct {
	cfg      *config.Config
	sessions *session.Manager
	agg      *aggregate.Aggregator
	jobStore store.Store
	reporter *report.Writer
	notify   model.Notifier
	logger   *slog.Logger
}

func buildPipeline(cfg *config.Config, jobStore store.Store, logger *slog.Logger) (*pipeline, error) {
	httpClient, err := adapter.NewHTTPClient(cfg.Search.Timeout, cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	search := adapter.NewSearchClient(cfg.Search, httpClient, logger)

	// Probe requests bypass throttling and retry: a validation check should
	// answer fast, and a transient failure just means a fresh login.
	streams := cfg.Streams()
	validator := session.NewProbeValidator(search, streams[0], logger)

	browserCfg := cfg.Browser
	if creds, err := secrets.Resolve(browserCfg.Username, browserCfg.Password); err == nil {
		browserCfg.Password = creds.Password
	} else {
		logger.Debug("no stored credentials resolved", "error", err)
	}
	userAgent := auth.UserAgentSource(cfg.Session.RotateUserAgent, cfg.Session.UserAgent)
	authn := auth.NewBrowserAuthenticator(browserCfg, cfg.Proxy, userAgent, logger)

	fileStore := session.NewFileStore(cfg.Session.File, cfg.Session.Save, logger)
	sessions := session.NewManager(fileStore, validator, authn, cfg.Session.MaxAge, nil, logger)

	throttled := ratelimit.NewThrottledFetcher(search,
		cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst,
		cfg.RateLimit.PageDelayMin, cfg.RateLimit.PageDelayMax, logger)
	fetchChain := retry.NewRetryFetcher(throttled, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)

	jobFilter := filter.NewStateOrRemoteFilter(cfg.FilterState)
	pager := paginator.NewPaginator(fetchChain, jobFilter, logger)
	agg := aggregate.NewAggregator(sessions, pager, streams, cfg.Retry.MaxReauths, logger)

	return &pipeline{
		cfg:      cfg,
		sessions: sessions,
		agg:      agg,
		jobStore: jobStore,
		reporter: report.NewWriter(cfg.OutputDir, logger),
		notify:   setupNotifier(cfg, httpClient, logger),
		logger:   logger,
	}, nil
}

// runOnce executes a full scrape cycle: aggregate, persist, report, notify.
func (p *pipeline) runOnce(ctx context.Context) error {
	// Checked before RecordRun: a first run would flag every posting as new
	// and flood the notifier.
	firstRun, err := p.jobStore.IsEmpty()
	if err != nil {
		return fmt.Errorf("checking store: %w", err)
	}

	result, err := p.agg.Run(ctx)
	if err != nil {
		return fmt.Errorf("aggregation: %w", err)
	}

	newJobs, err := p.jobStore.RecordRun(result)
	if err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}

	if path, err := p.reporter.Write(result, newJobs); err != nil {
		p.logger.Error("failed to write report", "error", err)
	} else {
		p.logger.Info("run recorded", "report", path, "jobs", len(result.Jobs), "new", len(newJobs))
	}

	if firstRun {
		p.logger.Info("first run, suppressing notifications", "jobs", len(result.Jobs))
		return nil
	}
	if err := p.notify.Notify(result, newJobs); err != nil {
		p.logger.Error("notification failed", "error", err)
	}
	return nil
}
