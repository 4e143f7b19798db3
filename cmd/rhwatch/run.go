package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape once and exit",
	Long:  "One-shot scrape: fetches every stream, records the run, writes the report, sends notifications, exits.",
	RunE:  runOnceCmd,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "scrape but persist nothing; every job counts as new")
	rootCmd.AddCommand(runCmd)
}

func runOnceCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"state", cfg.FilterState,
		"page_size", cfg.PageSize,
		"posted_within", cfg.PostPeriod,
		"output_dir", cfg.OutputDir,
	)

	// A file lock prevents a cron overlap from running two scrapes against the
	// same session file.
	lock := flock.New(cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("failed to acquire lock", "path", cfg.LockFile, "error", err)
		os.Exit(1)
	}
	if !locked {
		logger.Error("another run is already in progress", "path", cfg.LockFile)
		os.Exit(1)
	}
	defer lock.Unlock()

	var jobStore store.Store
	if dryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
		jobStore = store.NewNopStore()
	} else {
		sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		jobStore = sqlStore
	}

	p, err := buildPipeline(cfg, jobStore, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.runOnce(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete")
	return nil
}
