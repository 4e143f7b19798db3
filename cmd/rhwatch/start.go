package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/scheduler"
	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scrape daemon",
	Long:  "Runs one immediate scrape, then repeats on the configured interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.Interval.String(),
		"state", cfg.FilterState,
		"posted_within", cfg.PostPeriod,
	)

	lock := flock.New(cfg.LockFile)
	locked, err := lock.TryLock()
	if err != nil || !locked {
		logger.Error("another instance is already running", "path", cfg.LockFile, "error", err)
		os.Exit(1)
	}
	defer lock.Unlock()

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	p, err := buildPipeline(cfg, sqlStore, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(p.runOnce, cfg.Interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
