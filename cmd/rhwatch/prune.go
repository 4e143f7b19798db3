package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale jobs from the database",
	Long:  "Removes jobs last seen before the cutoff, keeping everything from the most recent run.",
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "delete jobs last seen longer ago than this")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	if err := sqlStore.Cleanup(pruneOlderThan); err != nil {
		logger.Error("prune failed", "error", err)
		os.Exit(1)
	}
	logger.Info("prune complete", "older_than", pruneOlderThan)
	return nil
}
