package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/audit"
	"github.com/JosephStocks/roberthalf-scraper/internal/store"
)

// How many recent runs the picker offers.
const auditRunLimit = 50

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse recorded runs interactively (TUI)",
	Long:  "Shows the run picker TUI over recorded history, then launches the split-pane job browser.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
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

	runs, err := sqlStore.ListRuns(auditRunLimit)
	if err != nil {
		logger.Error("failed to list runs", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs yet. Run a scrape first.")
		return nil
	}

	for {
		choice, err := audit.RunPicker(runs)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		run := runs[choice]

		allJobs, err := sqlStore.JobsForRun(run.ID)
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}
		newJobs, err := sqlStore.NewJobsForRun(run.ID)
		if err != nil {
			fmt.Printf("Error loading new jobs: %v\n", err)
			continue
		}

		wantQuit, err := audit.RunTUI(allJobs, newJobs)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
