package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List the configured query streams",
	Long:  "Reads the config and prints the query streams a run would execute.",
	RunE:  runStreams,
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}

func runStreams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-10s %-8s %-10s %-14s %s\n", "Stream", "Remote", "Distance", "Posted Within", "Page Size")
	fmt.Println(strings.Repeat("─", 58))

	for _, s := range cfg.Streams() {
		fmt.Printf("%-10s %-8s %-10s %-14s %d\n", s.Label, s.Remote, s.Distance, s.PostedWithin, s.PageSize)
	}

	fmt.Printf("\nFilter: %s or US remote · sort %s\n", cfg.FilterState, "PUBLISHED_DATE_DESC")
	return nil
}
