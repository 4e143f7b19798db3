package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JosephStocks/roberthalf-scraper/internal/adapter"
	"github.com/JosephStocks/roberthalf-scraper/internal/model"
	"github.com/JosephStocks/roberthalf-scraper/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Session subcommands",
}

var sessionValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check whether the persisted session is still usable",
	Long:  "Loads the persisted session, checks its age, and issues a one-job probe against the search API.",
	RunE:  runSessionValidate,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the persisted session",
	Long:  "Removes the session file so the next run performs a fresh login.",
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionValidateCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func runSessionValidate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fileStore := session.NewFileStore(cfg.Session.File, cfg.Session.Save, logger)
	sess, err := fileStore.Load()
	if errors.Is(err, model.ErrNoSession) {
		fmt.Println("no persisted session")
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to load session", "error", err)
		os.Exit(1)
	}

	age := time.Since(sess.AcquiredAt).Round(time.Minute)
	fmt.Printf("session acquired %s (%s ago, max age %s)\n",
		sess.AcquiredAt.Local().Format("2006-01-02 15:04"), age, cfg.Session.MaxAge)
	if !sess.Fresh(cfg.Session.MaxAge, time.Now()) {
		fmt.Println("session is stale")
		os.Exit(1)
	}

	httpClient, err := adapter.NewHTTPClient(cfg.Search.Timeout, cfg.Proxy)
	if err != nil {
		logger.Error("failed to build http client", "error", err)
		os.Exit(1)
	}
	search := adapter.NewSearchClient(cfg.Search, httpClient, logger)
	validator := session.NewProbeValidator(search, cfg.Streams()[0], logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Search.Timeout)
	defer cancel()
	if !validator.Usable(ctx, sess) {
		fmt.Println("session rejected by server")
		os.Exit(1)
	}

	fmt.Println("session is valid")
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	fileStore := session.NewFileStore(cfg.Session.File, cfg.Session.Save, logger)
	if err := fileStore.Clear(); err != nil {
		logger.Error("failed to clear session", "error", err)
		os.Exit(1)
	}
	fmt.Println("session cleared")
	return nil
}
