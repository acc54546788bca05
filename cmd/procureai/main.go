package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"ProcureAI/internal/app"
	"ProcureAI/internal/config"
	"ProcureAI/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background inbox sync",
		RunE:  runServe,
	}

	root := &cobra.Command{
		Use:           "procureai",
		Short:         "AI-assisted RFP management service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		serve,
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and seed the vendor directory",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Poll the inbox once and ingest vendor replies",
			RunE:  runSync,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	db, _, err := app.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("migration failed", "error", err)
		return err
	}
	logger.Info("database is up to date")
	return db.Close()
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		return err
	}
	defer application.Close()

	result, err := application.SyncOnce(ctx)
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d processed=%d skipped=%d\n", result.Candidates, result.Processed, result.Skipped)
	return nil
}
