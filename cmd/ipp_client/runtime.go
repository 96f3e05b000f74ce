package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/config"
	"github.com/jonathan/ipp-client/internal/logging"
	"github.com/jonathan/ipp-client/internal/report"
)

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(os.Stderr, logging.FormatForEnv(cfg.AppEnv), cfg.Verbose)
}

// withApp builds the application context, runs fn and closes the context, flushing
// pending drafts.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Context) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := cmd.Context()
	a, err := app.New(ctx, *cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open local state: %w", err)
	}
	runErr := fn(ctx, a)
	if err := a.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("cli.close.failed", "error", err)
	}
	return runErr
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

func printer(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(stdout(cmd))
}
