// Package main is the entry point for the lorekeeper server and CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lorekeeper/app/internal/app/bootstrap"
	"lorekeeper/app/internal/platform/config"
	applog "lorekeeper/app/internal/platform/log"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lorekeeper",
	Short: "Community wiki and Lord of Mysteries lore service",
	Long: `lorekeeper keeps a per-community wiki with aliases and search, and looks up
characters, pathways and facts on the Lord of Mysteries fandom wiki.

Run "lorekeeper serve" for the HTTP API. The export and import commands move
the wiki document between the configured backend and a JSON file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return eris.Wrapf(err, "loading env file: %s", envFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading configuration")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the components every command needs.
type app struct {
	config *config.Config
	logger *logrus.Logger
	result bootstrap.Result
	close  func()
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
	if err != nil {
		return nil, eris.Wrap(err, "failure initialising sentry")
	}

	result, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		flush()
		return nil, eris.Wrap(err, "building application")
	}

	return &app{
		config: cfg,
		logger: logger,
		result: result,
		close: func() {
			if closeErr := result.Cleanup(); closeErr != nil {
				logger.WithError(closeErr).Error("closing application resources")
			}
			flush()
		},
	}, nil
}
