// Package main is the entry point for the livechart server
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"livechart/internal/cli"
	"livechart/internal/config"
	"livechart/internal/logging"
	"livechart/internal/telemetry"
	"livechart/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found or error loading it: %v", err)
	}

	// Configuration errors are reported by the commands that need it
	cfg, cfgErr := config.Load()

	if cfg != nil && cfg.LogDir != "" {
		if err := logging.Initialize(cfg.LogDir); err != nil {
			logging.Warning("Failed to initialize file logging: %v", err)
		} else {
			defer logging.Close() //nolint:errcheck // exiting
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if telemetry.Enabled() {
		shutdown, err := telemetry.Initialize(ctx, telemetry.ConfigFromEnv(version.Get().Version))
		if err != nil {
			logging.Warning("Failed to initialize telemetry: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Error shutting down telemetry: %v", err)
				}
			}()
		}
	}

	return cli.ExecuteContext(ctx, args, cli.NewManager(cfg, cfgErr), os.Stdout, os.Stderr)
}
