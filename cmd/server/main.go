package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trustdot/reputation/internal/app"
	"github.com/trustdot/reputation/internal/config"
	"github.com/trustdot/reputation/pkg/logger"
)

func main() {
	// Load configuration from environment variables and an optional .env file.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("reputation-service", cfg.LogLevel)
	log.Info("starting reputation service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("upvote_store", cfg.UpvoteStore),
		slog.Bool("events_enabled", cfg.EventsEnabled),
		slog.Bool("score_refresh_enabled", cfg.ScoreRefreshEnabled),
	)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		log.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("reputation service stopped")
}
