package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/waddle/internal/analysis"
	"github.com/MikeSquared-Agency/waddle/internal/api"
	"github.com/MikeSquared-Agency/waddle/internal/config"
	"github.com/MikeSquared-Agency/waddle/internal/hermes"
	"github.com/MikeSquared-Agency/waddle/internal/processor"
	"github.com/MikeSquared-Agency/waddle/internal/store"
)

const workerQueue = "waddle"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the NATS analysis worker",
		Long:  `Serves the analysis API. Postgres (DATABASE_URL) and NATS (NATS_URL) are optional: without a database analyses are not kept, without NATS no worker is started.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	logger, closeLog := config.SetupLogger(cfg, true)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("waddle starting", "port", cfg.Port, "timezone", cfg.Timezone)

	// Database
	var st processor.Store
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		st = db
		logger.Info("database connected")
	} else {
		logger.Warn("DATABASE_URL not set, analyses will not be stored")
	}

	// NATS/Hermes
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer hermesClient.Close()
		logger.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		logger.Warn("NATS_URL not set, running without the analysis worker")
	}

	var pub processor.Publisher
	if hermesClient != nil {
		pub = hermesClient
	}
	proc := processor.New(st, pub, cfg.Timezone, logger)

	if hermesClient != nil {
		if err := hermesClient.QueueSubscribe(analysis.SubjectRequested, workerQueue, proc.HandleAnalysisRequested); err != nil {
			return err
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, cfg.MaxUploadBytes(), proc, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Announce registration
	if hermesClient != nil {
		if err := hermesClient.Publish(analysis.SubjectRegistered, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
			"version":   version,
		}); err != nil {
			logger.Warn("failed to publish registration", "error", err)
		}
	}

	logger.Info("waddle ready", "port", cfg.Port, "store", st != nil, "nats", hermesClient != nil)

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	logger.Info("waddle stopped")
	return nil
}
