package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soconail/lead-relay/internal/api/router"
	appconfig "github.com/soconail/lead-relay/internal/config"
	"github.com/soconail/lead-relay/internal/leadqueue"
	"github.com/soconail/lead-relay/internal/observability/metrics"
	"github.com/soconail/lead-relay/internal/webhook"
	"github.com/soconail/lead-relay/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-relay API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// State lives in the conversation store; without DATABASE_URL the server
	// falls back to an empty in-memory store for local development.
	var repo leadqueue.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = leadqueue.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory conversation store")
		repo = leadqueue.NewInMemoryRepository()
	}

	registry := prometheus.NewRegistry()
	deliveryMetrics := metrics.NewDeliveryMetrics(registry)

	sender := webhook.New(webhook.Config{
		Timeout: cfg.WebhookTimeout,
		Logger:  logger,
	})
	inspector := leadqueue.NewInspector(repo)
	dispatcher := leadqueue.NewDispatcher(repo, sender, logger).
		WithDelay(cfg.DispatchDelay).
		WithSource(cfg.WebhookSource).
		WithMetrics(deliveryMetrics)

	queueHandler := leadqueue.NewHandler(inspector, dispatcher, repo, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		QueueHandler:       queueHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Dispatch runs are synchronous and scale with backlog size, so the
	// write timeout is generous compared to the read side.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
