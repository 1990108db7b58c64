package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/expense-forecast-go/internal/config"
	"github.com/boddenberg/expense-forecast-go/internal/handler"
	"github.com/boddenberg/expense-forecast-go/internal/infra/client"
	"github.com/boddenberg/expense-forecast-go/internal/infra/observability"
	"github.com/boddenberg/expense-forecast-go/internal/infra/resilience"
	"github.com/boddenberg/expense-forecast-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	// --- Config ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("transactions_api_url", cfg.TransactionsAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Int("min_training_months", cfg.MinTrainingMonths),
		zap.Int("max_forecast_months", cfg.MaxForecastMonths),
	)

	// --- Tracing ---
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, cfg.ServiceName)
		if err != nil {
			logger.Fatal("failed to init tracer", zap.Error(err))
		}
		defer shutdown(context.Background())
		logger.Info("tracing enabled", zap.String("otlp_endpoint", cfg.OTLPEndpoint))
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("transactions-api", logger)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	transactionsClient := client.NewTransactionsClient(httpClient, cfg.TransactionsAPIURL, cb, resilienceCfg)

	// --- Services ---
	forecastSvc := service.NewForecastService(transactionsClient, metrics, logger, service.Options{
		MinTrainingMonths:     cfg.MinTrainingMonths,
		MaxForecastMonths:     cfg.MaxForecastMonths,
		DefaultForecastMonths: cfg.DefaultForecastMonths,
		MaxConcurrency:        cfg.MaxConcurrency,
	})

	// --- Router ---
	router := handler.NewRouter(forecastSvc, cb, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
