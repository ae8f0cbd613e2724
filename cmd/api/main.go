package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/provoco/clauseadvisor/internal/adapters/http"
	"github.com/provoco/clauseadvisor/internal/bootstrap"
	"github.com/provoco/clauseadvisor/internal/config"
	"github.com/provoco/clauseadvisor/internal/observability/logging"
	"github.com/provoco/clauseadvisor/internal/observability/metrics"
)

const serviceName = "clause-advisor-api"

func main() {
	cfg := config.Load()
	logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(
		app.ClassifyUC,
		app.RecommendUC,
		app.History,
		app.OutputDir,
		httpadapter.FrontendConfig{
			Enabled:  cfg.FrontendEnabled,
			Username: cfg.FrontendUsername,
			Password: cfg.FrontendPassword,
		},
		serverMetrics,
		serviceName,
	)
	handler := router.Handler(httpadapter.TrafficConfig{
		RateLimitRPS:      cfg.APIRateLimitRPS,
		RateLimitBurst:    cfg.APIRateLimitBurst,
		MaxInFlight:       cfg.APIMaxInFlight,
		RetryAfterSeconds: cfg.APIRetryAfterSeconds,
	})

	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: handler,
		// Both pipelines block on remote model calls; write timeout must
		// outlast the slowest completion round trip.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
