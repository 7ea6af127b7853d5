package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/akulagin/docflow/internal/adapters/http"
	"github.com/akulagin/docflow/internal/bootstrap"
	"github.com/akulagin/docflow/internal/config"
	"github.com/akulagin/docflow/internal/core/usecase"
	"github.com/akulagin/docflow/internal/observability/metrics"
)

const serviceName = "docflow-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	app, err := bootstrap.New(ctx, serviceName, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	ingestor := usecase.NewIngestDocumentUseCase(app.Repo, app.Storage, app.Bus, app.Extractor, cfg.UploadMaxBytes)
	reader := usecase.NewQueryDocumentsUseCase(app.Repo)
	reviewer := usecase.NewReviewDocumentUseCase(app.Repo, app.Bus)
	remover := usecase.NewRemoveDocumentUseCase(app.Repo)

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(ingestor, reader, reviewer, remover, httpadapter.RouterOptions{
		Logger:        app.Logger,
		Metrics:       httpMetrics,
		RateLimitRPS:  cfg.APIRateLimitRPS,
		RateBurst:     cfg.APIRateLimitBurst,
		MaxConcurrent: cfg.APIMaxConcurrent,
		ListLimit:     cfg.ListDefaultLimit,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", httpMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("api_listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("shutdown_signal_received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server_failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_failed", "error", err)
	}
	app.Logger.Info("api_stopped")
}
