package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akulagin/docflow/internal/bootstrap"
	"github.com/akulagin/docflow/internal/config"
	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
	"github.com/akulagin/docflow/internal/core/usecase"
	"github.com/akulagin/docflow/internal/infrastructure/llm/groq"
	"github.com/akulagin/docflow/internal/notify"
	"github.com/akulagin/docflow/internal/observability/metrics"
)

const serviceName = "docflow-worker"

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

	classify := usecase.NewClassifyDocumentUseCase(app.Repo, groq.NewClassifier(app.Groq), app.Bus)
	summarize := usecase.NewSummarizeDocumentUseCase(app.Repo, groq.NewSummarizer(app.Groq), app.Bus)
	score := usecase.NewScoreDocumentUseCase(app.Repo, groq.NewRiskAssessor(app.Groq), app.Bus)
	notifier := notify.NewLogNotifier(app.Logger)

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	subscriptions := []struct {
		topic    string
		stage    string
		executor ports.StageExecutor
	}{
		{domain.TopicDocumentUploaded, "classify", classify},
		{domain.TopicDocumentClassified, "summarize", summarize},
		{domain.TopicDocumentSummarized, "score", score},
		{domain.TopicDocumentReviewed, "notify", ports.StageExecutorFunc(notifier.HandleReviewed)},
		{domain.TopicDocumentAutodecided, "notify", ports.StageExecutorFunc(notifier.HandleAutodecided)},
	}
	for _, sub := range subscriptions {
		handler := instrumentStage(pipelineMetrics, sub.stage, sub.executor)
		if err := app.Bus.Subscribe(sub.topic, handler); err != nil {
			slog.Error("subscribe_failed", "topic", sub.topic, "error", err)
			os.Exit(1)
		}
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           pipelineMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		app.Logger.Info("worker_metrics_listening", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics_server_failed", "error", err)
		}
	}()

	app.Logger.Info("worker_started", slog.String("queue_group", cfg.NATSQueueGroup))
	if err := app.Bus.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	app.Logger.Info("worker_stopped")
}

func instrumentStage(m *metrics.PipelineMetrics, stage string, executor ports.StageExecutor) ports.EventHandler {
	return func(ctx context.Context, data []byte) error {
		// Every pipeline event carries its publish timestamp; the gap to
		// now is how long the delivery sat on the bus.
		var envelope struct {
			EmittedAt time.Time `json:"emitted_at"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && !envelope.EmittedAt.IsZero() {
			m.ObserveQueueLag(serviceName, stage, time.Since(envelope.EmittedAt))
		}

		start := time.Now()
		m.StartStage(stage)
		err := executor.HandleEvent(ctx, data)
		m.FinishStage(serviceName, stage, time.Since(start), err)
		return err
	}
}
