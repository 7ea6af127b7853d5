package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/akulagin/docflow/internal/config"
	natsbus "github.com/akulagin/docflow/internal/infrastructure/bus/nats"
	"github.com/akulagin/docflow/internal/infrastructure/extractor/plaintext"
	"github.com/akulagin/docflow/internal/infrastructure/llm/groq"
	"github.com/akulagin/docflow/internal/infrastructure/repository/postgres"
	"github.com/akulagin/docflow/internal/infrastructure/resilience"
	"github.com/akulagin/docflow/internal/infrastructure/storage/localfs"
	"github.com/akulagin/docflow/internal/observability/logging"
)

// App owns the process-wide dependencies shared by the API and the worker.
type App struct {
	Config config.Config
	Logger *slog.Logger

	DB        *sql.DB
	Repo      *postgres.DocumentRepository
	Bus       *natsbus.Bus
	Storage   *localfs.Storage
	Extractor *plaintext.Extractor
	Executor  *resilience.Executor
	Groq      *groq.Client
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(logger)

	executorCfg := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		executorCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	executor := resilience.NewExecutor(executorCfg)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}

	bus, err := natsbus.New(cfg.NATSURL, natsbus.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init event bus: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Repo:      repo,
		Bus:       bus,
		Storage:   storage,
		Extractor: plaintext.NewExtractor(),
		Executor:  executor,
		Groq:      groq.New(cfg.GroqURL, cfg.GroqModel, cfg.GroqAPIKey, executor),
	}, nil
}

func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
