package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquasense/aquasense/db"
	"github.com/aquasense/aquasense/internal/config"
	"github.com/aquasense/aquasense/internal/knowledge"
	"github.com/aquasense/aquasense/internal/orchestrator"
	"github.com/aquasense/aquasense/internal/predict"
	"github.com/aquasense/aquasense/internal/report"
	"github.com/aquasense/aquasense/internal/session"
	"github.com/aquasense/aquasense/internal/tools"
)

// app holds the wired application stack shared by serve and ask.
type app struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *tools.Registry
	Sessions     session.Store
	Pool         *pgxpool.Pool // nil with memory storage
}

// Close releases the database pool, if any.
func (a *app) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// setup wires sessions, knowledge, tools and the orchestrator from config.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var (
		pool      *pgxpool.Pool
		sessions  session.Store
		documents tools.RetrieverService
	)

	embedder := newEmbedder(cfg, logger)

	switch cfg.Storage {
	case config.StoragePostgres:
		if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		p, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return nil, fmt.Errorf("creating connection pool: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}
		pool = p
		sessions = session.NewPostgresStore(pool, logger)
		documents = knowledge.NewStore(pool, embedder, logger)

	case config.StorageMemory:
		sessions = session.NewMemoryStore(cfg.TranscriptLimit)
		store := knowledge.NewMemoryStore(embedder)
		if err := seedKnowledge(ctx, store); err != nil {
			return nil, fmt.Errorf("seeding knowledge base: %w", err)
		}
		documents = store

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	predictor := predict.NewClient(cfg.PredictorURL, logger)
	reporter := report.NewGenerator(logger)

	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		tools.NewRetriever(documents, cfg.RetrieverTopK, logger),
		tools.NewPredictor(predictor, logger),
		tools.NewSynthesizer(reporter, logger),
	} {
		if err := registry.Register(tool); err != nil {
			if pool != nil {
				pool.Close()
			}
			return nil, fmt.Errorf("registering tool: %w", err)
		}
	}

	orch := orchestrator.New(
		sessions,
		orchestrator.NewKeywordClassifier(),
		orchestrator.NewExecutor(registry, cfg.ToolTimeout(), logger),
		orchestrator.NewComposer(logger),
		logger,
	)

	return &app{
		Orchestrator: orch,
		Registry:     registry,
		Sessions:     sessions,
		Pool:         pool,
	}, nil
}

// newEmbedder prefers the external embedding service; without one the
// deterministic hash embedder keeps retrieval working offline.
func newEmbedder(cfg *config.Config, logger *slog.Logger) knowledge.Embedder {
	if cfg.EmbedderURL != "" {
		return knowledge.NewHTTPEmbedder(cfg.EmbedderURL)
	}
	logger.Debug("no embedder URL configured, using hash embedder")
	return knowledge.NewHashEmbedder(knowledge.EmbeddingDim)
}
