package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ersonp/newscheck/internal/application/handlers"
	"github.com/ersonp/newscheck/internal/domain/ports"
	"github.com/ersonp/newscheck/internal/domain/services"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
	"github.com/ersonp/newscheck/internal/infrastructure/embedder/cached"
	embedder "github.com/ersonp/newscheck/internal/infrastructure/embedder/openai"
	"github.com/ersonp/newscheck/internal/infrastructure/fetcher"
	llm "github.com/ersonp/newscheck/internal/infrastructure/llm/openai"
	"github.com/ersonp/newscheck/internal/infrastructure/logging"
	"github.com/ersonp/newscheck/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/newscheck/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers and the session orchestrator are exposed.
type Deps struct {
	Config            *config.Config
	Logger            *zap.Logger
	Analysis          *services.AnalysisService
	AnalyzeHandler    *handlers.AnalysisHandler
	HistoryHandler    *handlers.HistoryHandler
	SimilarityHandler *handlers.SimilarityHandler

	classifier ports.Classifier
	archive    ports.HistoryArchive
	similarity *services.SimilarityService
}

// BatchHandler builds a batch handler. workers <= 0 uses the configured count.
func (d *Deps) BatchHandler(workers int) *handlers.BatchHandler {
	if workers <= 0 {
		workers = d.Config.Batch.Workers
	}
	batch := services.NewBatchService(d.classifier, workers, d.Logger)
	return handlers.NewBatchHandler(batch, d.archive, d.similarity, d.Logger)
}

// loadConfig loads configuration from the --config path or the default.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	archive, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer archive.Close()

	if err := archive.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	similarity, closeIndex, err := buildSimilarity(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndex()

	opts := []services.AnalysisOption{
		services.WithLatency(cfg.Analysis.Latency()),
		services.WithArchive(archive),
		services.WithLogger(logger),
	}
	if similarity.Enabled() {
		opts = append(opts, services.WithIndexer(similarity))
	}
	analysis := services.NewAnalysisService(services.NewStore(), classifier, opts...)

	logger.Debug("dependencies ready",
		zap.String("classifier", classifier.Name()),
		zap.String("archive", archive.Path()),
		zap.Bool("similarity", similarity.Enabled()),
	)

	return fn(&Deps{
		Config:            cfg,
		Logger:            logger,
		Analysis:          analysis,
		AnalyzeHandler:    handlers.NewAnalysisHandler(analysis, fetcher.New(cfg.Fetch)),
		HistoryHandler:    handlers.NewHistoryHandler(archive, similarity),
		SimilarityHandler: handlers.NewSimilarityHandler(similarity),
		classifier:        classifier,
		archive:           archive,
		similarity:        similarity,
	})
}

func buildClassifier(cfg *config.Config) (ports.Classifier, error) {
	switch cfg.Analysis.Classifier {
	case config.ClassifierOpenAI:
		c, err := llm.NewClassifier(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("creating llm classifier: %w", err)
		}
		return c, nil
	default:
		return services.NewHeuristicClassifier(), nil
	}
}

// buildSimilarity returns nil when the index is disabled or unreachable.
// Similarity is optional, so connection problems only log a warning.
func buildSimilarity(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.SimilarityService, func(), error) {
	noop := func() {}
	if !cfg.Qdrant.Enabled {
		return nil, noop, nil
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		logger.Warn("similarity disabled", zap.Error(err))
		return nil, noop, nil
	}

	repo, err := qdrant.NewRepository(cfg.Qdrant)
	if err != nil {
		return nil, noop, fmt.Errorf("creating qdrant repository: %w", err)
	}

	if err := repo.EnsureCollection(ctx, emb.Dimensions()); err != nil {
		logger.Warn("similarity disabled", zap.String("collection", cfg.Qdrant.Collection), zap.Error(err))
		repo.Close()
		return nil, noop, nil
	}

	closer := func() { _ = repo.Close() }
	return services.NewSimilarityService(cached.New(emb, cfg.Embedder.CacheTTL()), repo), closer, nil
}
