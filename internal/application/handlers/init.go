// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/newscheck/internal/domain/ports"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
	embedder "github.com/ersonp/newscheck/internal/infrastructure/embedder/openai"
)

// InitHandler writes the default configuration and prepares storage.
type InitHandler struct {
	archive           ports.HistoryArchive
	collectionManager ports.CollectionManager
}

// NewInitHandler creates a new init handler. Either dependency may be nil.
func NewInitHandler(archive ports.HistoryArchive, collectionManager ports.CollectionManager) *InitHandler {
	return &InitHandler{
		archive:           archive,
		collectionManager: collectionManager,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	ArchiveReady   bool
	CollectionName string
}

// Handle writes the default config to path and creates the archive schema
// and vector collection when they are configured.
func (h *InitHandler) Handle(ctx context.Context, path string) (*InitResult, error) {
	if config.Exists(path) {
		return nil, fmt.Errorf("newscheck already initialized: %s exists", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{ConfigPath: path}

	if h.archive != nil {
		if err := h.archive.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating archive schema: %w", err)
		}
		result.ArchiveReady = true
	}

	if h.collectionManager != nil {
		size, err := embedder.Dimensions(cfg.Embedder.Model)
		if err != nil {
			return nil, fmt.Errorf("resolving vector size: %w", err)
		}
		if err := h.collectionManager.EnsureCollection(ctx, size); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = cfg.Qdrant.Collection
	}

	return result, nil
}
