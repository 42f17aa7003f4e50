package ports

import (
	"context"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// VectorDB defines the interface for vector database operations.
type VectorDB interface {
	// Save stores an entry with its embedding.
	Save(ctx context.Context, entry entities.HistoryEntry, embedding []float32) error

	// Search performs a semantic search and returns similar submissions.
	Search(ctx context.Context, embedding []float32, limit int) ([]entities.SimilarSubmission, error)

	// Count returns the number of indexed entries.
	Count(ctx context.Context) (uint64, error)

	// DeleteAll removes every indexed entry.
	DeleteAll(ctx context.Context) error
}
