package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/services"
)

// SimilarityHandler handles similarity lookups.
type SimilarityHandler struct {
	similarity *services.SimilarityService
}

// NewSimilarityHandler creates a new similarity handler.
func NewSimilarityHandler(similarity *services.SimilarityService) *SimilarityHandler {
	return &SimilarityHandler{
		similarity: similarity,
	}
}

// SimilarResult contains the result of a lookup.
type SimilarResult struct {
	Query   string
	Matches []entities.SimilarSubmission
}

// Enabled reports whether lookups can be served.
func (h *SimilarityHandler) Enabled() bool {
	return h.similarity.Enabled()
}

// Handle finds archived submissions similar to text.
func (h *SimilarityHandler) Handle(ctx context.Context, text string, limit int) (*SimilarResult, error) {
	matches, err := h.similarity.Similar(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("finding similar submissions: %w", err)
	}

	return &SimilarResult{
		Query:   text,
		Matches: matches,
	}, nil
}
