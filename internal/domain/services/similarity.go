package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/ports"
)

// DefaultSimilarLimit is the default number of similar submissions to return.
const DefaultSimilarLimit = 5

// ErrSimilarityDisabled is returned when no similarity index is configured.
var ErrSimilarityDisabled = errors.New("similarity search is disabled")

// SimilarityService indexes completed submissions and finds similar ones.
// A nil *SimilarityService is valid and reports ErrSimilarityDisabled.
type SimilarityService struct {
	embedder ports.Embedder
	vectorDB ports.VectorDB
}

// NewSimilarityService creates a new similarity service.
func NewSimilarityService(embedder ports.Embedder, vectorDB ports.VectorDB) *SimilarityService {
	return &SimilarityService{
		embedder: embedder,
		vectorDB: vectorDB,
	}
}

// Enabled reports whether the service can index and search.
func (s *SimilarityService) Enabled() bool {
	return s != nil && s.embedder != nil && s.vectorDB != nil
}

// Index embeds the entry text and stores it in the vector database.
func (s *SimilarityService) Index(ctx context.Context, entry entities.HistoryEntry) error {
	if !s.Enabled() {
		return ErrSimilarityDisabled
	}

	embedding, err := s.embedder.Embed(ctx, entry.Text)
	if err != nil {
		return fmt.Errorf("generating entry embedding: %w", err)
	}

	if err := s.vectorDB.Save(ctx, entry, embedding); err != nil {
		return fmt.Errorf("saving entry vector: %w", err)
	}
	return nil
}

// IndexBatch embeds and stores several entries with one embedding request.
func (s *SimilarityService) IndexBatch(ctx context.Context, batch []entities.HistoryEntry) error {
	if !s.Enabled() {
		return ErrSimilarityDisabled
	}
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, e := range batch {
		texts[i] = e.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("generating batch embeddings: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(batch))
	}

	for i, e := range batch {
		if err := s.vectorDB.Save(ctx, e, embeddings[i]); err != nil {
			return fmt.Errorf("saving entry vector %s: %w", e.ID, err)
		}
	}
	return nil
}

// Similar finds archived submissions semantically close to text.
func (s *SimilarityService) Similar(ctx context.Context, text string, limit int) ([]entities.SimilarSubmission, error) {
	if !s.Enabled() {
		return nil, ErrSimilarityDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	results, err := s.vectorDB.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching submissions: %w", err)
	}
	return results, nil
}

// Count returns the number of indexed submissions.
func (s *SimilarityService) Count(ctx context.Context) (uint64, error) {
	if !s.Enabled() {
		return 0, ErrSimilarityDisabled
	}
	n, err := s.vectorDB.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting submissions: %w", err)
	}
	return n, nil
}

// Clear removes every indexed submission.
func (s *SimilarityService) Clear(ctx context.Context) error {
	if !s.Enabled() {
		return ErrSimilarityDisabled
	}
	if err := s.vectorDB.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clearing submissions: %w", err)
	}
	return nil
}
