package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/mocks"
)

func TestSimilarityService_Similar(t *testing.T) {
	results := []entities.SimilarSubmission{
		{Entry: entities.HistoryEntry{ID: "1", Text: "Breaking scandal"}, Score: 0.93},
		{Entry: entities.HistoryEntry{ID: "2", Text: "Shocking scandal"}, Score: 0.88},
		{Entry: entities.HistoryEntry{ID: "3", Text: "Study finds"}, Score: 0.41},
	}

	tests := []struct {
		name          string
		limit         int
		expectedCount int
	}{
		{name: "limit respected", limit: 2, expectedCount: 2},
		{name: "zero uses default", limit: 0, expectedCount: 3},
		{name: "limit above results", limit: 10, expectedCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSimilarityService(
				&mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}},
				&mocks.VectorDB{Results: results},
			)

			got, err := svc.Similar(t.Context(), "scandal", tt.limit)
			require.NoError(t, err)
			assert.Len(t, got, tt.expectedCount)
		})
	}
}

func TestSimilarityService_SimilarErrors(t *testing.T) {
	tests := []struct {
		name     string
		embedder *mocks.Embedder
		vectorDB *mocks.VectorDB
		text     string
		errMsg   string
	}{
		{
			name:     "blank text",
			embedder: &mocks.Embedder{},
			vectorDB: &mocks.VectorDB{},
			text:     "  ",
			errMsg:   "text is required",
		},
		{
			name:     "embedder error",
			embedder: &mocks.Embedder{Err: errors.New("rate limited")},
			vectorDB: &mocks.VectorDB{},
			text:     "scandal",
			errMsg:   "generating query embedding",
		},
		{
			name:     "search error",
			embedder: &mocks.Embedder{EmbeddingResult: []float32{1}},
			vectorDB: &mocks.VectorDB{Err: errors.New("unavailable")},
			text:     "scandal",
			errMsg:   "searching submissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSimilarityService(tt.embedder, tt.vectorDB)
			_, err := svc.Similar(t.Context(), tt.text, 5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSimilarityService_Disabled(t *testing.T) {
	var svc *SimilarityService

	assert.False(t, svc.Enabled())

	_, err := svc.Similar(t.Context(), "x", 1)
	assert.ErrorIs(t, err, ErrSimilarityDisabled)

	err = svc.Index(t.Context(), entities.HistoryEntry{Text: "x"})
	assert.ErrorIs(t, err, ErrSimilarityDisabled)

	_, err = svc.Count(t.Context())
	assert.ErrorIs(t, err, ErrSimilarityDisabled)

	assert.ErrorIs(t, svc.Clear(t.Context()), ErrSimilarityDisabled)
	assert.False(t, NewSimilarityService(nil, &mocks.VectorDB{}).Enabled())
}

func TestSimilarityService_IndexBatch(t *testing.T) {
	embedder := &mocks.Embedder{EmbeddingResult: []float32{0.5}}
	vectors := &mocks.VectorDB{}
	svc := NewSimilarityService(embedder, vectors)

	batch := []entities.HistoryEntry{
		{ID: "1", Text: "one"},
		{ID: "2", Text: "two"},
	}

	require.NoError(t, svc.IndexBatch(t.Context(), batch))
	assert.Equal(t, 1, embedder.EmbedBatchCallCount)
	assert.Equal(t, 2, vectors.SavedCount())

	count, err := svc.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	require.NoError(t, svc.Clear(t.Context()))
	assert.Equal(t, 0, vectors.SavedCount())
}

func TestSimilarityService_IndexBatchEmpty(t *testing.T) {
	embedder := &mocks.Embedder{}
	svc := NewSimilarityService(embedder, &mocks.VectorDB{})

	require.NoError(t, svc.IndexBatch(t.Context(), nil))
	assert.Equal(t, 0, embedder.EmbedBatchCallCount)
}

func TestSimilarityService_IndexError(t *testing.T) {
	svc := NewSimilarityService(&mocks.Embedder{Err: errors.New("quota")}, &mocks.VectorDB{})

	err := svc.Index(t.Context(), entities.HistoryEntry{ID: "1", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generating entry embedding")
}
