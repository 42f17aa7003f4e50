package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/domain/mocks"
	"github.com/ersonp/newscheck/internal/domain/services"
)

func seedArchive(t *testing.T) *mocks.HistoryArchive {
	t.Helper()
	archive := mocks.NewHistoryArchive()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []entities.HistoryEntry{
		{ID: "a", Text: "Officials confirmed the budget", SubmittedAt: base, Result: entities.AnalysisResult{Label: entities.LabelReal, Confidence: 80}},
		{ID: "b", Text: "Shocking miracle cure", SubmittedAt: base.Add(time.Minute), Result: entities.AnalysisResult{Label: entities.LabelFake, Confidence: 90}},
		{ID: "c", Text: "Experts say growth slowed", SubmittedAt: base.Add(2 * time.Minute), Result: entities.AnalysisResult{Label: entities.LabelReal, Confidence: 70}},
	}
	for _, e := range entries {
		require.NoError(t, archive.SaveEntry(t.Context(), e))
	}
	return archive
}

func TestHistoryHandler_List(t *testing.T) {
	handler := NewHistoryHandler(seedArchive(t), nil)

	entries, err := handler.List(t.Context(), 2, 0)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
}

func TestHistoryHandler_Search(t *testing.T) {
	handler := NewHistoryHandler(seedArchive(t), nil)

	entries, err := handler.Search(t.Context(), "CURE", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)

	all, err := handler.Search(t.Context(), "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistoryHandler_Show(t *testing.T) {
	handler := NewHistoryHandler(seedArchive(t), nil)

	entry, err := handler.Show(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Officials confirmed the budget", entry.Text)

	_, err = handler.Show(t.Context(), "missing")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestHistoryHandler_Export(t *testing.T) {
	entries, err := NewHistoryHandler(seedArchive(t), nil).Export(t.Context())

	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestHistoryHandler_Stats(t *testing.T) {
	t.Run("without index", func(t *testing.T) {
		stats, err := NewHistoryHandler(seedArchive(t), nil).Stats(t.Context())

		require.NoError(t, err)
		assert.Equal(t, entities.LabelCounts{Real: 2, Fake: 1, Total: 3}, stats.Counts)
		assert.False(t, stats.IndexEnabled)
		assert.Nil(t, stats.LastCleared)
	})

	t.Run("index error is reported", func(t *testing.T) {
		db := &mocks.VectorDB{Err: errors.New("unreachable")}
		similarity := services.NewSimilarityService(&mocks.Embedder{}, db)

		stats, err := NewHistoryHandler(seedArchive(t), similarity).Stats(t.Context())

		require.NoError(t, err)
		assert.True(t, stats.IndexEnabled)
		require.Error(t, stats.IndexErr)
	})

	t.Run("archive error", func(t *testing.T) {
		archive := mocks.NewHistoryArchive()
		archive.Err = errors.New("locked")

		_, err := NewHistoryHandler(archive, nil).Stats(t.Context())

		require.Error(t, err)
	})
}

func TestHistoryHandler_Clear(t *testing.T) {
	archive := seedArchive(t)
	db := &mocks.VectorDB{}
	handler := NewHistoryHandler(archive, services.NewSimilarityService(&mocks.Embedder{}, db))

	result, err := handler.Clear(t.Context())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Deleted)
	assert.True(t, result.IndexCleared)
	assert.Equal(t, 1, db.DeleteAllCallCount)
	assert.Equal(t, []string{entities.ActionArchiveCleared}, archive.Actions())

	n, err := archive.CountEntries(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := handler.Stats(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, stats.LastCleared)
}
