package services

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

func TestNewStore_StartsUnset(t *testing.T) {
	s := NewStore()

	assert.Equal(t, entities.UnsetResult(), s.CurrentState())
	assert.Empty(t, s.History())
	assert.Equal(t, 0, s.HistoryLen())
}

func TestStore_SetLoadingKeepsVerdict(t *testing.T) {
	s := NewStore()
	s.SetResult(entities.LabelFake, 81)

	got := s.SetLoading(true)

	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelFake, Confidence: 81, IsLoading: true}, got)
	assert.Equal(t, got, s.CurrentState())

	got = s.SetLoading(false)
	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelFake, Confidence: 81}, got)
}

func TestStore_SetResultClearsLoading(t *testing.T) {
	s := NewStore()
	s.SetLoading(true)

	got := s.SetResult(entities.LabelReal, 70)

	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelReal, Confidence: 70}, got)
}

func TestStore_ResetKeepsHistory(t *testing.T) {
	s := NewStore()
	s.SetResult(entities.LabelFake, 90)
	s.AppendHistory(entities.HistoryEntry{ID: "1", Text: "breaking"})

	got := s.Reset()

	assert.Equal(t, entities.UnsetResult(), got)
	assert.Equal(t, 1, s.HistoryLen())
}

func TestStore_ClearHistoryKeepsResult(t *testing.T) {
	s := NewStore()
	s.SetResult(entities.LabelReal, 66)
	s.AppendHistory(entities.HistoryEntry{ID: "1", Text: "a"})
	s.AppendHistory(entities.HistoryEntry{ID: "2", Text: "b"})

	s.ClearHistory()

	assert.Empty(t, s.History())
	assert.Equal(t, entities.AnalysisResult{Label: entities.LabelReal, Confidence: 66}, s.CurrentState())
}

func TestStore_HistoryIsSnapshot(t *testing.T) {
	s := NewStore()
	submitted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	original := entities.HistoryEntry{
		ID:          "1",
		Text:        "Research shows coffee is fine",
		SubmittedAt: submitted,
		Result:      entities.AnalysisResult{Label: entities.LabelReal, Confidence: 72},
		Signals:     []string{"research shows"},
	}
	s.AppendHistory(original)

	first := s.History()
	require.Len(t, first, 1)
	first[0].Text = "mutated"
	first[0].Signals[0] = "mutated"
	first[0].Result.Label = entities.LabelFake
	_ = append(first, entities.HistoryEntry{ID: "2"})

	if diff := cmp.Diff([]entities.HistoryEntry{original}, s.History()); diff != "" {
		t.Errorf("history changed through snapshot (-want +got):\n%s", diff)
	}
}

func TestStore_AppendHistoryCopiesInput(t *testing.T) {
	s := NewStore()
	signals := []string{"secret"}
	s.AppendHistory(entities.HistoryEntry{ID: "1", Signals: signals})

	signals[0] = "mutated"

	assert.Equal(t, []string{"secret"}, s.History()[0].Signals)
}

func TestStore_HistoryPreservesOrder(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c"} {
		s.AppendHistory(entities.HistoryEntry{ID: id})
	}

	history := s.History()
	ids := make([]string, len(history))
	for i, e := range history {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
