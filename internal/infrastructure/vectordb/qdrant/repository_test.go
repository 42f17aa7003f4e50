package qdrant

import (
	"testing"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
	"github.com/ersonp/newscheck/internal/infrastructure/config"
)

func TestNewRepository(t *testing.T) {
	t.Run("lazy connection succeeds", func(t *testing.T) {
		repo, err := NewRepository(config.QdrantConfig{Host: "localhost", Port: 6334, Collection: "test", APIKey: "k"})
		require.NoError(t, err)
		assert.NoError(t, repo.Close())
	})

	t.Run("collection required", func(t *testing.T) {
		_, err := NewRepository(config.QdrantConfig{Host: "localhost", Port: 6334})
		require.Error(t, err)
	})
}

func TestPayloadRoundTrip(t *testing.T) {
	entry := entities.HistoryEntry{
		ID:          "4f7c1a52-0000-4000-8000-000000000001",
		Text:        "Experts say the data indicates growth",
		SubmittedAt: time.Date(2026, 4, 2, 8, 0, 0, 123, time.UTC),
		Result:      entities.AnalysisResult{Label: entities.LabelReal, Confidence: 83},
		Classifier:  "heuristic",
		Signals:     []string{"experts say", "data indicates"},
	}

	payload, err := entryPayload(entry)
	require.NoError(t, err)

	got := payloadToEntry(entry.ID, payload)
	assert.Equal(t, entry, got)
}

func TestPayloadToEntry_Tolerant(t *testing.T) {
	payload := map[string]*pb.Value{
		"text":         {Kind: &pb.Value_StringValue{StringValue: "hello"}},
		"submitted_at": {Kind: &pb.Value_StringValue{StringValue: "yesterday"}},
		"signals":      {Kind: &pb.Value_StringValue{StringValue: "null"}},
	}

	got := payloadToEntry("id", payload)

	assert.Equal(t, "hello", got.Text)
	assert.True(t, got.SubmittedAt.IsZero())
	assert.Nil(t, got.Signals)
	assert.Equal(t, 0, got.Result.Confidence)
}
