package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

func sampleEntries() []entities.HistoryEntry {
	return []entities.HistoryEntry{
		{
			ID:          "test-id-1",
			Text:        "Shocking | secret\nrevealed",
			SubmittedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
			Result:      entities.AnalysisResult{Label: entities.LabelFake, Confidence: 87},
			Classifier:  "heuristic",
			Signals:     []string{"shocking", "secret"},
		},
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	err := formatJSON(&buf, sampleEntries())
	require.NoError(t, err)

	var parsed []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	require.Len(t, parsed, 1)
	assert.Equal(t, "test-id-1", parsed[0]["id"])
	assert.Equal(t, "fake", parsed[0]["label"])
	assert.Equal(t, float64(87), parsed[0]["confidence"])
	assert.Equal(t, "heuristic", parsed[0]["classifier"])
	assert.Equal(t, []any{"shocking", "secret"}, parsed[0]["signals"])
	assert.Equal(t, "2026-03-01T12:30:00Z", parsed[0]["submitted_at"])
}

func TestFormatJSON_EmptyEntries(t *testing.T) {
	var buf bytes.Buffer
	err := formatJSON(&buf, []entities.HistoryEntry{})
	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatCSV(t *testing.T) {
	var buf bytes.Buffer
	err := formatCSV(&buf, sampleEntries())
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"id", "submitted_at", "label", "confidence", "classifier", "signals", "text"}, records[0])
	assert.Equal(t, []string{
		"test-id-1",
		"2026-03-01T12:30:00Z",
		"fake",
		"87",
		"heuristic",
		"shocking;secret",
		"Shocking | secret\nrevealed",
	}, records[1])
}

func TestFormatMarkdown(t *testing.T) {
	var buf bytes.Buffer
	err := formatMarkdown(&buf, sampleEntries())
	require.NoError(t, err)

	result := buf.String()
	assert.Contains(t, result, "# Exported Analyses")
	assert.Contains(t, result, "Total: 1 entries")
	assert.Contains(t, result, "| Submitted | Label | Confidence | Text |")
	assert.Contains(t, result, "| 2026-03-01 12:30 | FAKE | 87% | Shocking \\| secret revealed |")
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a|b", "a\\|b"},
		{"line1\nline2", "line1 line2"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, escapeMarkdown(tt.input))
	}
}

func TestExporter_Export(t *testing.T) {
	t.Run("to stdout", func(t *testing.T) {
		var stdout bytes.Buffer
		e := &exporter{format: "csv", stdout: &stdout}

		require.NoError(t, e.export(sampleEntries()))
		assert.True(t, strings.HasPrefix(stdout.String(), "id,submitted_at"))
	})

	t.Run("to file", func(t *testing.T) {
		var stdout bytes.Buffer
		path := filepath.Join(t.TempDir(), "out.md")
		e := &exporter{format: "markdown", output: path, stdout: &stdout}

		require.NoError(t, e.export(sampleEntries()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Exported Analyses")
		assert.Contains(t, stdout.String(), "Exported 1 entries to "+path)
	})

	t.Run("unknown format", func(t *testing.T) {
		e := &exporter{format: "xml", stdout: &bytes.Buffer{}}
		require.Error(t, e.export(sampleEntries()))
	})
}
