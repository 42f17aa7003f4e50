package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1500, cfg.Analysis.LatencyMS)
	assert.Equal(t, ClassifierHeuristic, cfg.Analysis.Classifier)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.False(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, DefaultDatabaseFile, filepath.Base(cfg.SQLite.Path))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Analysis, cfg.Analysis)
	assert.Equal(t, Default().Server, cfg.Server)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
analysis:
  latency_ms: 250
  classifier: openai
llm:
  model: gpt-4o
qdrant:
  enabled: true
  port: 6400
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Analysis.LatencyMS)
	assert.Equal(t, ClassifierOpenAI, cfg.Analysis.Classifier)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.True(t, cfg.Qdrant.Enabled)
	assert.Equal(t, 6400, cfg.Qdrant.Port)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NEWSCHECK_ANALYSIS_LATENCY_MS", "10")
	t.Setenv("NEWSCHECK_SERVER_ADDR", ":9999")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("QDRANT_API_KEY", "qd-from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Analysis.LatencyMS)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
	assert.Equal(t, "sk-from-env", cfg.Embedder.APIKey)
	assert.Equal(t, "qd-from-env", cfg.Qdrant.APIKey)
}

func TestLoad_FileKeyWinsOverProviderEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  api_key: sk-from-file\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.LLM.APIKey)
	assert.Equal(t, "sk-from-env", cfg.Embedder.APIKey)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [unclosed"), 0600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown classifier",
			mutate:  func(c *Config) { c.Analysis.Classifier = "magic" },
			wantErr: "analysis.classifier",
		},
		{
			name:    "negative latency",
			mutate:  func(c *Config) { c.Analysis.LatencyMS = -1 },
			wantErr: "analysis.latency_ms",
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Batch.Workers = -2 },
			wantErr: "batch.workers",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefault(path))
	assert.True(t, Exists(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed Config
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, Default().Analysis, parsed.Analysis)

	err = WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-1234567890abcdef"
	cfg.Qdrant.APIKey = "short"

	red := Redacted(cfg)

	assert.Equal(t, "sk-1****cdef", red.LLM.APIKey)
	assert.Equal(t, "****", red.Qdrant.APIKey)
	assert.Equal(t, "", red.Embedder.APIKey)
	assert.Equal(t, "sk-1234567890abcdef", cfg.LLM.APIKey)
}

func TestDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "1.5s", cfg.Analysis.Latency().String())
	assert.Equal(t, "1h0m0s", cfg.Embedder.CacheTTL().String())
	assert.Equal(t, "15s", cfg.Fetch.Timeout().String())
}
