// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the directory name for newscheck configuration.
	DefaultConfigDir = ".newscheck"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatabaseFile is the default SQLite archive file name.
	DefaultDatabaseFile = "history.db"
	// EnvPrefix prefixes environment overrides, e.g. NEWSCHECK_ANALYSIS_LATENCY_MS.
	EnvPrefix = "NEWSCHECK"
)

// Supported classifier backends.
const (
	ClassifierHeuristic = "heuristic"
	ClassifierOpenAI    = "openai"
)

// Config holds static configuration (read-only after load).
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Embedder EmbedderConfig `yaml:"embedder" mapstructure:"embedder"`
	Qdrant   QdrantConfig   `yaml:"qdrant" mapstructure:"qdrant"`
	SQLite   SQLiteConfig   `yaml:"sqlite" mapstructure:"sqlite"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AnalysisConfig controls the analysis lifecycle.
type AnalysisConfig struct {
	// LatencyMS is the simulated processing delay before classification.
	LatencyMS int `yaml:"latency_ms" mapstructure:"latency_ms"`
	// Classifier selects the backend: "heuristic" or "openai".
	Classifier string `yaml:"classifier" mapstructure:"classifier"`
}

// Latency returns the configured delay as a duration.
func (a AnalysisConfig) Latency() time.Duration {
	return time.Duration(a.LatencyMS) * time.Millisecond
}

// LLMConfig holds configuration for the LLM classifier.
type LLMConfig struct {
	Provider          string  `yaml:"provider,omitempty" mapstructure:"provider"`
	Model             string  `yaml:"model,omitempty" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider        string `yaml:"provider,omitempty" mapstructure:"provider"`
	Model           string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey          string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL         string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// CacheTTL returns the embedding cache lifetime.
func (e EmbedderConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLMinutes) * time.Minute
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Host       string `yaml:"host,omitempty" mapstructure:"host"`
	Port       int    `yaml:"port,omitempty" mapstructure:"port"`
	Collection string `yaml:"collection,omitempty" mapstructure:"collection"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// SQLiteConfig holds configuration for the SQLite history archive.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. ":memory:" keeps it in RAM.
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// FetchConfig holds configuration for downloading articles.
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// BatchConfig holds configuration for batch analysis.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			LatencyMS:  1500,
			Classifier: ClassifierHeuristic,
		},
		LLM: LLMConfig{
			Provider:          "openai",
			Model:             "gpt-4o-mini",
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Embedder: EmbedderConfig{
			Provider:        "openai",
			Model:           "text-embedding-3-small",
			CacheTTLMinutes: 60,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "newscheck_submissions",
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(Dir(), DefaultDatabaseFile),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 15,
			MaxBodyBytes:   5 * 1024 * 1024,
			UserAgent:      "newscheck/0.1",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Dir returns the configuration directory, $HOME/.newscheck.
// Falls back to the working directory when no home is available.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), DefaultConfigFile)
}

// Load reads configuration from path layered over defaults.
// An empty path uses DefaultPath. A missing file is not an error.
// Environment variables NEWSCHECK_<SECTION>_<KEY> override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if Exists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("analysis.latency_ms", d.Analysis.LatencyMS)
	v.SetDefault("analysis.classifier", d.Analysis.Classifier)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	v.SetDefault("llm.burst", d.LLM.Burst)

	v.SetDefault("embedder.provider", d.Embedder.Provider)
	v.SetDefault("embedder.model", d.Embedder.Model)
	v.SetDefault("embedder.api_key", d.Embedder.APIKey)
	v.SetDefault("embedder.base_url", d.Embedder.BaseURL)
	v.SetDefault("embedder.cache_ttl_minutes", d.Embedder.CacheTTLMinutes)

	v.SetDefault("qdrant.enabled", d.Qdrant.Enabled)
	v.SetDefault("qdrant.host", d.Qdrant.Host)
	v.SetDefault("qdrant.port", d.Qdrant.Port)
	v.SetDefault("qdrant.collection", d.Qdrant.Collection)
	v.SetDefault("qdrant.api_key", d.Qdrant.APIKey)

	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("server.addr", d.Server.Addr)

	v.SetDefault("fetch.timeout_seconds", d.Fetch.TimeoutSeconds)
	v.SetDefault("fetch.max_body_bytes", d.Fetch.MaxBodyBytes)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)

	v.SetDefault("batch.workers", d.Batch.Workers)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// applyEnvOverrides fills empty API keys from the provider environment variables.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = key
		}
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" {
		if c.Qdrant.APIKey == "" {
			c.Qdrant.APIKey = key
		}
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	switch c.Analysis.Classifier {
	case ClassifierHeuristic, ClassifierOpenAI:
	default:
		errs = append(errs, fmt.Errorf("analysis.classifier: unknown classifier %q", c.Analysis.Classifier))
	}
	if c.Analysis.LatencyMS < 0 {
		errs = append(errs, errors.New("analysis.latency_ms: must not be negative"))
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("llm.requests_per_second: must not be negative"))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("batch.workers: must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Exists checks if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
