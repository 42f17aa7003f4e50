package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const header = "# newscheck configuration\n# Environment overrides: NEWSCHECK_<SECTION>_<KEY>, OPENAI_API_KEY, QDRANT_API_KEY\n\n"

// WriteDefault writes the default config to path. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	if Exists(path) {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return Write(path, Default())
}

// Write writes the given config to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Marshal renders the config as YAML with a short header.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return append([]byte(header), data...), nil
}

// Redacted returns a copy of cfg with API keys masked, for display.
func Redacted(cfg *Config) *Config {
	out := *cfg
	out.LLM.APIKey = mask(out.LLM.APIKey)
	out.Embedder.APIKey = mask(out.Embedder.APIKey)
	out.Qdrant.APIKey = mask(out.Qdrant.APIKey)
	return &out
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
