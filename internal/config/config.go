package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds everything the server needs at startup. Values come
// from an optional TOML file, overridden by environment variables.
type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// DataDir selects the persistent sqlite index; empty runs fully
	// in memory
	DataDir string `toml:"data_dir"`

	// RedisURL selects the Redis conversation store; empty keeps
	// history in memory
	RedisURL string `toml:"redis_url"`

	Gemini   GeminiConfig   `toml:"gemini"`
	Retrieve RetrieveConfig `toml:"retrieve"`
}

// GeminiConfig configures the Gemini API clients. An empty APIKey
// starts the server without AI services; they can be supplied later.
type GeminiConfig struct {
	APIKey          string `toml:"api_key"`
	EmbeddingModel  string `toml:"embedding_model"`
	GenerationModel string `toml:"generation_model"`
	BaseURL         string `toml:"base_url"`
}

// RetrieveConfig tunes the retrieval pipeline
type RetrieveConfig struct {
	TopK        int    `toml:"top_k"`
	Distance    string `toml:"distance"`
	ChunkBudget int    `toml:"chunk_budget"`
}

// Default returns the configuration used when nothing is specified
func Default() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 8080,
		Gemini: GeminiConfig{
			EmbeddingModel:  "text-embedding-004",
			GenerationModel: "gemini-1.5-flash",
		},
		Retrieve: RetrieveConfig{
			TopK:     10,
			Distance: "cosine",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when path is empty or the file does not exist), then
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No file is fine, env and defaults carry it
		default:
			return cfg, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	setString(&c.Host, "HOST")
	setInt(&c.Port, "PORT")
	setString(&c.DataDir, "DATA_DIR")
	setString(&c.RedisURL, "REDIS_URL")

	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.EmbeddingModel, "GEMINI_EMBEDDING_MODEL")
	setString(&c.Gemini.GenerationModel, "GEMINI_GENERATION_MODEL")
	setString(&c.Gemini.BaseURL, "GEMINI_BASE_URL")

	setInt(&c.Retrieve.TopK, "RETRIEVE_TOP_K")
	setString(&c.Retrieve.Distance, "RETRIEVE_DISTANCE")
	setInt(&c.Retrieve.ChunkBudget, "RETRIEVE_CHUNK_BUDGET")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
