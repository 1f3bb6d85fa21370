// Package config provides configuration loading and structs for the
// talentsearch server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hireloop/talentsearch/internal/rank"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PostgresConfig holds the resume store connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the embedding cache and analytics backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// SnapshotPath is where the index is persisted between restarts.
	// Empty disables persistence.
	SnapshotPath string `yaml:"snapshot_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// APIKey for the OpenAI-compatible embedding API. Empty selects the
	// deterministic mock embedder.
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// CacheTTLSeconds is the query-embedding cache lifetime in Redis.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the embedding cache TTL as a duration.
func (e *EmbeddingConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSeconds) * time.Second
}

// LLMConfig holds optional query-analysis model settings.
type LLMConfig struct {
	// APIKey for the chat completion API. Empty disables LLM features;
	// searches then stop at the hybrid stage.
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Enabled reports whether LLM-backed analysis is configured.
func (l *LLMConfig) Enabled() bool {
	return l.APIKey != ""
}

// SearchConfig holds search pipeline settings.
type SearchConfig struct {
	DefaultLimit   int `yaml:"default_limit"`
	MaxLimit       int `yaml:"max_limit"`
	TopKCandidates int `yaml:"top_k_candidates"`

	// Stage timeouts in milliseconds.
	KeywordTimeoutMS int `yaml:"keyword_timeout_ms"`
	VectorTimeoutMS  int `yaml:"vector_timeout_ms"`
	EnhanceTimeoutMS int `yaml:"enhance_timeout_ms"`

	// PurgeAfterDays is how long soft-deleted resumes are retained.
	PurgeAfterDays int `yaml:"purge_after_days"`

	Ranking rank.Config `yaml:"ranking"`
}

// KeywordTimeout returns the keyword stage timeout as a duration.
func (s *SearchConfig) KeywordTimeout() time.Duration {
	return time.Duration(s.KeywordTimeoutMS) * time.Millisecond
}

// VectorTimeout returns the vector stage timeout as a duration.
func (s *SearchConfig) VectorTimeout() time.Duration {
	return time.Duration(s.VectorTimeoutMS) * time.Millisecond
}

// EnhanceTimeout returns the enhancement stage timeout as a duration.
func (s *SearchConfig) EnhanceTimeout() time.Duration {
	return time.Duration(s.EnhanceTimeoutMS) * time.Millisecond
}

// AnalyticsConfig holds search event recording settings.
type AnalyticsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListKey    string `yaml:"list_key"`
	MaxListLen int64  `yaml:"max_list_len"`
	BufferSize int    `yaml:"buffer_size"`
}

// Load reads and parses the config file at path, applies environment
// overrides, and fills defaults. A missing file yields the default config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets deployment environments inject secrets and
// connection settings without editing the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TALENTSEARCH_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("TALENTSEARCH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TALENTSEARCH_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TALENTSEARCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
	}
}
