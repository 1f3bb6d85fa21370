package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 100 {
		t.Errorf("search limits = %d/%d, want 10/100", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Search.Ranking.SkillHeavy.Keyword == 0 {
		t.Error("ranking weights not defaulted")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
debug: true
server:
  port: 9090
embedding:
  dimensions: 384
  cache_ttl_seconds: 120
search:
  default_limit: 25
  ranking:
    skill_heavy:
      keyword: 0.7
      vector: 0.2
      skill_boost: 0.1
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("Embedding.Dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.CacheTTL().Seconds() != 120 {
		t.Errorf("CacheTTL = %v, want 120s", cfg.Embedding.CacheTTL())
	}
	if cfg.Search.DefaultLimit != 25 {
		t.Errorf("Search.DefaultLimit = %d, want 25", cfg.Search.DefaultLimit)
	}
	if cfg.Search.Ranking.SkillHeavy.Keyword != 0.7 {
		t.Errorf("SkillHeavy.Keyword = %v, want 0.7", cfg.Search.Ranking.SkillHeavy.Keyword)
	}
	// Untouched sections still get defaults.
	if cfg.Search.Ranking.Narrative.Vector == 0 {
		t.Error("Narrative weights not defaulted")
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost default", cfg.Server.Host)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TALENTSEARCH_POSTGRES_DSN", "postgres://db:5432/override")
	t.Setenv("TALENTSEARCH_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://db:5432/override" {
		t.Errorf("Postgres.DSN = %q, want env override", cfg.Postgres.DSN)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := &Config{Debug: true}
	ApplyDefaults(cfg)

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != cfg.Server.Port || !loaded.Debug {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
