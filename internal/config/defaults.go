package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Postgres.DSN == "" {
		cfg.Postgres.DSN = "postgres://localhost:5432/talentsearch?sslmode=disable"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheTTLSeconds == 0 {
		cfg.Embedding.CacheTTLSeconds = 3600
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 100
	}
	if cfg.Search.KeywordTimeoutMS == 0 {
		cfg.Search.KeywordTimeoutMS = 2000
	}
	if cfg.Search.VectorTimeoutMS == 0 {
		cfg.Search.VectorTimeoutMS = 3000
	}
	if cfg.Search.EnhanceTimeoutMS == 0 {
		cfg.Search.EnhanceTimeoutMS = 10000
	}
	if cfg.Search.PurgeAfterDays == 0 {
		cfg.Search.PurgeAfterDays = 30
	}
	cfg.Search.Ranking.ApplyDefaults()
	if cfg.Analytics.ListKey == "" {
		cfg.Analytics.ListKey = "talentsearch:events"
	}
	if cfg.Analytics.MaxListLen == 0 {
		cfg.Analytics.MaxListLen = 10000
	}
	if cfg.Analytics.BufferSize == 0 {
		cfg.Analytics.BufferSize = 1024
	}
}
