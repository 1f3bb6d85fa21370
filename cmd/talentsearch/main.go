// Package main is the talentsearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hireloop/talentsearch/internal/analytics"
	"github.com/hireloop/talentsearch/internal/config"
	"github.com/hireloop/talentsearch/internal/embedding"
	"github.com/hireloop/talentsearch/internal/fuzzy"
	"github.com/hireloop/talentsearch/internal/indexer"
	"github.com/hireloop/talentsearch/internal/llm"
	"github.com/hireloop/talentsearch/internal/models"
	"github.com/hireloop/talentsearch/internal/query"
	"github.com/hireloop/talentsearch/internal/rank"
	"github.com/hireloop/talentsearch/internal/search"
	"github.com/hireloop/talentsearch/internal/server"
	"github.com/hireloop/talentsearch/internal/storage"
	"github.com/hireloop/talentsearch/internal/vector"
	"github.com/hireloop/talentsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/talentsearch/config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "purge":
		runPurge()
	case "version", "--version", "-v":
		fmt.Printf("talentsearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: talentsearch <command> [flags]

Commands:
  server    Start the HTTP API server
  search    Run a search against a running server
  index     Index a resume from a JSON file
  reindex   Re-embed all of a user's resumes
  status    Show index status from a running server
  purge     Hard-delete soft-deleted resumes past retention
  version   Print version
  help      Show this help
`)
}

// Components holds the wired application dependencies.
type Components struct {
	Store        storage.Store
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	Redis        *redis.Client
	Analyzer     llm.Analyzer
	Emitter      *analytics.Emitter
	Orchestrator *search.Orchestrator
	Indexer      *indexer.Indexer
}

// Close releases all component resources.
func (c *Components) Close() {
	if c.Emitter != nil {
		_ = c.Emitter.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, dev bool) (*Components, error) {
	var store storage.Store
	if dev {
		store = storage.NewMemoryStore()
		logger.Info("using in-memory store (dev mode)")
	} else {
		pg, err := storage.NewPostgresStore(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = pg
	}

	// Redis backs the embedding cache and analytics; the service runs
	// without it, just slower and without event recording.
	var redisClient *redis.Client
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, caching and analytics disabled",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		_ = client.Close()
	} else {
		redisClient = client
	}
	cancel()

	var embedder embedding.Embedder
	if cfg.Embedding.APIKey == "" || dev {
		logger.Info("no embedding api key, using mock embedder")
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	} else {
		openaiEmbedder, err := embedding.NewOpenAIEmbedder(
			cfg.Embedding.APIKey,
			cfg.Embedding.BaseURL,
			cfg.Embedding.Model,
			cfg.Embedding.Dimensions,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		embedder = openaiEmbedder
	}
	if redisClient != nil {
		embedder = embedding.NewCachedEmbedder(embedder, redisClient, cfg.Embedding.CacheTTL(), logger)
	}

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if cfg.Vector.SnapshotPath != "" {
		if err := vectorIndex.Load(cfg.Vector.SnapshotPath); err != nil {
			logger.Warn("vector snapshot load skipped",
				zap.String("path", cfg.Vector.SnapshotPath),
				zap.Error(err))
		}
	}

	var analyzer llm.Analyzer
	if cfg.LLM.Enabled() && !dev {
		a, err := llm.NewOpenAIAnalyzer(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
		if err != nil {
			logger.Warn("llm analyzer disabled", zap.Error(err))
		} else {
			analyzer = a
		}
	}

	var emitter *analytics.Emitter
	if cfg.Analytics.Enabled && redisClient != nil {
		emitter = analytics.NewEmitter(redisClient, logger,
			analytics.WithListKey(cfg.Analytics.ListKey),
			analytics.WithMaxListLen(cfg.Analytics.MaxListLen),
			analytics.WithBufferSize(cfg.Analytics.BufferSize))
	}

	expander := query.NewExpander()
	matcher := fuzzy.NewMatcher(
		fuzzy.WithThreshold(cfg.Search.Ranking.SkillMatchThreshold),
		fuzzy.WithEquivalence(expander.Equivalent))
	parser := query.NewParser(expander, matcher)
	ranker := rank.NewRanker(&cfg.Search.Ranking, matcher)

	orchestrator := search.NewOrchestrator(parser, expander, store, embedder,
		vectorIndex, ranker, analyzer, emitter, &cfg.Search, logger)
	idx := indexer.NewIndexer(store, embedder, vectorIndex, logger)

	return &Components{
		Store:        store,
		Embedder:     embedder,
		VectorIndex:  vectorIndex,
		Redis:        redisClient,
		Analyzer:     analyzer,
		Emitter:      emitter,
		Orchestrator: orchestrator,
		Indexer:      idx,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	dev := fs.Bool("dev", false, "in-memory store and mock embedder, no external services")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cfg, logger, *dev)
	if err != nil {
		logger.Fatal("failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// An empty index after a snapshot load means a fresh deployment or a
	// discarded snapshot; rebuild from stored embeddings.
	if components.VectorIndex.Size() == 0 {
		if n, err := components.Indexer.Rebuild(context.Background()); err != nil {
			logger.Warn("vector rebuild failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("vector index rebuilt from store", zap.Int("points", n))
		}
	}

	srv := server.NewServer(
		components.Orchestrator,
		components.Indexer,
		components.Store,
		components.VectorIndex,
		components.Emitter,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	if cfg.Vector.SnapshotPath != "" {
		if err := components.VectorIndex.Save(cfg.Vector.SnapshotPath); err != nil {
			logger.Warn("vector snapshot save failed",
				zap.String("path", cfg.Vector.SnapshotPath),
				zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	user := fs.String("user", "", "user id (required)")
	limit := fs.Int("limit", 10, "number of results")
	enhance := fs.Bool("enhance", false, "request LLM enhancement")
	asJSON := fs.Bool("json", false, "print raw JSON response")
	_ = fs.Parse(os.Args[2:])

	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" || *user == "" {
		fmt.Println("Usage: talentsearch search --user <id> [flags] <query>")
		os.Exit(1)
	}

	reqBody, _ := json.Marshal(models.SearchRequest{
		Query:   queryStr,
		Limit:   *limit,
		Enhance: *enhance,
	})
	req, err := http.NewRequest(http.MethodPost, *serverURL+"/api/v1/search", bytes.NewReader(reqBody))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", *user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var result search.Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Bad response: %v\n", err)
		os.Exit(1)
	}
	if *asJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}

	if result.Suggestion != "" {
		fmt.Printf("Did you mean: %s\n\n", result.Suggestion)
	}
	fmt.Printf("%d results (%s, %dms)\n\n", result.Total, result.QueryType, result.TookMS)
	for _, res := range result.Results {
		fmt.Printf("%2d. %s  score=%.3f\n", res.Rank, res.Resume.CandidateName, res.Score)
		if len(res.MatchedSkills) > 0 {
			fmt.Printf("    skills: %s\n", strings.Join(res.MatchedSkills, ", "))
		}
		if res.Explanation != "" {
			fmt.Printf("    %s\n", res.Explanation)
		}
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	user := fs.String("user", "", "user id (required)")
	_ = fs.Parse(os.Args[2:])

	if *user == "" || fs.NArg() < 1 {
		fmt.Println("Usage: talentsearch index --user <id> <resume.json>")
		os.Exit(1)
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read resume file: %v\n", err)
		os.Exit(1)
	}
	var input models.ResumeInput
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid resume JSON: %v\n", err)
		os.Exit(1)
	}

	body, _ := json.Marshal(input)
	req, err := http.NewRequest(http.MethodPost, *serverURL+"/api/v1/resumes", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index failed: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", *user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var resume models.Resume
	if err := json.NewDecoder(resp.Body).Decode(&resume); err != nil || resp.StatusCode != http.StatusCreated {
		fmt.Fprintf(os.Stderr, "Index failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	fmt.Printf("Indexed resume %s (%s)\n", resume.ID, resume.CandidateName)
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	user := fs.String("user", "", "user id (required)")
	_ = fs.Parse(os.Args[2:])

	if *user == "" {
		fmt.Println("Usage: talentsearch reindex --user <id>")
		os.Exit(1)
	}
	req, err := http.NewRequest(http.MethodPost, *serverURL+"/api/v1/reindex", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-User-ID", *user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reindex failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var out struct {
		Reindexed int `json:"reindexed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Bad response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Reindexed %d resumes\n", out.Reindexed)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	user := fs.String("user", "", "user id (required)")
	_ = fs.Parse(os.Args[2:])

	if *user == "" {
		fmt.Println("Usage: talentsearch status --user <id>")
		os.Exit(1)
	}
	req, err := http.NewRequest(http.MethodGet, *serverURL+"/api/v1/status", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-User-ID", *user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Bad response: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(out))
}

func runPurge() {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewPostgresStore(cfg.Postgres.DSN)
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	retention := time.Duration(cfg.Search.PurgeAfterDays) * 24 * time.Hour
	purged, err := store.PurgeDeleted(context.Background(), retention)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Purged %d resumes deleted more than %d days ago\n", purged, cfg.Search.PurgeAfterDays)
}
