// Package main is the passagesearch CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/augment"
	"github.com/hyperjump/passagesearch/internal/cache"
	"github.com/hyperjump/passagesearch/internal/cli"
	"github.com/hyperjump/passagesearch/internal/config"
	"github.com/hyperjump/passagesearch/internal/corpus"
	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/engine/bleveengine"
	"github.com/hyperjump/passagesearch/internal/engine/elastic"
	"github.com/hyperjump/passagesearch/internal/ingest"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
	"github.com/hyperjump/passagesearch/internal/search"
	"github.com/hyperjump/passagesearch/internal/server"
	"github.com/hyperjump/passagesearch/internal/storage"
	"github.com/hyperjump/passagesearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/passagesearch/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "create-index":
		runCreateIndex()
	case "runs":
		runRuns()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("passagesearch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger. It exits on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("backend", cfg.Engine.Backend),
		zap.String("index", cfg.Index.Name))
	return cfg, logger
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Search, components.Engine, components.Runs, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printIngestUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: passagesearch ingest [flags] <corpus>\n\n")
	fmt.Fprintf(fs.Output(), "Corpus is a .jsonl, .tsv or .xlsx file (optionally .gz) or a directory of documents.\n\n")
	fs.PrintDefaults()
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	batchSize := fs.Int("batch-size", 0, "documents per bulk request (default from config)")
	maxDocs := fs.Int("max-docs", 0, "stop after this many documents, -1 for no cap (default from config)")
	capPolicy := fs.String("cap-policy", "", "what to do with a partial batch at the cap: drop or flush (default from config)")
	recreate := fs.Bool("recreate", false, "delete and re-create the index before ingesting")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printIngestUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	if fs.NArg() != 1 {
		printIngestUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	if *batchSize != 0 {
		cfg.Ingest.BatchSize = *batchSize
	}
	if *maxDocs != 0 {
		cfg.Ingest.MaxDocuments = *maxDocs
	}
	if *capPolicy != "" {
		cfg.Ingest.CapPolicy = *capPolicy
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.Engine.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Search engine unreachable at %s: %v\n", strings.Join(cfg.Engine.Hosts, ","), err)
		os.Exit(1)
	}
	if *recreate {
		if err := schema.NewManager(components.Engine, logger).EnsureIndex(ctx, cfg.Index.Name, cfg.Index.Schema); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create index: %v\n", err)
			os.Exit(1)
		}
	}

	src, err := corpus.Open(fs.Arg(0),
		corpus.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		corpus.WithMaxFileSize(cfg.Ingest.MaxFileBytes),
		corpus.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open corpus: %v\n", err)
		os.Exit(1)
	}

	policy, _ := models.ParseCapPolicy(cfg.Ingest.CapPolicy)
	pipeline := ingest.NewPipeline(components.Engine, cfg.Index.Name,
		ingest.WithLogger(logger),
		ingest.WithSchema(cfg.Index.Schema),
		ingest.WithWriteTimeout(config.Seconds(cfg.Ingest.WriteTimeoutSeconds)),
		ingest.WithProgressEvery(cfg.Ingest.ProgressEvery),
		ingest.WithRecorder(components.Runs))
	run, runErr := pipeline.Ingest(ctx, src, ingest.Options{
		BatchSize:    cfg.Ingest.BatchSize,
		MaxDocuments: cfg.Ingest.DocumentCap(),
		CapPolicy:    policy,
	})

	if run != nil && run.TotalIndexed > 0 {
		afterIngest(context.WithoutCancel(ctx), components, cfg.Index.Name, logger)
	}
	if run != nil {
		if err := cli.WriteRun(os.Stdout, run, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		}
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", runErr)
		os.Exit(1)
	}
}

// refresher is implemented by engines whose writes become searchable only after a refresh.
type refresher interface {
	Refresh(ctx context.Context, index string) error
}

// afterIngest makes new documents searchable and drops cached responses for index.
func afterIngest(ctx context.Context, c *Components, index string, logger *zap.Logger) {
	if r, ok := c.Engine.(refresher); ok {
		if err := r.Refresh(ctx, index); err != nil {
			logger.Warn("index refresh failed", zap.String("index", index), zap.Error(err))
		}
	}
	if c.Cache != nil {
		n, err := c.Cache.InvalidateIndex(ctx, index)
		if err != nil {
			logger.Warn("cache invalidation failed", zap.String("index", index), zap.Error(err))
			return
		}
		logger.Debug("cache invalidated", zap.String("index", index), zap.Int("entries", n))
	}
}

func runCreateIndex() {
	fs := flag.NewFlagSet("create-index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	name := fs.String("index", "", "index name (default from config)")
	ifMissing := fs.Bool("if-missing", false, "keep an existing index instead of re-creating it")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *name != "" {
		cfg.Index.Name = *name
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := components.Engine.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Search engine unreachable: %v\n", err)
		os.Exit(1)
	}
	manager := schema.NewManager(components.Engine, logger)
	if *ifMissing {
		created, err := manager.CreateIfMissing(ctx, cfg.Index.Name, cfg.Index.Schema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create index: %v\n", err)
			os.Exit(1)
		}
		if !created {
			fmt.Printf("Index %s already exists\n", cfg.Index.Name)
			return
		}
	} else if err := manager.EnsureIndex(ctx, cfg.Index.Name, cfg.Index.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create index: %v\n", err)
		os.Exit(1)
	}
	if components.Cache != nil {
		_, _ = components.Cache.InvalidateIndex(ctx, cfg.Index.Name)
	}
	fmt.Printf("Index %s created (bm25 k1=%g b=%g)\n", cfg.Index.Name, cfg.Index.Schema.BM25.K1, cfg.Index.Schema.BM25.B)
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: passagesearch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  passagesearch search what is the capital of france
  passagesearch search --output json "symptoms of influenza"
  passagesearch search --server http://localhost:8080 beta
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// reorderArgs moves any flags (and their values) that appear after the positional
// arguments to the front of the slice so that flag.Parse() sees them.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	serverURL := fs.String("server", "", "server URL; empty queries the search engine directly")
	noSummary := fs.Bool("no-summary", false, "skip the generated summary")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var response *models.SearchResponse
	if *serverURL != "" {
		var err error
		response, err = searchViaHTTP(*serverURL, queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger := setup(*configPath, *debug)
		defer logger.Sync()
		if *noSummary {
			cfg.Augment.Disabled = true
		}
		ctx := context.Background()
		components, err := initializeComponents(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		response, err = components.Search.Search(ctx, queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string) (*models.SearchResponse, error) {
	body, err := json.Marshal(models.SearchRequest{Query: query})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimSuffix(serverURL, "/")+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp)
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func httpError(resp *http.Response) error {
	b, _ := io.ReadAll(resp.Body)
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func runRuns() {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of runs to list")
	index := fs.String("index", "", "only list runs against this index")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(os.Args[2:]))

	format := parseFormat(*outputFormat)
	cfg, logger := setup(*configPath, false)
	defer logger.Sync()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open run ledger: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if fs.NArg() == 1 {
		run, err := store.GetRun(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get run: %v\n", err)
			os.Exit(1)
		}
		_ = cli.WriteRun(os.Stdout, run, format)
		return
	}
	runs, err := store.ListRuns(ctx, *index, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteRuns(os.Stdout, runs, format)
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Index          string               `json:"index"`
	Backend        string               `json:"backend"`
	Engine         string               `json:"engine"`
	Documents      *int64               `json:"documents,omitempty"`
	LastRun        *models.IngestionRun `json:"last_run,omitempty"`
	DiskUsageBytes *int64               `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty inspects the engine and ledger directly")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseFormat(*outputFormat)
	var status *statusResponse
	var err error
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		cfg, logger := setup(*configPath, false)
		defer logger.Sync()
		status, err = statusDirect(context.Background(), cfg, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}

	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("Index:      %s (%s)\n", status.Index, status.Backend)
	fmt.Printf("Engine:     %s\n", status.Engine)
	if status.Documents != nil {
		fmt.Printf("Documents:  %d\n", *status.Documents)
	}
	if status.DiskUsageBytes != nil {
		fmt.Printf("Disk usage: %d bytes\n", *status.DiskUsageBytes)
	}
	if status.LastRun != nil {
		fmt.Println("\nLast run:")
		_ = cli.WriteRun(os.Stdout, status.LastRun, cli.OutputText)
	}
}

func statusDirect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*statusResponse, error) {
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	status := &statusResponse{Index: cfg.Index.Name, Backend: cfg.Engine.Backend, Engine: "ok"}
	if err := components.Engine.Ping(ctx); err != nil {
		status.Engine = "unavailable"
	} else if n, err := components.Engine.Count(ctx, cfg.Index.Name); err == nil {
		status.Documents = &n
	}
	last, err := components.Runs.LastRun(ctx, cfg.Index.Name)
	if err != nil {
		return nil, err
	}
	status.LastRun = last
	if n, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Engine.BlevePath); err == nil {
		status.DiskUsageBytes = &n
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	u, err := url.JoinPath(serverURL, "/api/v1/status")
	if err != nil {
		return nil, err
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpError(resp)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

// Components holds initialized services.
type Components struct {
	Engine    engine.Engine
	Runs      *storage.SQLiteStorage
	Cache     *cache.SearchCache
	Augmenter *augment.Client
	Search    *search.Orchestrator
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Runs != nil {
		_ = c.Runs.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func newEngine(cfg *config.Config, logger *zap.Logger) (engine.Engine, error) {
	switch cfg.Engine.Backend {
	case config.BackendBleve:
		return bleveengine.New(cfg.Engine.BlevePath)
	default:
		return elastic.New(elastic.Config{
			Addresses:      cfg.Engine.Hosts,
			Username:       cfg.Engine.Username,
			Password:       cfg.Engine.Password,
			APIKey:         cfg.Engine.APIKey,
			MaxRetries:     cfg.Engine.MaxRetries,
			RetryOnTimeout: cfg.Engine.RetryOnTimeoutOrDefault(),
			RequestTimeout: config.Seconds(cfg.Engine.RequestTimeoutSeconds),
		}, elastic.WithLogger(logger))
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	eng, err := newEngine(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}
	c.Engine = eng

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Runs = store

	if cfg.Cache.RedisURL != "" {
		sc, err := cache.Open(ctx, cfg.Cache.RedisURL, config.Seconds(cfg.Cache.TTLSeconds), cache.WithLogger(logger))
		if err != nil {
			logger.Warn("search cache disabled", zap.Error(err))
		} else {
			c.Cache = sc
		}
	}

	searchOpts := []search.Option{search.WithLogger(logger)}
	if c.Cache != nil {
		searchOpts = append(searchOpts, search.WithCache(c.Cache))
	}
	var augmenter search.Augmenter
	if !cfg.Augment.Disabled {
		c.Augmenter = augment.NewClient(augment.Config{
			BaseURL:       cfg.Augment.BaseURL,
			Model:         cfg.Augment.Model,
			Token:         cfg.Augment.Token,
			MaxNewTokens:  cfg.Augment.MaxNewTokens,
			Temperature:   cfg.Augment.Temperature,
			Timeout:       config.Seconds(cfg.Augment.TimeoutSeconds),
			RatePerSecond: cfg.Augment.RatePerSecond,
			Burst:         cfg.Augment.Burst,
			MaxResults:    cfg.Search.AugmentTop,
		}, augment.WithLogger(logger))
		augmenter = c.Augmenter
	}
	c.Search = search.NewOrchestrator(eng, augmenter, search.Config{
		Index:         cfg.Index.Name,
		Size:          cfg.Search.Size,
		Fragments:     cfg.Search.Fragments,
		FragmentChars: cfg.Search.FragmentChars,
		Timeout:       config.Seconds(cfg.Search.TimeoutSeconds),
		AugmentTop:    cfg.Search.AugmentTop,
	}, searchOpts...)
	return c, nil
}

func printUsage() {
	fmt.Println(`passagesearch - Passage retrieval with LLM-generated summaries

Usage:
  passagesearch server [flags]             Start the HTTP server
  passagesearch ingest [flags] <corpus>    Bulk-index a passage corpus
  passagesearch search [flags] <query>     Search passages and summarize the top hits
  passagesearch create-index [flags]       Delete and re-create the passage index
  passagesearch runs [flags] [run-id]      List ingestion runs or show one
  passagesearch status [flags]             Show engine, index and last run status
  passagesearch version                    Show version
  passagesearch help                       Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/passagesearch/config.yaml)
  --debug            Enable debug logging

Ingest Flags:
  --batch-size int       Documents per bulk request (default 1000)
  --max-docs int         Stop after this many documents, -1 for no cap (default 1000000)
  --cap-policy string    drop or flush the partial batch at the cap (default drop)
  --recreate             Delete and re-create the index first
  --output string        text or json

Search Flags:
  --server string    Query a running server instead of the engine directly
  --no-summary       Skip the generated summary
  --output string    text or json

Environment:
  ELASTICSEARCH_HOST, ELASTICSEARCH_USERNAME, ELASTICSEARCH_PASSWORD, INDEX_NAME,
  BATCH_SIZE, MAX_PASSAGES, CAP_POLICY, HF_API_TOKEN, HF_MODEL, HF_API_URL, REDIS_URL

Examples:
  passagesearch create-index
  passagesearch ingest msmarco_v2_passage.jsonl.gz
  passagesearch ingest --max-docs 5000 --cap-policy flush ./docs
  passagesearch search "what is the capital of france"
  passagesearch runs --limit 5
  passagesearch status --output json`)
}
