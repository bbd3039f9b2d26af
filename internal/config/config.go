// Package config provides configuration loading for the passagesearch commands and server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// Engine backends.
const (
	BackendElasticsearch = "elasticsearch"
	BackendBleve         = "bleve"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Engine  EngineConfig  `yaml:"engine"`
	Index   IndexConfig   `yaml:"index"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Search  SearchConfig  `yaml:"search"`
	Augment AugmentConfig `yaml:"augment"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// EngineConfig selects and configures the search engine backend.
type EngineConfig struct {
	Backend               string   `yaml:"backend"`
	Hosts                 []string `yaml:"hosts"`
	Username              string   `yaml:"username"`
	Password              string   `yaml:"password"`
	APIKey                string   `yaml:"api_key"`
	MaxRetries            int      `yaml:"max_retries"`
	RetryOnTimeout        *bool    `yaml:"retry_on_timeout"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	// BlevePath is the directory of embedded indices. Empty keeps them in memory.
	BlevePath string `yaml:"bleve_path"`
}

// RetryOnTimeoutOrDefault returns whether timed-out requests are retried; defaults to true when unset.
func (e *EngineConfig) RetryOnTimeoutOrDefault() bool {
	if e.RetryOnTimeout != nil {
		return *e.RetryOnTimeout
	}
	return true
}

// IndexConfig names the passage index and its schema.
type IndexConfig struct {
	Name   string        `yaml:"name"`
	Schema schema.Schema `yaml:"schema"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	BatchSize int `yaml:"batch_size"`
	// MaxDocuments below zero disables the cap. MAX_PASSAGES=0 does the same.
	MaxDocuments        int    `yaml:"max_documents"`
	CapPolicy           string `yaml:"cap_policy"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	ProgressEvery       int    `yaml:"progress_every"`
	// ChunkSize and ChunkOverlap (in words) cut directory corpora into passages.
	ChunkSize    int   `yaml:"chunk_size"`
	ChunkOverlap int   `yaml:"chunk_overlap"`
	MaxFileBytes int64 `yaml:"max_file_bytes"`
}

// SearchConfig holds query settings.
type SearchConfig struct {
	Size           int `yaml:"size"`
	Fragments      int `yaml:"fragments"`
	FragmentChars  int `yaml:"fragment_chars"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
	AugmentTop     int `yaml:"augment_top"`
}

// AugmentConfig holds inference endpoint settings.
type AugmentConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Token          string  `yaml:"token"`
	MaxNewTokens   int     `yaml:"max_new_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	// Disabled turns summaries off entirely instead of reporting a missing token per query.
	Disabled bool `yaml:"disabled"`
}

// CacheConfig holds the Redis response cache settings. An empty RedisURL disables caching.
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// StorageConfig holds local paths.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// Load reads the config file at path, then .env files, then environment overrides, and applies defaults.
// A missing file (or an empty path) yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		configDir = filepath.Dir(path)
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}
	if cfg.Engine.BlevePath != "" {
		cfg.Engine.BlevePath = expandPath(cfg.Engine.BlevePath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	seen := map[string]bool{}
	for _, dir := range []string{".", configDir} {
		p := filepath.Join(dir, ".env")
		abs, err := filepath.Abs(p)
		if err == nil && seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overrides cfg with the variables the deployment scripts set.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ELASTICSEARCH_HOST"); v != "" {
		cfg.Engine.Hosts = splitList(v)
	}
	applyString("ELASTICSEARCH_USERNAME", &cfg.Engine.Username)
	applyString("ELASTICSEARCH_PASSWORD", &cfg.Engine.Password)
	applyString("ELASTICSEARCH_API_KEY", &cfg.Engine.APIKey)
	applyString("ENGINE_BACKEND", &cfg.Engine.Backend)
	applyString("INDEX_NAME", &cfg.Index.Name)
	applyInt("BATCH_SIZE", &cfg.Ingest.BatchSize)
	applyInt("MAX_PASSAGES", &cfg.Ingest.MaxDocuments)
	if os.Getenv("MAX_PASSAGES") != "" && cfg.Ingest.MaxDocuments == 0 {
		// Zero from the environment means no cap; in the file it means the default.
		cfg.Ingest.MaxDocuments = -1
	}
	applyString("CAP_POLICY", &cfg.Ingest.CapPolicy)
	applyString("HF_API_TOKEN", &cfg.Augment.Token)
	applyString("HF_MODEL", &cfg.Augment.Model)
	applyString("HF_API_URL", &cfg.Augment.BaseURL)
	applyString("REDIS_URL", &cfg.Cache.RedisURL)
	if v := os.Getenv("PASSAGESEARCH_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

func applyString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func applyInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports settings no component could run with.
func (c *Config) Validate() error {
	switch c.Engine.Backend {
	case BackendElasticsearch, BackendBleve:
	default:
		return fmt.Errorf("config: unknown engine backend %q", c.Engine.Backend)
	}
	if c.Index.Name == "" {
		return fmt.Errorf("config: index name is required")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.Ingest.BatchSize)
	}
	if _, ok := models.ParseCapPolicy(c.Ingest.CapPolicy); !ok {
		return fmt.Errorf("config: unknown cap_policy %q", c.Ingest.CapPolicy)
	}
	if err := c.Index.Schema.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
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

// DocumentCap returns the ingestion cap, 0 meaning unlimited.
func (i *IngestConfig) DocumentCap() int {
	if i.MaxDocuments < 0 {
		return 0
	}
	return i.MaxDocuments
}

// Seconds converts a *_seconds setting to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
