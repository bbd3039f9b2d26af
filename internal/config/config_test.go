package config

import (
	"os"
	"path/filepath"
	"testing"
)

var envKeys = []string{
	"ELASTICSEARCH_HOST", "ELASTICSEARCH_USERNAME", "ELASTICSEARCH_PASSWORD", "ELASTICSEARCH_API_KEY",
	"ENGINE_BACKEND", "INDEX_NAME", "BATCH_SIZE", "MAX_PASSAGES", "CAP_POLICY",
	"HF_API_TOKEN", "HF_MODEL", "HF_API_URL", "REDIS_URL", "PASSAGESEARCH_DEBUG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		// Setenv restores the original value on cleanup; unset so .env files can fill it.
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
engine:
  backend: bleve
index:
  name: passages
ingest:
  batch_size: 50
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Engine.Backend != BackendBleve {
		t.Errorf("backend = %s, want bleve", cfg.Engine.Backend)
	}
	if cfg.Index.Name != "passages" {
		t.Errorf("index name = %s", cfg.Index.Name)
	}
	if cfg.Ingest.BatchSize != 50 {
		t.Errorf("batch size = %d, want 50", cfg.Ingest.BatchSize)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.Name != "msmarco_passages-v2" {
		t.Errorf("index name = %s", cfg.Index.Name)
	}
	if cfg.Engine.Hosts[0] != "http://localhost:9200" {
		t.Errorf("hosts = %v", cfg.Engine.Hosts)
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_zeroMaxPassagesIsUnlimited(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_PASSAGES", "0")
	cfg, err := Load(writeConfig(t, "ingest:\n  batch_size: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.DocumentCap() != 0 {
		t.Errorf("document cap = %d, want unlimited", cfg.Ingest.DocumentCap())
	}

	clearEnv(t)
	cfg, err = Load(writeConfig(t, "ingest:\n  batch_size: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ingest.DocumentCap() != 1000000 {
		t.Errorf("default document cap = %d, want 1000000", cfg.Ingest.DocumentCap())
	}
}

func TestLoad_environmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELASTICSEARCH_HOST", "http://es1:9200, http://es2:9200")
	t.Setenv("INDEX_NAME", "from_env")
	t.Setenv("BATCH_SIZE", "250")
	t.Setenv("MAX_PASSAGES", "-1")
	t.Setenv("CAP_POLICY", "flush")
	t.Setenv("HF_API_TOKEN", "hf_secret")
	t.Setenv("PASSAGESEARCH_DEBUG", "true")
	path := writeConfig(t, `
index:
  name: from_file
ingest:
  batch_size: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Engine.Hosts) != 2 || cfg.Engine.Hosts[1] != "http://es2:9200" {
		t.Errorf("hosts = %v", cfg.Engine.Hosts)
	}
	if cfg.Index.Name != "from_env" {
		t.Errorf("index name = %s, want from_env", cfg.Index.Name)
	}
	if cfg.Ingest.BatchSize != 250 {
		t.Errorf("batch size = %d, want 250", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.DocumentCap() != 0 {
		t.Errorf("document cap = %d, want unlimited", cfg.Ingest.DocumentCap())
	}
	if cfg.Ingest.CapPolicy != "flush" {
		t.Errorf("cap policy = %s", cfg.Ingest.CapPolicy)
	}
	if cfg.Augment.Token != "hf_secret" {
		t.Errorf("token not applied")
	}
	if !cfg.Debug {
		t.Error("debug should be enabled from env")
	}
}

func TestLoad_dotEnvBesideConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "")
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(dotenv, []byte("REDIS_URL=redis://cache:6379/0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/0" {
		t.Errorf("redis url = %q", cfg.Cache.RedisURL)
	}
}

func TestLoad_rejectsInvalidSettings(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"backend":    "engine:\n  backend: solr\n",
		"cap policy": "ingest:\n  cap_policy: truncate\n",
		"batch size": "ingest:\n  batch_size: -5\n",
		"bm25 b":     "index:\n  schema:\n    bm25:\n      k1: 1.2\n      b: 2\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
engine:
  bleve_path: "./data/indices"
storage:
  database_path: "./data/db/runs.db"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "runs.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantIdx := filepath.Join(dir, "data", "indices")
	if cfg.Engine.BlevePath != wantIdx {
		t.Errorf("bleve_path = %s, want %s", cfg.Engine.BlevePath, wantIdx)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Engine.Backend != BackendElasticsearch {
		t.Errorf("default backend: got %s", cfg.Engine.Backend)
	}
	if cfg.Engine.MaxRetries != 5 || cfg.Engine.RequestTimeoutSeconds != 60 {
		t.Errorf("default retries/timeout: got %d/%d", cfg.Engine.MaxRetries, cfg.Engine.RequestTimeoutSeconds)
	}
	if cfg.Ingest.BatchSize != 1000 || cfg.Ingest.MaxDocuments != 1000000 {
		t.Errorf("default batch/cap: got %d/%d", cfg.Ingest.BatchSize, cfg.Ingest.MaxDocuments)
	}
	if cfg.Ingest.CapPolicy != "drop" {
		t.Errorf("default cap policy: got %s", cfg.Ingest.CapPolicy)
	}
	if cfg.Search.Size != 20 || cfg.Search.AugmentTop != 3 {
		t.Errorf("default search: got %+v", cfg.Search)
	}
	if cfg.Index.Schema.BM25.K1 != 1.2 || cfg.Index.Schema.BM25.B != 0.75 {
		t.Errorf("default bm25: got %+v", cfg.Index.Schema.BM25)
	}
	if cfg.Augment.Model != "mistralai/Mistral-7B-Instruct-v0.3" {
		t.Errorf("default model: got %s", cfg.Augment.Model)
	}
}

func TestEngineConfig_RetryOnTimeoutOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		e := &EngineConfig{}
		if got := e.RetryOnTimeoutOrDefault(); !got {
			t.Errorf("RetryOnTimeoutOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		e := &EngineConfig{RetryOnTimeout: &f}
		if got := e.RetryOnTimeoutOrDefault(); got {
			t.Errorf("RetryOnTimeoutOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	ApplyDefaults(cfg)
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Storage.DatabasePath != "/tmp/db" {
		t.Errorf("loaded database path: got %s", loaded.Storage.DatabasePath)
	}
}
