package config

import "github.com/hyperjump/passagesearch/internal/schema"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutSeconds == 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds == 0 {
		cfg.Server.WriteTimeoutSeconds = 90
	}

	if cfg.Engine.Backend == "" {
		cfg.Engine.Backend = BackendElasticsearch
	}
	if len(cfg.Engine.Hosts) == 0 {
		cfg.Engine.Hosts = []string{"http://localhost:9200"}
	}
	if cfg.Engine.MaxRetries == 0 {
		cfg.Engine.MaxRetries = 5
	}
	if cfg.Engine.Backend == BackendBleve && cfg.Engine.BlevePath == "" {
		cfg.Engine.BlevePath = "/usr/local/var/passagesearch/data/indices"
	}
	if cfg.Engine.RequestTimeoutSeconds == 0 {
		cfg.Engine.RequestTimeoutSeconds = 60
	}

	if cfg.Index.Name == "" {
		cfg.Index.Name = "msmarco_passages-v2"
	}
	applySchemaDefaults(&cfg.Index.Schema)

	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 1000
	}
	if cfg.Ingest.MaxDocuments == 0 {
		cfg.Ingest.MaxDocuments = 1000000
	}
	if cfg.Ingest.CapPolicy == "" {
		cfg.Ingest.CapPolicy = "drop"
	}
	if cfg.Ingest.WriteTimeoutSeconds == 0 {
		cfg.Ingest.WriteTimeoutSeconds = 60
	}
	if cfg.Ingest.ProgressEvery == 0 {
		cfg.Ingest.ProgressEvery = 10000
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 200
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 20
	}

	if cfg.Search.Size == 0 {
		cfg.Search.Size = 20
	}
	if cfg.Search.Fragments == 0 {
		cfg.Search.Fragments = 3
	}
	if cfg.Search.FragmentChars == 0 {
		cfg.Search.FragmentChars = 200
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = 30
	}
	if cfg.Search.AugmentTop == 0 {
		cfg.Search.AugmentTop = 3
	}

	if cfg.Augment.BaseURL == "" {
		cfg.Augment.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if cfg.Augment.Model == "" {
		cfg.Augment.Model = "mistralai/Mistral-7B-Instruct-v0.3"
	}
	if cfg.Augment.MaxNewTokens == 0 {
		cfg.Augment.MaxNewTokens = 256
	}
	if cfg.Augment.Temperature == 0 {
		cfg.Augment.Temperature = 0.3
	}
	if cfg.Augment.TimeoutSeconds == 0 {
		cfg.Augment.TimeoutSeconds = 30
	}

	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/passagesearch/data/runs.db"
	}
}

// applySchemaDefaults fills an unset schema field by field from schema.Default.
func applySchemaDefaults(s *schema.Schema) {
	def := schema.Default()
	if s.Analyzer == "" {
		s.Analyzer = def.Analyzer
	}
	if s.KeywordIgnoreAbove == 0 {
		s.KeywordIgnoreAbove = def.KeywordIgnoreAbove
	}
	if s.VectorDims == 0 {
		s.VectorDims = def.VectorDims
	}
	if s.VectorSimilarity == "" {
		s.VectorSimilarity = def.VectorSimilarity
	}
	if s.BM25 == (schema.BM25{}) {
		s.BM25 = def.BM25
	}
	if s.Shards == 0 {
		s.Shards = def.Shards
	}
	if s.RefreshInterval == "" {
		s.RefreshInterval = def.RefreshInterval
	}
}
