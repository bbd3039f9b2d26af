// Package schema defines the passage index mapping and manages (re)creation of the index.
package schema

import (
	"fmt"
)

// Field names of the passage index. They are part of the contract with the search engine.
const (
	FieldDocID      = "doc_id"
	FieldText       = "text"
	FieldTextExact  = "text.keyword"
	FieldParentID   = "msmarco_document_id"
	FieldCharLength = "doc_length"
	FieldWordCount  = "word_count"
	FieldVector     = "vector_embedding"

	// SimilarityName is the custom BM25 similarity attached to the text field.
	SimilarityName = "my_bm25"
)

// BM25 holds the ranking parameters of the text field.
type BM25 struct {
	K1 float64 `json:"k1" yaml:"k1"`
	B  float64 `json:"b" yaml:"b"`
}

// Schema describes the passage index: field types, similarity and index settings.
type Schema struct {
	Analyzer           string `json:"analyzer" yaml:"analyzer"`
	KeywordIgnoreAbove int    `json:"keyword_ignore_above" yaml:"keyword_ignore_above"`
	VectorDims         int    `json:"vector_dims" yaml:"vector_dims"`
	VectorSimilarity   string `json:"vector_similarity" yaml:"vector_similarity"`
	BM25               BM25   `json:"bm25" yaml:"bm25"`
	Shards             int    `json:"shards" yaml:"shards"`
	Replicas           int    `json:"replicas" yaml:"replicas"`
	RefreshInterval    string `json:"refresh_interval" yaml:"refresh_interval"`
}

// Default returns the passage schema: english analyzer, 384-dim cosine vectors, BM25 k1=1.2 b=0.75.
func Default() Schema {
	return Schema{
		Analyzer:           "english",
		KeywordIgnoreAbove: 256,
		VectorDims:         384,
		VectorSimilarity:   "cosine",
		BM25:               BM25{K1: 1.2, B: 0.75},
		Shards:             3,
		Replicas:           0,
		RefreshInterval:    "30s",
	}
}

// Validate reports parameters the engine would reject.
func (s Schema) Validate() error {
	if s.Analyzer == "" {
		return fmt.Errorf("schema: analyzer is required")
	}
	if s.VectorDims <= 0 {
		return fmt.Errorf("schema: vector dims must be positive, got %d", s.VectorDims)
	}
	if s.BM25.K1 < 0 {
		return fmt.Errorf("schema: bm25 k1 must be >= 0, got %g", s.BM25.K1)
	}
	if s.BM25.B < 0 || s.BM25.B > 1 {
		return fmt.Errorf("schema: bm25 b must be within [0,1], got %g", s.BM25.B)
	}
	if s.Shards <= 0 {
		return fmt.Errorf("schema: shards must be positive, got %d", s.Shards)
	}
	if s.Replicas < 0 {
		return fmt.Errorf("schema: replicas must be >= 0, got %d", s.Replicas)
	}
	return nil
}

// Body renders the create-index request body (settings and mappings) sent to Elasticsearch.
func (s Schema) Body() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				FieldDocID: map[string]interface{}{"type": "keyword"},
				FieldText: map[string]interface{}{
					"type":       "text",
					"analyzer":   s.Analyzer,
					"similarity": SimilarityName,
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword", "ignore_above": s.KeywordIgnoreAbove},
					},
				},
				FieldParentID:   map[string]interface{}{"type": "keyword"},
				FieldCharLength: map[string]interface{}{"type": "integer", "doc_values": true},
				FieldWordCount:  map[string]interface{}{"type": "short", "doc_values": true},
				FieldVector: map[string]interface{}{
					"type":       "dense_vector",
					"dims":       s.VectorDims,
					"index":      true,
					"similarity": s.VectorSimilarity,
				},
			},
		},
		"settings": map[string]interface{}{
			"number_of_shards":   s.Shards,
			"number_of_replicas": s.Replicas,
			"refresh_interval":   s.RefreshInterval,
			"similarity": map[string]interface{}{
				SimilarityName: map[string]interface{}{
					"type": "BM25",
					"b":    s.BM25.B,
					"k1":   s.BM25.K1,
				},
			},
		},
	}
}
