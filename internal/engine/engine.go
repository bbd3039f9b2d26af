// Package engine defines the narrow search engine client used by the ingestion and query pipelines.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// Engine is a full-text search engine holding named passage indices.
type Engine interface {
	schema.IndexAdmin
	// Ping returns an error when the engine cannot be reached.
	Ping(ctx context.Context) error
	// Bulk writes docs to index in a single request.
	// A non-nil error means the request itself failed; item failures are reported in BulkResult.
	Bulk(ctx context.Context, index string, docs []models.Document) (BulkResult, error)
	Search(ctx context.Context, index string, req Request) (*Result, error)
	// Count returns the number of searchable documents in index.
	Count(ctx context.Context, index string) (int64, error)
	Close() error
}

// BulkFailure describes one document the engine rejected.
type BulkFailure struct {
	DocID  string `json:"doc_id"`
	Status int    `json:"status"`
	Reason string `json:"reason"`
}

// BulkResult is the outcome of one bulk write.
type BulkResult struct {
	Succeeded int
	Failed    []BulkFailure
}

// Err returns an error summarizing item failures, or nil when every item succeeded.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	reasons := make([]string, 0, 3)
	for i, f := range r.Failed {
		if i == 3 {
			break
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", f.DocID, f.Reason))
	}
	return fmt.Errorf("%d of %d documents failed (%s)", len(r.Failed), r.Succeeded+len(r.Failed), strings.Join(reasons, "; "))
}

// Highlight configures highlighted fragments for a search.
type Highlight struct {
	Field         string
	Fragments     int
	FragmentChars int
	PreTag        string
	PostTag       string
}

// Request is a ranked text match over one or more fields.
type Request struct {
	Query     string
	Fields    []string
	Size      int
	Highlight *Highlight
}

// Hit is one raw ranked hit. Source may lack fields; callers normalize.
type Hit struct {
	ID         string
	Score      float64
	Source     map[string]interface{}
	Highlights map[string][]string
}

// Result is the raw outcome of a search.
type Result struct {
	Total int64
	Hits  []Hit
}

// StringField returns Source[key] as a string, or "" when absent or not a string.
func (h Hit) StringField(key string) string {
	if h.Source == nil {
		return ""
	}
	s, _ := h.Source[key].(string)
	return s
}
