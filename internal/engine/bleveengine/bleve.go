// Package bleveengine implements engine.Engine on embedded Bleve indices.
// It serves local runs and tests; production deployments use the Elasticsearch backend.
package bleveengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/highlight/highlighter/html"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// ErrClosed is returned by every call after Close.
var ErrClosed = errors.New("bleve engine closed")

// schemaKey stores the schema an index was created with, so BM25 parameters survive reopen.
var schemaKey = []byte("_passage_schema")

// htmlMark is the emphasis marker emitted by Bleve's html highlighter.
const (
	htmlMarkOpen  = "<mark>"
	htmlMarkClose = "</mark>"
)

// Engine keeps one Bleve index per name, under root. An empty root keeps indices in memory.
type Engine struct {
	root    string
	mu      sync.RWMutex
	indices map[string]bleve.Index
	closed  bool
}

// New returns an engine storing indices under root. Pass "" for in-memory indices.
func New(root string) (*Engine, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index root: %w", err)
		}
	}
	return &Engine{root: root, indices: make(map[string]bleve.Index)}, nil
}

// buildMapping translates s into a Bleve mapping. Bleve has no dense vector or BM25
// similarity in this version; those settings are kept with the index metadata only.
func buildMapping(s schema.Schema) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// "english" maps to Bleve's en analyzer (possessives, stop words, porter stemming).
	textFieldMapping.Analyzer = en.AnalyzerName
	exactFieldMapping := bleve.NewKeywordFieldMapping()
	exactFieldMapping.Name = schema.FieldTextExact
	exactFieldMapping.Store = false
	exactFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt(schema.FieldText, textFieldMapping, exactFieldMapping)

	docMapping.AddFieldMappingsAt(schema.FieldDocID, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(schema.FieldParentID, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(schema.FieldCharLength, bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt(schema.FieldWordCount, bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("passage", docMapping)
	im.DefaultType = "passage"
	im.DefaultMapping = docMapping
	return im
}

func (e *Engine) path(name string) string {
	return filepath.Join(e.root, name)
}

// open returns the named index, opening it from disk when needed. Callers hold e.mu.
func (e *Engine) open(name string) (bleve.Index, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if idx, ok := e.indices[name]; ok {
		return idx, nil
	}
	if e.root == "" {
		return nil, fmt.Errorf("index %q not found", name)
	}
	idx, err := bleve.Open(e.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to open Bleve index %q: %w", name, err)
	}
	e.indices[name] = idx
	return idx, nil
}

func (e *Engine) index(name string) (bleve.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open(name)
}

// Ping fails only once the engine is closed.
func (e *Engine) Ping(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return ctx.Err()
}

// IndexExists reports whether name is open or present on disk.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false, ErrClosed
	}
	if _, ok := e.indices[name]; ok {
		return true, nil
	}
	if e.root == "" {
		return false, nil
	}
	if _, err := os.Stat(e.path(name)); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	return false, nil
}

// DeleteIndex closes and removes the named index. Deleting a missing index is a no-op.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if idx, ok := e.indices[name]; ok {
		delete(e.indices, name)
		if err := idx.Close(); err != nil {
			return fmt.Errorf("failed to close Bleve index %q: %w", name, err)
		}
	}
	if e.root == "" {
		return nil
	}
	if err := os.RemoveAll(e.path(name)); err != nil {
		return fmt.Errorf("failed to remove Bleve index %q: %w", name, err)
	}
	return nil
}

// CreateIndex creates name with the mapping derived from s. It fails if the index exists.
func (e *Engine) CreateIndex(ctx context.Context, name string, s schema.Schema) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if _, ok := e.indices[name]; ok {
		return fmt.Errorf("index %q already exists", name)
	}
	im := buildMapping(s)
	var (
		idx bleve.Index
		err error
	)
	if e.root == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		idx, err = bleve.New(e.path(name), im)
	}
	if err != nil {
		return fmt.Errorf("failed to create Bleve index %q: %w", name, err)
	}
	meta, err := json.Marshal(s)
	if err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := idx.SetInternal(schemaKey, meta); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to store schema: %w", err)
	}
	e.indices[name] = idx
	return nil
}

// Schema returns the schema name was created with.
func (e *Engine) Schema(name string) (schema.Schema, error) {
	var s schema.Schema
	idx, err := e.index(name)
	if err != nil {
		return s, err
	}
	raw, err := idx.GetInternal(schemaKey)
	if err != nil {
		return s, fmt.Errorf("failed to read schema: %w", err)
	}
	if raw == nil {
		return s, fmt.Errorf("index %q has no stored schema", name)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("failed to decode schema: %w", err)
	}
	return s, nil
}

func documentFields(doc models.Document) map[string]interface{} {
	return map[string]interface{}{
		schema.FieldDocID:      doc.DocID,
		schema.FieldText:       doc.Text,
		schema.FieldParentID:   doc.ParentDocumentID,
		schema.FieldCharLength: float64(doc.CharLength),
		schema.FieldWordCount:  float64(doc.WordCount),
	}
}

// Bulk indexes docs in one Bleve batch. Documents without an id are reported as failed items.
func (e *Engine) Bulk(ctx context.Context, index string, docs []models.Document) (engine.BulkResult, error) {
	var res engine.BulkResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	idx, err := e.index(index)
	if err != nil {
		return res, err
	}
	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.DocID, documentFields(doc)); err != nil {
			res.Failed = append(res.Failed, engine.BulkFailure{DocID: doc.DocID, Status: 400, Reason: err.Error()})
			continue
		}
		res.Succeeded++
	}
	if err := idx.Batch(batch); err != nil {
		return engine.BulkResult{}, fmt.Errorf("Bleve batch failed: %w", err)
	}
	return res, nil
}

// Search runs a match query over req.Fields (a disjunction when there is more than one).
func (e *Engine) Search(ctx context.Context, index string, req engine.Request) (*engine.Result, error) {
	idx, err := e.index(index)
	if err != nil {
		return nil, err
	}
	fields := req.Fields
	if len(fields) == 0 {
		fields = []string{schema.FieldText}
	}
	var q blevequery.Query
	if len(fields) == 1 {
		mq := bleve.NewMatchQuery(req.Query)
		mq.SetField(fields[0])
		q = mq
	} else {
		queries := make([]blevequery.Query, 0, len(fields))
		for _, f := range fields {
			mq := bleve.NewMatchQuery(req.Query)
			mq.SetField(f)
			queries = append(queries, mq)
		}
		q = bleve.NewDisjunctionQuery(queries...)
	}

	search := bleve.NewSearchRequest(q)
	search.Size = req.Size
	search.Fields = []string{schema.FieldDocID, schema.FieldText, schema.FieldParentID}
	if req.Highlight != nil {
		search.Highlight = bleve.NewHighlightWithStyle(html.Name)
		search.Highlight.AddField(req.Highlight.Field)
	}
	results, err := idx.SearchInContext(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := &engine.Result{Total: int64(results.Total), Hits: make([]engine.Hit, 0, len(results.Hits))}
	for _, hit := range results.Hits {
		h := engine.Hit{ID: hit.ID, Score: hit.Score, Source: hit.Fields}
		if req.Highlight != nil {
			h.Highlights = map[string][]string{
				req.Highlight.Field: retag(hit.Fragments[req.Highlight.Field], req.Highlight),
			}
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

// retag caps the fragment count and swaps the html marker for the requested tags.
func retag(fragments []string, hl *engine.Highlight) []string {
	if hl.Fragments > 0 && len(fragments) > hl.Fragments {
		fragments = fragments[:hl.Fragments]
	}
	out := make([]string, len(fragments))
	for i, f := range fragments {
		if hl.PreTag != "" && hl.PreTag != htmlMarkOpen {
			f = strings.ReplaceAll(f, htmlMarkOpen, hl.PreTag)
		}
		if hl.PostTag != "" && hl.PostTag != htmlMarkClose {
			f = strings.ReplaceAll(f, htmlMarkClose, hl.PostTag)
		}
		out[i] = f
	}
	return out
}

// Count returns the number of documents in index.
func (e *Engine) Count(ctx context.Context, index string) (int64, error) {
	idx, err := e.index(index)
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int64(n), nil
}

// Close closes every open index.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	var firstErr error
	for name, idx := range e.indices {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close Bleve index %q: %w", name, err)
		}
	}
	e.indices = nil
	return firstErr
}

var _ engine.Engine = (*Engine)(nil)
