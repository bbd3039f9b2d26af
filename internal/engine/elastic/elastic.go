// Package elastic implements engine.Engine on Elasticsearch through go-elasticsearch/v8.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// Config holds the connection settings of the Elasticsearch client.
type Config struct {
	Addresses      []string
	Username       string
	Password       string
	APIKey         string
	MaxRetries     int
	RetryOnTimeout bool
	// RequestTimeout bounds each attempt while waiting for response headers.
	// A whole call, retries included, gets (MaxRetries+1) attempts plus backoff.
	RequestTimeout time.Duration
	// Transport overrides the HTTP transport, mainly for tests. RequestTimeout is then
	// only applied to the whole call; per-attempt limits are up to the transport.
	Transport http.RoundTripper
}

// Engine is an Elasticsearch-backed engine.Engine.
type Engine struct {
	es        *elasticsearch.Client
	transport http.RoundTripper
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func retryBackoff(attempt int) time.Duration {
	return time.Duration(attempt) * 100 * time.Millisecond
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryOnError retries connection errors always and timeouts only when retryOnTimeout is set.
// A cancelled request is never retried.
func retryOnError(retryOnTimeout bool) func(*http.Request, error) bool {
	return func(req *http.Request, err error) bool {
		if errors.Is(err, context.Canceled) || req.Context().Err() != nil {
			return false
		}
		if isTimeout(err) {
			return retryOnTimeout
		}
		return true
	}
}

// New builds a client for cfg. No request is made until the first call.
func New(cfg Config, opts ...Option) (*Engine, error) {
	transport := cfg.Transport
	if transport == nil && cfg.RequestTimeout > 0 {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ResponseHeaderTimeout = cfg.RequestTimeout
		transport = t
	}
	esCfg := elasticsearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		APIKey:        cfg.APIKey,
		MaxRetries:    cfg.MaxRetries,
		RetryOnError:  retryOnError(cfg.RetryOnTimeout),
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff:  retryBackoff,
		Transport:     transport,
	}
	if cfg.MaxRetries == 0 {
		esCfg.DisableRetry = true
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	var timeout time.Duration
	if cfg.RequestTimeout > 0 {
		timeout = cfg.RequestTimeout * time.Duration(cfg.MaxRetries+1)
		for i := 1; i <= cfg.MaxRetries; i++ {
			timeout += retryBackoff(i)
		}
	}
	e := &Engine{es: es, transport: transport, timeout: timeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}

// responseError turns a non-2xx response into an error carrying the engine's reason.
func responseError(op string, res *esapi.Response) error {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Reason != "" {
		return fmt.Errorf("%s failed (%d): %s: %s", op, res.StatusCode, body.Error.Type, body.Error.Reason)
	}
	return fmt.Errorf("%s failed (%d): %s", op, res.StatusCode, bytes.TrimSpace(raw))
}

// Ping checks that the cluster answers.
func (e *Engine) Ping(ctx context.Context) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Ping(e.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("ping", res)
	}
	return nil
}

// IndexExists reports whether name exists (HEAD /{name}).
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Indices.Exists([]string{name}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index existence: %w", err)
	}
	defer res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("check index existence", res)
	}
}

// DeleteIndex deletes name. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Indices.Delete([]string{name},
		e.es.Indices.Delete.WithContext(ctx),
		e.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}
	e.logger.Info("Index deleted", zap.String("index", name))
	return nil
}

// CreateIndex creates name with s.Body() as settings and mappings.
func (e *Engine) CreateIndex(ctx context.Context, name string, s schema.Schema) error {
	body, err := json.Marshal(s.Body())
	if err != nil {
		return fmt.Errorf("encode index body: %w", err)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Indices.Create(name,
		e.es.Indices.Create.WithContext(ctx),
		e.es.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	e.logger.Info("Index created", zap.String("index", name))
	return nil
}

// bulkBody renders docs as _bulk NDJSON, one index action per document keyed by doc id.
func bulkBody(index string, docs []models.Document) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": index,
				"_id":    doc.DocID,
			},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, err
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')

		docLine, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		buf.Write(docLine)
		buf.WriteByte('\n')
	}
	return &buf, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// Bulk writes docs in one _bulk request and reports per-item outcomes.
func (e *Engine) Bulk(ctx context.Context, index string, docs []models.Document) (engine.BulkResult, error) {
	var out engine.BulkResult
	if len(docs) == 0 {
		return out, nil
	}
	body, err := bulkBody(index, docs)
	if err != nil {
		return out, fmt.Errorf("encode bulk body: %w", err)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Bulk(body,
		e.es.Bulk.WithContext(ctx),
		e.es.Bulk.WithIndex(index),
	)
	if err != nil {
		return out, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return out, responseError("bulk index", res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return out, fmt.Errorf("parse bulk response: %w", err)
	}
	for _, item := range parsed.Items {
		for _, r := range item {
			if r.Error != nil || r.Status >= 300 {
				reason := http.StatusText(r.Status)
				if r.Error != nil {
					reason = r.Error.Type + ": " + r.Error.Reason
				}
				out.Failed = append(out.Failed, engine.BulkFailure{DocID: r.ID, Status: r.Status, Reason: reason})
				continue
			}
			out.Succeeded++
		}
	}
	return out, nil
}

// searchBody renders a multi_match query with optional highlighting.
func searchBody(req engine.Request) map[string]interface{} {
	body := map[string]interface{}{
		"size": req.Size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  req.Query,
				"fields": req.Fields,
			},
		},
	}
	if hl := req.Highlight; hl != nil {
		body["highlight"] = map[string]interface{}{
			"pre_tags":  []string{hl.PreTag},
			"post_tags": []string{hl.PostTag},
			"fields": map[string]interface{}{
				hl.Field: map[string]interface{}{
					"fragment_size":       hl.FragmentChars,
					"number_of_fragments": hl.Fragments,
				},
			},
		}
	}
	return body
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string                 `json:"_id"`
			Score     float64                `json:"_score"`
			Source    map[string]interface{} `json:"_source"`
			Highlight map[string][]string    `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs req against index.
func (e *Engine) Search(ctx context.Context, index string, req engine.Request) (*engine.Result, error) {
	body, err := json.Marshal(searchBody(req))
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	out := &engine.Result{Total: parsed.Hits.Total.Value, Hits: make([]engine.Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, engine.Hit{
			ID:         h.ID,
			Score:      h.Score,
			Source:     h.Source,
			Highlights: h.Highlight,
		})
	}
	return out, nil
}

// Count returns the document count of index.
func (e *Engine) Count(ctx context.Context, index string) (int64, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Count(e.es.Count.WithContext(ctx), e.es.Count.WithIndex(index))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError("count", res)
	}
	var parsed struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("parse count response: %w", err)
	}
	return parsed.Count, nil
}

// Refresh makes recent writes searchable without waiting for the refresh interval.
func (e *Engine) Refresh(ctx context.Context, index string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()
	res, err := e.es.Indices.Refresh(
		e.es.Indices.Refresh.WithContext(ctx),
		e.es.Indices.Refresh.WithIndex(index),
	)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("refresh", res)
	}
	return nil
}

// Close releases idle connections of the configured transport.
func (e *Engine) Close() error {
	if t, ok := e.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

var _ engine.Engine = (*Engine)(nil)
