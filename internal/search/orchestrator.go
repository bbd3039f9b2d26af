// Package search runs ranked, highlighted queries and attaches generated summaries to the results.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/augment"
	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/errs"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// Searcher is the part of the engine client the orchestrator needs.
type Searcher interface {
	Ping(ctx context.Context) error
	Search(ctx context.Context, index string, req engine.Request) (*engine.Result, error)
}

// Augmenter summarizes the top hits of a query.
type Augmenter interface {
	Summarize(ctx context.Context, query string, hits []models.SearchHit) (augment.Summary, error)
}

// Cache stores finished responses. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, index, query string) (*models.SearchResponse, error)
	Set(ctx context.Context, index, query string, resp *models.SearchResponse) error
}

// Config controls the query sent to the engine.
type Config struct {
	Index         string
	Fields        []string
	Size          int
	Fragments     int
	FragmentChars int
	PreTag        string
	PostTag       string
	Timeout       time.Duration
	// AugmentTop is how many leading hits are passed to the augmenter.
	AugmentTop int
}

// DefaultConfig returns 20 hits over text, 3 highlight fragments of 200 characters, top 3 summarized.
func DefaultConfig(index string) Config {
	return Config{
		Index:         index,
		Fields:        []string{schema.FieldText},
		Size:          20,
		Fragments:     3,
		FragmentChars: 200,
		PreTag:        "<mark>",
		PostTag:       "</mark>",
		Timeout:       30 * time.Second,
		AugmentTop:    3,
	}
}

// Orchestrator answers queries against one index.
type Orchestrator struct {
	engine    Searcher
	augmenter Augmenter
	cache     Cache
	cfg       Config
	logger    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCache caches responses that carry no augmentation error.
func WithCache(c Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// NewOrchestrator returns an orchestrator. A nil augmenter disables summaries.
// Zero fields of cfg take their DefaultConfig values.
func NewOrchestrator(eng Searcher, augmenter Augmenter, cfg Config, opts ...Option) *Orchestrator {
	def := DefaultConfig(cfg.Index)
	if len(cfg.Fields) == 0 {
		cfg.Fields = def.Fields
	}
	if cfg.Size <= 0 {
		cfg.Size = def.Size
	}
	if cfg.Fragments <= 0 {
		cfg.Fragments = def.Fragments
	}
	if cfg.FragmentChars <= 0 {
		cfg.FragmentChars = def.FragmentChars
	}
	if cfg.PreTag == "" || cfg.PostTag == "" {
		cfg.PreTag, cfg.PostTag = def.PreTag, def.PostTag
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.AugmentTop <= 0 {
		cfg.AugmentTop = def.AugmentTop
	}
	o := &Orchestrator{engine: eng, augmenter: augmenter, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Index returns the index queries run against.
func (o *Orchestrator) Index() string { return o.cfg.Index }

func (o *Orchestrator) request(query string) engine.Request {
	return engine.Request{
		Query:  query,
		Fields: o.cfg.Fields,
		Size:   o.cfg.Size,
		Highlight: &engine.Highlight{
			Field:         schema.FieldText,
			Fragments:     o.cfg.Fragments,
			FragmentChars: o.cfg.FragmentChars,
			PreTag:        o.cfg.PreTag,
			PostTag:       o.cfg.PostTag,
		},
	}
}

// Search runs query and, when there are hits, asks for a summary of the top ones.
// Hits are returned even when summarization fails; the failure is reported in the response.
func (o *Orchestrator) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.ErrInvalidQuery
	}

	sctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()
	if err := o.engine.Ping(sctx); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrServiceUnavailable, err)
	}

	if o.cache != nil {
		cached, err := o.cache.Get(ctx, o.cfg.Index, query)
		if err != nil {
			o.logger.Warn("Search cache read failed", zap.Error(err))
		} else if cached != nil {
			// Keys are case-insensitive; echo the caller's query, not the one that filled the entry.
			cached.Query = query
			cached.Cached = true
			cached.QueryTime = time.Since(start).Milliseconds()
			return cached, nil
		}
	}

	raw, err := o.engine.Search(sctx, o.cfg.Index, o.request(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrQueryExecution, err)
	}

	resp := &models.SearchResponse{Query: query, Results: normalizeHits(raw.Hits)}
	if len(resp.Results) > 0 && o.augmenter != nil {
		o.augment(ctx, resp)
	}
	resp.QueryTime = time.Since(start).Milliseconds()

	o.logger.Debug("Search completed",
		zap.String("query", query),
		zap.Int("hits", len(resp.Results)),
		zap.Bool("augmented", resp.Augmented()),
		zap.Int64("query_time_ms", resp.QueryTime))

	if o.cache != nil && resp.AugmentationError == nil {
		if err := o.cache.Set(ctx, o.cfg.Index, query, resp); err != nil {
			o.logger.Warn("Search cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

func (o *Orchestrator) augment(ctx context.Context, resp *models.SearchResponse) {
	top := resp.Results
	if len(top) > o.cfg.AugmentTop {
		top = top[:o.cfg.AugmentTop]
	}
	summary, err := o.augmenter.Summarize(ctx, resp.Query, top)
	if err != nil {
		msg := err.Error()
		resp.AugmentationError = &msg
		o.logger.Warn("Summary generation failed", zap.String("query", resp.Query), zap.Error(err))
		return
	}
	text := summary.Text
	resp.EnhancedResponse = &text
	resp.SummarySource = summary.Source
}
