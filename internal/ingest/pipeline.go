// Package ingest streams a corpus into the passage index in fixed-size bulk batches.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/corpus"
	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/errs"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

const (
	DefaultBatchSize     = 1000
	DefaultMaxDocuments  = 1000000
	DefaultWriteTimeout  = 60 * time.Second
	DefaultProgressEvery = 10000
)

// BulkWriter is the part of the engine client the pipeline needs.
type BulkWriter interface {
	schema.IndexAdmin
	Bulk(ctx context.Context, index string, docs []models.Document) (engine.BulkResult, error)
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.IngestionRun) error
}

// Options bound one ingestion run.
type Options struct {
	BatchSize int
	// MaxDocuments stops consumption once this many documents were indexed. Zero disables the cap.
	MaxDocuments int
	CapPolicy    models.CapPolicy
}

// Pipeline writes corpus records into one index.
type Pipeline struct {
	writer        BulkWriter
	manager       *schema.Manager
	index         string
	schema        schema.Schema
	writeTimeout  time.Duration
	progressEvery int
	recorder      RunRecorder
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for progress and batch failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSchema sets the schema used when the index has to be created.
func WithSchema(s schema.Schema) Option {
	return func(p *Pipeline) { p.schema = s }
}

// WithWriteTimeout bounds each bulk request.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithProgressEvery sets how many indexed documents separate two progress log lines.
func WithProgressEvery(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.progressEvery = n
		}
	}
}

// WithRecorder persists every finished run.
func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// NewPipeline returns a pipeline writing to index through writer.
func NewPipeline(writer BulkWriter, index string, opts ...Option) *Pipeline {
	p := &Pipeline{
		writer:        writer,
		index:         index,
		schema:        schema.Default(),
		writeTimeout:  DefaultWriteTimeout,
		progressEvery: DefaultProgressEvery,
		logger:        zap.NewNop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.manager = schema.NewManager(writer, p.logger)
	return p
}

func (o Options) validate() (models.CapPolicy, error) {
	if o.BatchSize <= 0 {
		return "", fmt.Errorf("%w: batch size must be positive, got %d", errs.ErrConfiguration, o.BatchSize)
	}
	if o.MaxDocuments < 0 {
		return "", fmt.Errorf("%w: max documents must be >= 0, got %d", errs.ErrConfiguration, o.MaxDocuments)
	}
	policy, ok := models.ParseCapPolicy(string(o.CapPolicy))
	if !ok {
		return "", fmt.Errorf("%w: unknown cap policy %q", errs.ErrConfiguration, o.CapPolicy)
	}
	return policy, nil
}

// run holds the mutable state of one Ingest call.
type run struct {
	p     *Pipeline
	rec   *models.IngestionRun
	batch []models.Document
}

// submit writes the pending batch and clears it. It reports whether the batch was fully indexed.
// A transport error, a non-2xx response or any rejected item fails the whole batch.
func (r *run) submit(ctx context.Context) bool {
	if len(r.batch) == 0 {
		return true
	}
	r.rec.Batches++
	n := len(r.batch)
	wctx, cancel := context.WithTimeout(ctx, r.p.writeTimeout)
	res, err := r.p.writer.Bulk(wctx, r.p.index, r.batch)
	cancel()
	r.batch = r.batch[:0]
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		r.rec.FailedBatches++
		r.p.logger.Error("Batch write failed",
			zap.Int("batch", r.rec.Batches),
			zap.Int("documents", n),
			zap.Error(fmt.Errorf("%w: %w", errs.ErrBatchWrite, err)))
		return false
	}
	before := r.rec.TotalIndexed
	r.rec.TotalIndexed += res.Succeeded
	if r.rec.TotalIndexed/r.p.progressEvery > before/r.p.progressEvery {
		r.p.logger.Info("Ingestion progress",
			zap.String("index", r.p.index),
			zap.Int("indexed", r.rec.TotalIndexed),
			zap.Int("failed_batches", r.rec.FailedBatches))
	}
	return true
}

func (r *run) capReached() bool {
	return r.rec.MaxDocuments > 0 && r.rec.TotalIndexed >= r.rec.MaxDocuments
}

// flushDue reports whether the pending batch must be submitted now.
func (r *run) flushDue() bool {
	if len(r.batch) >= r.rec.BatchSize {
		return true
	}
	return r.rec.CapPolicy == models.CapFlush && r.rec.MaxDocuments > 0 &&
		r.rec.TotalIndexed+len(r.batch) >= r.rec.MaxDocuments
}

// Ingest ensures the index exists, then streams src into it.
//
// The returned run is never nil. A non-nil error means the run did not complete:
// the index could not be ensured, the source failed, or ctx was cancelled.
// Failed batches alone do not make Ingest return an error; they are counted in the run.
func (p *Pipeline) Ingest(ctx context.Context, src corpus.Source, opts Options) (*models.IngestionRun, error) {
	rec := &models.IngestionRun{
		ID:           uuid.New().String(),
		Index:        p.index,
		Source:       src.Name(),
		BatchSize:    opts.BatchSize,
		MaxDocuments: opts.MaxDocuments,
		Status:       models.RunRunning,
		StartedAt:    p.now().UTC(),
	}
	policy, err := opts.validate()
	if err != nil {
		return p.finish(ctx, rec, models.RunFailed, err)
	}
	rec.CapPolicy = policy

	created, err := p.manager.CreateIfMissing(ctx, p.index, p.schema)
	if err != nil {
		return p.finish(ctx, rec, models.RunFailed, fmt.Errorf("ensure index %q: %w", p.index, err))
	}
	p.logger.Info("Ingestion started",
		zap.String("run_id", rec.ID),
		zap.String("index", p.index),
		zap.String("source", rec.Source),
		zap.Bool("index_created", created),
		zap.Int("batch_size", rec.BatchSize),
		zap.Int("max_documents", rec.MaxDocuments),
		zap.String("cap_policy", string(policy)))

	r := &run{p: p, rec: rec, batch: make([]models.Document, 0, opts.BatchSize)}
	var sourceErr error
	for record, err := range src.Records(ctx) {
		if err != nil {
			var recErr *corpus.RecordError
			if errors.As(err, &recErr) {
				rec.SkippedRecords++
				p.logger.Warn("Skipping malformed record", zap.Error(err))
				continue
			}
			sourceErr = err
			break
		}
		if ctx.Err() != nil {
			break
		}
		if record.ID == "" || strings.TrimSpace(record.Text) == "" {
			rec.SkippedRecords++
			continue
		}
		r.batch = append(r.batch, models.NewDocument(record))
		if !r.flushDue() {
			continue
		}
		if r.submit(ctx) && r.capReached() {
			rec.CapReached = true
			break
		}
	}

	switch {
	case ctx.Err() != nil:
		return p.finish(ctx, rec, models.RunCancelled, ctx.Err())
	case sourceErr != nil:
		r.submit(ctx)
		return p.finish(ctx, rec, models.RunFailed, fmt.Errorf("read corpus: %w", sourceErr))
	case rec.CapReached:
		// The cap is only checked right after a submit, so nothing is pending here.
		return p.finish(ctx, rec, models.RunCapped, nil)
	default:
		r.submit(ctx)
		return p.finish(ctx, rec, models.RunCompleted, nil)
	}
}

func (p *Pipeline) finish(ctx context.Context, rec *models.IngestionRun, status models.RunStatus, err error) (*models.IngestionRun, error) {
	rec.Status = status
	rec.FinishedAt = p.now().UTC()
	if err != nil {
		rec.Error = err.Error()
	}

	fields := []zap.Field{
		zap.String("run_id", rec.ID),
		zap.String("status", string(status)),
		zap.Int("total_indexed", rec.TotalIndexed),
		zap.Int("batches", rec.Batches),
		zap.Int("failed_batches", rec.FailedBatches),
		zap.Int("skipped_records", rec.SkippedRecords),
		zap.Duration("duration", rec.Duration()),
	}
	switch {
	case err != nil:
		p.logger.Error("Ingestion stopped", append(fields, zap.Error(err))...)
	case rec.FailedBatches > 0:
		p.logger.Warn("Ingestion finished with failed batches", fields...)
	default:
		p.logger.Info("Ingestion finished", fields...)
	}

	if p.recorder != nil {
		if rerr := p.recorder.RecordRun(context.WithoutCancel(ctx), rec); rerr != nil {
			p.logger.Warn("Failed to record run", zap.String("run_id", rec.ID), zap.Error(rerr))
		}
	}
	return rec, err
}
