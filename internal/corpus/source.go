// Package corpus provides lazy, re-readable sources of passage records.
package corpus

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/passagesearch/internal/models"
)

// Source yields corpus records lazily. Every call to Records re-reads from the start.
//
// A *RecordError means one record was malformed and iteration continues;
// any other error ends the sequence.
type Source interface {
	Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error]
	// Name describes the source in logs and run records.
	Name() string
}

// RecordError reports a malformed record. The source keeps going after yielding it.
type RecordError struct {
	Location string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("malformed record at %s: %v", e.Location, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Records adapts an in-memory slice. Used by tests and small imports.
type Records []models.CorpusRecord

// Name implements Source.
func (r Records) Name() string { return fmt.Sprintf("memory(%d)", len(r)) }

// Records implements Source.
func (r Records) Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error] {
	return func(yield func(models.CorpusRecord, error) bool) {
		for _, rec := range r {
			if err := ctx.Err(); err != nil {
				yield(models.CorpusRecord{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Open picks a source for path by its extension: .jsonl/.ndjson/.json, .tsv, .xlsx
// (the first two optionally gzipped), or a directory of documents.
func Open(path string, opts ...DirOption) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	if info.IsDir() {
		return NewDirectory(path, opts...), nil
	}
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".jsonl", ".ndjson", ".json":
		return NewJSONL(path), nil
	case ".tsv":
		return NewTSV(path), nil
	case ".xlsx":
		return NewXLSX(path), nil
	default:
		return nil, fmt.Errorf("open corpus: unsupported file %q", filepath.Base(path))
	}
}

// openMaybeGzip opens path, transparently decompressing it when it ends in .gz.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}
