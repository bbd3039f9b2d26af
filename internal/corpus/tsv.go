package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/hyperjump/passagesearch/internal/models"
)

// TSV reads "id<TAB>text[<TAB>parent]" lines, the MS MARCO v1 collection layout.
type TSV struct {
	path string
}

// NewTSV returns a TSV source for path, optionally gzipped.
func NewTSV(path string) *TSV {
	return &TSV{path: path}
}

// Name implements Source.
func (s *TSV) Name() string { return s.path }

// Records implements Source.
func (s *TSV) Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error] {
	return func(yield func(models.CorpusRecord, error) bool) {
		rc, err := openMaybeGzip(s.path)
		if err != nil {
			yield(models.CorpusRecord{}, fmt.Errorf("open %s: %w", s.path, err))
			return
		}
		defer rc.Close()

		r := bufio.NewReaderSize(rc, 1<<20)
		for lineNo := 1; ; lineNo++ {
			if err := ctx.Err(); err != nil {
				yield(models.CorpusRecord{}, err)
				return
			}
			line, err := r.ReadString('\n')
			if trimmed := strings.TrimRight(line, "\r\n"); trimmed != "" {
				fields := strings.Split(trimmed, "\t")
				var (
					rec  models.CorpusRecord
					perr error
				)
				if len(fields) < 2 {
					perr = &RecordError{
						Location: fmt.Sprintf("%s:%d", s.path, lineNo),
						Err:      fmt.Errorf("expected at least 2 tab-separated fields, got %d", len(fields)),
					}
				} else {
					rec = models.CorpusRecord{ID: fields[0], Text: fields[1]}
					if len(fields) > 2 {
						rec.ParentID = fields[2]
					}
				}
				if !yield(rec, perr) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(models.CorpusRecord{}, fmt.Errorf("read %s: %w", s.path, err))
				return
			}
		}
	}
}
