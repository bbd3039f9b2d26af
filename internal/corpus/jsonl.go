package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/hyperjump/passagesearch/internal/models"
)

// Accepted key spellings, in order of preference. The first of each list is the
// MS MARCO v2 passage layout.
var (
	jsonIDKeys     = []string{"pid", "doc_id", "id"}
	jsonTextKeys   = []string{"passage", "text"}
	jsonParentKeys = []string{"docid", "msmarco_document_id", "parent_id"}
)

// JSONL reads one JSON object per line from a file, optionally gzipped.
type JSONL struct {
	path string
}

// NewJSONL returns a JSONL source for path.
func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Name implements Source.
func (s *JSONL) Name() string { return s.path }

// Records implements Source.
func (s *JSONL) Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error] {
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
			line, err := r.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				rec, perr := parseJSONRecord(line)
				if perr != nil {
					perr = &RecordError{Location: fmt.Sprintf("%s:%d", s.path, lineNo), Err: perr}
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

func parseJSONRecord(line []byte) (models.CorpusRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return models.CorpusRecord{}, err
	}
	var rec models.CorpusRecord
	var err error
	if rec.ID, err = firstField(raw, jsonIDKeys); err != nil {
		return rec, err
	}
	if rec.Text, err = firstField(raw, jsonTextKeys); err != nil {
		return rec, err
	}
	if rec.ParentID, err = firstField(raw, jsonParentKeys); err != nil {
		return rec, err
	}
	return rec, nil
}

// firstField returns the first present key as a string. Numbers are rendered in decimal.
func firstField(raw map[string]json.RawMessage, keys []string) (string, error) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s, nil
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err == nil {
			if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
				return strconv.FormatInt(i, 10), nil
			}
			return n.String(), nil
		}
		return "", fmt.Errorf("field %q is neither a string nor a number", key)
	}
	return "", nil
}
