package corpus

import (
	"context"
	"io/fs"
	"iter"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/passagesearch/internal/extract"
	"github.com/hyperjump/passagesearch/internal/fileid"
	"github.com/hyperjump/passagesearch/internal/models"
)

// Directory walks a directory tree and yields one record per passage cut from each
// supported document (txt, md, rst, pdf, docx, xlsx). Files are visited in lexical order.
type Directory struct {
	root      string
	extractor *extract.Extractor
	chunker   *Chunker
	logger    *zap.Logger
}

// DirOption configures a Directory source.
type DirOption func(*Directory)

// WithChunking sets the passage window in words. Size 0 indexes each file as one passage.
func WithChunking(size, overlap int) DirOption {
	return func(d *Directory) {
		d.chunker = NewChunker(size, overlap)
	}
}

// WithMaxFileSize skips files larger than n bytes.
func WithMaxFileSize(n int64) DirOption {
	return func(d *Directory) {
		d.extractor = extract.NewExtractor(n)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) DirOption {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDirectory returns a source over root. By default passages are 200-word windows overlapping by 20.
func NewDirectory(root string, opts ...DirOption) *Directory {
	d := &Directory{
		root:      root,
		extractor: extract.NewExtractor(0),
		chunker:   NewChunker(200, 20),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Source.
func (d *Directory) Name() string { return d.root }

func (d *Directory) files() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != d.root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") || !d.extractor.Supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

// Records implements Source. Files that cannot be extracted are reported as record errors.
func (d *Directory) Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error] {
	return func(yield func(models.CorpusRecord, error) bool) {
		paths, err := d.files()
		if err != nil {
			yield(models.CorpusRecord{}, err)
			return
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(models.CorpusRecord{}, err)
				return
			}
			text, err := d.extractor.Extract(path)
			if err != nil {
				d.logger.Debug("Extraction failed", zap.String("path", path), zap.Error(err))
				if !yield(models.CorpusRecord{}, &RecordError{Location: path, Err: err}) {
					return
				}
				continue
			}
			parent := fileid.FileDocID(d.root, path)
			for i, passage := range d.chunker.Chunk(text) {
				rec := models.CorpusRecord{
					ID:       fileid.PassageID(parent, i),
					Text:     passage,
					ParentID: parent,
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}
