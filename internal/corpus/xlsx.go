package corpus

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/passagesearch/internal/models"
)

// XLSX reads passages from the first sheet of a workbook: column A id, B text, C parent.
// A first row whose A cell is "id" or "pid" is treated as a header.
type XLSX struct {
	path  string
	sheet string
}

// NewXLSX returns a source over the first sheet of the workbook at path.
func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

// Name implements Source.
func (s *XLSX) Name() string { return s.path }

// Records implements Source.
func (s *XLSX) Records(ctx context.Context) iter.Seq2[models.CorpusRecord, error] {
	return func(yield func(models.CorpusRecord, error) bool) {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			yield(models.CorpusRecord{}, fmt.Errorf("open %s: %w", s.path, err))
			return
		}
		defer f.Close()

		sheet := s.sheet
		if sheet == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				return
			}
			sheet = sheets[0]
		}
		rows, err := f.Rows(sheet)
		if err != nil {
			yield(models.CorpusRecord{}, fmt.Errorf("read sheet %q: %w", sheet, err))
			return
		}
		defer rows.Close()

		for rowNo := 1; rows.Next(); rowNo++ {
			if err := ctx.Err(); err != nil {
				yield(models.CorpusRecord{}, err)
				return
			}
			cols, err := rows.Columns()
			if err != nil {
				if !yield(models.CorpusRecord{}, &RecordError{Location: fmt.Sprintf("%s:%s!%d", s.path, sheet, rowNo), Err: err}) {
					return
				}
				continue
			}
			if len(cols) == 0 {
				continue
			}
			if rowNo == 1 {
				if h := strings.ToLower(strings.TrimSpace(cols[0])); h == "id" || h == "pid" {
					continue
				}
			}
			rec := models.CorpusRecord{ID: strings.TrimSpace(cols[0])}
			if len(cols) > 1 {
				rec.Text = cols[1]
			}
			if len(cols) > 2 {
				rec.ParentID = strings.TrimSpace(cols[2])
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(models.CorpusRecord{}, fmt.Errorf("read sheet %q: %w", sheet, err))
		}
	}
}
