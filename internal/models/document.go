// Package models defines core data structures for corpus records, indexed documents, runs, and search results.
package models

import (
	"strings"
	"unicode/utf8"
)

// MaxWordCount is the largest word count the index schema can store (a signed 16-bit "short").
const MaxWordCount = 32767

// CorpusRecord is one record yielded by a corpus source.
type CorpusRecord struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id,omitempty"`
}

// Document is the indexed form of a corpus record. JSON names match the index mapping.
type Document struct {
	DocID            string `json:"doc_id"`
	Text             string `json:"text"`
	ParentDocumentID string `json:"msmarco_document_id"`
	CharLength       int    `json:"doc_length"`
	WordCount        int16  `json:"word_count"`
}

// NewDocument derives the indexed fields of rec.
// CharLength counts Unicode code points; WordCount counts whitespace-delimited
// tokens and is clamped to MaxWordCount.
func NewDocument(rec CorpusRecord) Document {
	return Document{
		DocID:            rec.ID,
		Text:             rec.Text,
		ParentDocumentID: rec.ParentID,
		CharLength:       utf8.RuneCountInString(rec.Text),
		WordCount:        ClampWordCount(CountWords(rec.Text)),
	}
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ClampWordCount returns n bounded to [0, MaxWordCount].
func ClampWordCount(n int) int16 {
	if n > MaxWordCount {
		return MaxWordCount
	}
	if n < 0 {
		return 0
	}
	return int16(n)
}
