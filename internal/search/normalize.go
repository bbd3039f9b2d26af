package search

import (
	"github.com/hyperjump/passagesearch/internal/engine"
	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/internal/schema"
)

// normalizeHits maps raw engine hits to the caller-facing shape.
// Missing fields become "" and missing highlights an empty list, never nil.
func normalizeHits(hits []engine.Hit) []models.SearchHit {
	out := make([]models.SearchHit, 0, len(hits))
	for _, h := range hits {
		highlights := h.Highlights[schema.FieldText]
		if highlights == nil {
			highlights = []string{}
		}
		out = append(out, models.SearchHit{
			DocID:      h.StringField(schema.FieldDocID),
			Text:       h.StringField(schema.FieldText),
			Highlights: highlights,
			Score:      h.Score,
		})
	}
	return out
}
