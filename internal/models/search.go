package models

import "strings"

// SummarySource tells how an enhanced response was obtained from the inference endpoint.
type SummarySource string

const (
	// SummaryGenerated means the response carried a generated_text field.
	SummaryGenerated SummarySource = "generated_text"
	// SummaryFallback means the raw response was stringified because no generated_text was found.
	SummaryFallback SummarySource = "raw_fallback"
)

// SearchRequest is the body of a search API call.
type SearchRequest struct {
	Query string `json:"query"`
}

// Normalize trims surrounding whitespace from the query.
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
}

// SearchHit is a single ranked hit.
type SearchHit struct {
	DocID      string   `json:"doc_id"`
	Text       string   `json:"text"`
	Highlights []string `json:"highlights"`
	Score      float64  `json:"score"`
}

// SearchResponse is the result of one query.
// At most one of EnhancedResponse and AugmentationError is set, and neither is set when Results is empty.
type SearchResponse struct {
	Query             string        `json:"query"`
	Results           []SearchHit   `json:"results"`
	EnhancedResponse  *string       `json:"enhanced_response,omitempty"`
	SummarySource     SummarySource `json:"summary_source,omitempty"`
	AugmentationError *string       `json:"error_llm,omitempty"`
	QueryTime         int64         `json:"query_time_ms"`
	Cached            bool          `json:"cached,omitempty"`
}

// Augmented reports whether an enhanced response was attached.
func (r *SearchResponse) Augmented() bool {
	return r.EnhancedResponse != nil
}
