package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/passagesearch/internal/models"
)

func sampleResponse() *models.SearchResponse {
	summary := "Beta appears in two passages."
	return &models.SearchResponse{
		Query: "beta",
		Results: []models.SearchHit{
			{DocID: "1", Text: "alpha beta", Highlights: []string{"alpha <mark>beta</mark>"}, Score: 0.9},
			{DocID: "2", Text: "beta gamma", Highlights: []string{"<mark>beta</mark> gamma"}, Score: 0.8},
		},
		EnhancedResponse: &summary,
		SummarySource:    models.SummaryGenerated,
		QueryTime:        42,
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "beta" || decoded.QueryTime != 42 {
		t.Errorf("decoded query=%q query_time=%d", decoded.Query, decoded.QueryTime)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].DocID != "1" {
		t.Errorf("decoded results: got %+v", decoded.Results)
	}
	if decoded.EnhancedResponse == nil || *decoded.EnhancedResponse != *response.EnhancedResponse {
		t.Error("enhanced_response lost in JSON output")
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 results", "ID: 1", "alpha <mark>beta</mark>", "=== Summary (generated_text) ===", "two passages"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSearchResults_TextAugmentationError(t *testing.T) {
	msg := "augmentation failed: status 503"
	response := &models.SearchResponse{Query: "q", Results: []models.SearchHit{{DocID: "1", Text: "t"}}, AugmentationError: &msg}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Summary unavailable: "+msg) {
		t.Errorf("missing augmentation error:\n%s", buf.String())
	}
}

func TestWriteRun_Text(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	run := &models.IngestionRun{
		ID: "run-1", Index: "passages", Source: "p.jsonl", Status: models.RunCapped,
		TotalIndexed: 8, Batches: 2, MaxDocuments: 5, CapPolicy: models.CapDrop, CapReached: true,
		StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
	}
	var buf bytes.Buffer
	if err := WriteRun(&buf, run, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"run-1", "capped", "Indexed:         8", "Cap reached:     5 (drop)", "1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRuns(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRuns(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No ingestion runs") {
		t.Errorf("empty table: got %q", buf.String())
	}

	buf.Reset()
	if err := WriteRuns(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON: got %q", buf.String())
	}

	buf.Reset()
	runs := []*models.IngestionRun{{ID: "run-2", Index: "passages", Status: models.RunCompleted, TotalIndexed: 10}}
	if err := WriteRuns(&buf, runs, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "run-2") || !strings.Contains(buf.String(), "STATUS") {
		t.Errorf("table: got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for yaml")
	}
}
