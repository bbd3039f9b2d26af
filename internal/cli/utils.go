// Package cli renders search results and ingestion runs for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hyperjump/passagesearch/internal/models"
	"github.com/hyperjump/passagesearch/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s. Empty selects OutputText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

const textPreviewChars = 200

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	cached := ""
	if response.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms%s\n\n", len(response.Results), response.Query, response.QueryTime, cached)
	for i, hit := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", i+1, hit.Score, hit.DocID)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(hit.Text, textPreviewChars))
		for _, h := range hit.Highlights {
			fmt.Fprintf(w, "  > %s\n", h)
		}
		fmt.Fprintln(w)
	}
	switch {
	case response.EnhancedResponse != nil:
		fmt.Fprintf(w, "=== Summary (%s) ===\n%s\n", response.SummarySource, *response.EnhancedResponse)
	case response.AugmentationError != nil:
		fmt.Fprintf(w, "Summary unavailable: %s\n", *response.AugmentationError)
	}
	return nil
}

// WriteRun writes one ingestion run summary.
func WriteRun(w io.Writer, run *models.IngestionRun, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, run)
	}
	fmt.Fprintf(w, "Run:             %s\n", run.ID)
	fmt.Fprintf(w, "Index:           %s\n", run.Index)
	fmt.Fprintf(w, "Source:          %s\n", run.Source)
	fmt.Fprintf(w, "Status:          %s\n", run.Status)
	fmt.Fprintf(w, "Indexed:         %d\n", run.TotalIndexed)
	fmt.Fprintf(w, "Batches:         %d (%d failed)\n", run.Batches, run.FailedBatches)
	if run.SkippedRecords > 0 {
		fmt.Fprintf(w, "Skipped records: %d\n", run.SkippedRecords)
	}
	if run.CapReached {
		fmt.Fprintf(w, "Cap reached:     %d (%s)\n", run.MaxDocuments, run.CapPolicy)
	}
	fmt.Fprintf(w, "Duration:        %s\n", run.Duration().Round(time.Millisecond))
	if run.Error != "" {
		fmt.Fprintf(w, "Error:           %s\n", run.Error)
	}
	return nil
}

// WriteRuns writes a table of runs, most recent first.
func WriteRuns(w io.Writer, runs []*models.IngestionRun, format OutputFormat) error {
	if format == OutputJSON {
		if runs == nil {
			runs = []*models.IngestionRun{}
		}
		return writeJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No ingestion runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tINDEX\tSTATUS\tINDEXED\tFAILED BATCHES\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Index, r.Status, r.TotalIndexed, r.FailedBatches, r.StartedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
