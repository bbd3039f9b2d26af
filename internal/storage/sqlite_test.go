package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/passagesearch/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id, index string, started time.Time) *models.IngestionRun {
	return &models.IngestionRun{
		ID:           id,
		Index:        index,
		Source:       "passages.jsonl.gz",
		BatchSize:    500,
		MaxDocuments: 100000,
		CapPolicy:    models.CapDrop,
		Status:       models.RunRunning,
		StartedAt:    started,
	}
}

func TestSQLiteStorage_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	run := testRun("run-1", "passages", started)
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != models.RunRunning || !got.FinishedAt.IsZero() {
		t.Errorf("running run = %+v", got)
	}

	run.TotalIndexed = 1234
	run.FailedBatches = 2
	run.Batches = 5
	run.SkippedRecords = 3
	run.CapReached = true
	run.Status = models.RunCapped
	run.FinishedAt = started.Add(90 * time.Second)
	if err := s.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun update: %v", err)
	}

	got, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.TotalIndexed != 1234 || got.FailedBatches != 2 || got.Batches != 5 || got.SkippedRecords != 3 {
		t.Errorf("counters = %+v", got)
	}
	if !got.CapReached || got.Status != models.RunCapped || got.CapPolicy != models.CapDrop {
		t.Errorf("outcome = %+v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Duration = %v, want 90s", got.Duration())
	}
}

func TestSQLiteStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestSQLiteStorage_ListRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, idx := range []string{"passages", "other", "passages"} {
		run := testRun(string(rune('a'+i)), idx, base.Add(time.Duration(i)*time.Hour))
		if err := s.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	all, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("ListRuns all order: %v", ids(all))
	}

	passages, err := s.ListRuns(ctx, "passages", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(passages) != 2 || passages[0].ID != "c" {
		t.Errorf("ListRuns passages: %v", ids(passages))
	}

	limited, _ := s.ListRuns(ctx, "", 1)
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d runs", len(limited))
	}

	last, err := s.LastRun(ctx, "other")
	if err != nil || last == nil || last.ID != "b" {
		t.Errorf("LastRun(other) = %v, %v", last, err)
	}
	none, err := s.LastRun(ctx, "missing")
	if err != nil || none != nil {
		t.Errorf("LastRun(missing) = %v, %v; want nil, nil", none, err)
	}
}

func ids(runs []*models.IngestionRun) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}
