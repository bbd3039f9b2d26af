// Package storage persists ingestion runs and reports disk usage of local data.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/passagesearch/internal/models"
)

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

// RunStore is the ingestion run ledger.
type RunStore interface {
	// RecordRun inserts run, or replaces the stored run with the same id.
	RecordRun(ctx context.Context, run *models.IngestionRun) error
	GetRun(ctx context.Context, id string) (*models.IngestionRun, error)
	// ListRuns returns the most recent runs first. An empty index lists runs of every index.
	ListRuns(ctx context.Context, index string, limit int) ([]*models.IngestionRun, error)
	// LastRun returns the most recent run against index, or nil when there is none.
	LastRun(ctx context.Context, index string) (*models.IngestionRun, error)
	Close() error
}
