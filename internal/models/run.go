package models

import "time"

// RunStatus is the final state of an ingestion run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCapped    RunStatus = "capped"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// CapPolicy decides what happens to a partially filled batch when max_documents is reached.
type CapPolicy string

const (
	// CapDrop evaluates the cap only after a successful submission and never flushes pending documents.
	CapDrop CapPolicy = "drop"
	// CapFlush submits a partial batch as soon as it would reach the cap.
	CapFlush CapPolicy = "flush"
)

// ParseCapPolicy returns the policy named by s. Empty selects CapDrop.
func ParseCapPolicy(s string) (CapPolicy, bool) {
	switch CapPolicy(s) {
	case "", CapDrop:
		return CapDrop, true
	case CapFlush:
		return CapFlush, true
	default:
		return "", false
	}
}

// IngestionRun holds the counters and outcome of one ingestion invocation.
type IngestionRun struct {
	ID             string    `json:"id" db:"id"`
	Index          string    `json:"index" db:"index_name"`
	Source         string    `json:"source" db:"source"`
	BatchSize      int       `json:"batch_size" db:"batch_size"`
	MaxDocuments   int       `json:"max_documents" db:"max_documents"`
	CapPolicy      CapPolicy `json:"cap_policy" db:"cap_policy"`
	TotalIndexed   int       `json:"total_indexed" db:"total_indexed"`
	FailedBatches  int       `json:"failed_batches" db:"failed_batches"`
	Batches        int       `json:"batches" db:"batches"`
	SkippedRecords int       `json:"skipped_records" db:"skipped_records"`
	CapReached     bool      `json:"cap_reached" db:"cap_reached"`
	Status         RunStatus `json:"status" db:"status"`
	Error          string    `json:"error,omitempty" db:"error"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	FinishedAt     time.Time `json:"finished_at" db:"finished_at"`
}

// Duration returns how long the run took, or zero while it is still running.
func (r *IngestionRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
