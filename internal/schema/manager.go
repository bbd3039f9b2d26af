package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// IndexAdmin is the part of the search engine client that manages indices.
type IndexAdmin interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	DeleteIndex(ctx context.Context, name string) error
	CreateIndex(ctx context.Context, name string, s Schema) error
}

// Manager creates and re-creates the passage index.
type Manager struct {
	admin  IndexAdmin
	logger *zap.Logger
}

// NewManager returns a Manager using admin. A nil logger disables logging.
func NewManager(admin IndexAdmin, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{admin: admin, logger: logger}
}

// EnsureIndex deletes the index if it exists and creates it with s.
// Existing documents do not survive: callers must re-ingest after a schema change.
func (m *Manager) EnsureIndex(ctx context.Context, name string, s Schema) error {
	if err := s.Validate(); err != nil {
		return err
	}
	exists, err := m.admin.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %q: %w", name, err)
	}
	if exists {
		m.logger.Info("deleting existing index", zap.String("index", name))
		if err := m.admin.DeleteIndex(ctx, name); err != nil {
			return fmt.Errorf("delete index %q: %w", name, err)
		}
	}
	if err := m.admin.CreateIndex(ctx, name, s); err != nil {
		return fmt.Errorf("create index %q: %w", name, err)
	}
	m.logger.Info("created index",
		zap.String("index", name),
		zap.Float64("bm25_k1", s.BM25.K1),
		zap.Float64("bm25_b", s.BM25.B),
	)
	return nil
}

// CreateIfMissing creates the index only when it does not exist yet.
// It reports whether the index was created.
func (m *Manager) CreateIfMissing(ctx context.Context, name string, s Schema) (bool, error) {
	exists, err := m.admin.IndexExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check index %q: %w", name, err)
	}
	if exists {
		return false, nil
	}
	if err := m.EnsureIndex(ctx, name, s); err != nil {
		return false, err
	}
	return true, nil
}
