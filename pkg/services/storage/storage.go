/*
2021 © Postgres.ai
*/

// Package storage provides ability to keep the query history in memory, on disk or in Postgres.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

// HistoryStorage defines an append-only query history. Implementations are safe for concurrent use.
type HistoryStorage interface {
	Append(ctx context.Context, entry *models.QueryHistoryEntry) error
	Recent(ctx context.Context, username string, limit int) ([]*models.QueryHistoryEntry, error)
	Close() error
}

// PersistentHistoryStorage allows to dump data from memory to some persistent storage.
type PersistentHistoryStorage interface {
	Load() error
	Save() error

	HistoryStorage
}

// New creates a history storage of the configured type.
func New(ctx context.Context, cfg config.History) (HistoryStorage, error) {
	switch cfg.Storage {
	case "", config.StorageMemory:
		return NewMemoryHistoryStorage(), nil

	case config.StorageJSON:
		s := NewJSONHistoryStorage(cfg.FilePath)
		if err := s.Load(); err != nil {
			return nil, err
		}

		return s, nil

	case config.StoragePostgres:
		return NewPostgresHistoryStorage(ctx, cfg.DSN, cfg.Table)
	}

	return nil, errors.Errorf("unknown history storage type given: %q", cfg.Storage)
}

// NewID generates a history entry identifier. Time-ordered UUIDs are preferred.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}

	return id.String()
}

// clampLimit bounds a requested history length. Non-positive means default.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return models.DefaultHistoryLimit
	case limit > models.MaxHistoryLimit:
		return models.MaxHistoryLimit
	}

	return limit
}
