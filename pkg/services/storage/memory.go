/*
2026 © Postgres.ai
*/

package storage

import (
	"context"
	"sort"
	"sync"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

// MemoryHistoryStorage keeps the query history in memory.
type MemoryHistoryStorage struct {
	mu      sync.RWMutex
	entries []*models.QueryHistoryEntry
}

// NewMemoryHistoryStorage creates new storage.
func NewMemoryHistoryStorage() *MemoryHistoryStorage {
	return &MemoryHistoryStorage{
		entries: make([]*models.QueryHistoryEntry, 0),
	}
}

// Append adds an entry.
func (s *MemoryHistoryStorage) Append(_ context.Context, entry *models.QueryHistoryEntry) error {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	return nil
}

// Recent returns the newest entries of a user.
func (s *MemoryHistoryStorage) Recent(_ context.Context, username string, limit int) ([]*models.QueryHistoryEntry, error) {
	limit = clampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := make([]*models.QueryHistoryEntry, 0)

	// Walk backwards, so the latest appended entry wins a tie on time.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Username == username {
			recent = append(recent, s.entries[i])
		}
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].ExecutedAt.After(recent[j].ExecutedAt)
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}

	return recent, nil
}

// Close does nothing for the memory storage.
func (s *MemoryHistoryStorage) Close() error {
	return nil
}

func (s *MemoryHistoryStorage) snapshot() []*models.QueryHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*models.QueryHistoryEntry, len(s.entries))
	copy(entries, s.entries)

	return entries
}

func (s *MemoryHistoryStorage) replace(entries []*models.QueryHistoryEntry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}
