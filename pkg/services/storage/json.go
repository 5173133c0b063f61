package storage

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

// JSONHistoryStorage stores the query history in file in json format.
type JSONHistoryStorage struct {
	*MemoryHistoryStorage

	saveMu   sync.Mutex
	filePath string
}

// NewJSONHistoryStorage creates new storage.
func NewJSONHistoryStorage(filePath string) *JSONHistoryStorage {
	return &JSONHistoryStorage{
		MemoryHistoryStorage: NewMemoryHistoryStorage(),
		filePath:             filePath,
	}
}

// Load reads history data from disk.
func (s *JSONHistoryStorage) Load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// no history data, ignore
			s.replace(make([]*models.QueryHistoryEntry, 0))
			return nil
		}

		return errors.Wrap(err, "failed to read history data")
	}

	entries := make([]*models.QueryHistoryEntry, 0)

	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "failed to decode history data")
	}

	s.replace(entries)

	return nil
}

// Save writes history data to disk.
func (s *JSONHistoryStorage) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	data, err := json.Marshal(s.snapshot())
	if err != nil {
		return errors.Wrap(err, "failed to encode history data")
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Append adds an entry and writes the history to disk.
func (s *JSONHistoryStorage) Append(ctx context.Context, entry *models.QueryHistoryEntry) error {
	if err := s.MemoryHistoryStorage.Append(ctx, entry); err != nil {
		return err
	}

	return s.Save()
}

// Close writes the history to disk.
func (s *JSONHistoryStorage) Close() error {
	return s.Save()
}
