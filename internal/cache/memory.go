package cache

import (
	"context"
	"sync"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// MemoryStore keeps records for the life of the process only.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]models.ValidationRecord
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.ValidationRecord)}
}

// NewMemoryStoreWith creates a store pre-populated with records.
func NewMemoryStoreWith(records map[string]models.ValidationRecord) *MemoryStore {
	s := NewMemoryStore()
	for k, v := range records {
		s.records[k] = v
	}

	return s
}

// Load returns a copy of the records.
func (s *MemoryStore) Load(_ context.Context) (map[string]models.ValidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.ValidationRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}

	return out, nil
}

// Save stores rec.
func (s *MemoryStore) Save(_ context.Context, key string, rec models.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = rec

	return nil
}

// Flush is a no-op.
func (s *MemoryStore) Flush(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
