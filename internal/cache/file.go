package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// FileStore persists records as one JSON object. Flush rewrites the file atomically.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records map[string]models.ValidationRecord
	dirty   bool
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by path. The file is created on first flush.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:    path,
		records: make(map[string]models.ValidationRecord),
	}
}

// Load reads the file. A missing file is an empty cache.
func (s *FileStore) Load(_ context.Context) (map[string]models.ValidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.ValidationRecord{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	records := make(map[string]models.ValidationRecord)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
		}
	}

	s.records = records

	out := make(map[string]models.ValidationRecord, len(records))
	for k, v := range records {
		out[k] = v
	}

	return out, nil
}

// Save stages rec for the next Flush.
func (s *FileStore) Save(_ context.Context, key string, rec models.ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = rec
	s.dirty = true

	return nil
}

// Flush writes staged records through a temp file and rename.
func (s *FileStore) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace cache file: %w", err)
	}

	s.dirty = false

	return nil
}

// Close is a no-op; Cache.Close flushes before closing.
func (s *FileStore) Close() error { return nil }
