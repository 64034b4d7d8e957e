// Package cache keeps phone lookup results across runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

// Cache errors.
var (
	ErrClosed         = errors.New("cache is closed")
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// Store persists lookup records keyed by bare 10-digit numbers.
type Store interface {
	Load(ctx context.Context) (map[string]models.ValidationRecord, error)
	Save(ctx context.Context, key string, rec models.ValidationRecord) error
	Flush(ctx context.Context) error
	Close() error
}

// Cache is the in-memory view of a Store. Writes are serialized and flushed immediately.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.ValidationRecord
	store   Store
	closed  bool
}

// Open loads every record from store.
func Open(ctx context.Context, store Store) (*Cache, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	if entries == nil {
		entries = make(map[string]models.ValidationRecord)
	}

	return &Cache{
		entries: entries,
		store:   store,
	}, nil
}

// With opens a cache, runs fn, and always flushes and closes the store afterwards.
func With(ctx context.Context, store Store, fn func(*Cache) error) (err error) {
	c, err := Open(ctx, store)
	if err != nil {
		return errors.Join(err, store.Close())
	}

	defer func() {
		err = errors.Join(err, c.Close(ctx))
	}()

	return fn(c)
}

// Get returns the cached record for key.
func (c *Cache) Get(key string) (models.ValidationRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, ok := c.entries[key]

	return rec, ok
}

// Put records rec under key and persists it.
func (c *Cache) Put(ctx context.Context, key string, rec models.ValidationRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.entries[key] = rec

	if err := c.store.Save(ctx, key, rec); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}

	if err := c.store.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}

	return nil
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Keys returns the cached numbers in ascending order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Snapshot returns a copy of every record.
func (c *Cache) Snapshot() map[string]models.ValidationRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.ValidationRecord, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}

	return out
}

// Close flushes and closes the store. Calling Close twice is a no-op.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	return errors.Join(c.store.Flush(ctx), c.store.Close())
}

// OpenStore builds the configured backend.
func OpenStore(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.Path), nil
	case config.BackendSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}

		return s, nil
	case config.BackendRedis:
		s, err := NewRedisStore(ctx, RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Key: cfg.RedisKey})
		if err != nil {
			return nil, err
		}

		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
