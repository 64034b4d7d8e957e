package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

var sampleRecord = models.ValidationRecord{
	PhoneNumber:   "8045551234",
	ReportDate:    "2024-03-01",
	LineType:      "CELL PHONE",
	PhoneCompany:  "VERIZON WIRELESS",
	PhoneLocation: "RICHMOND, VA",
	FakeNumber:    "NO",
}

type failingStore struct {
	*MemoryStore
	loadErr  error
	saveErr  error
	closed   int
	flushed  int
	flushErr error
}

func (s *failingStore) Load(ctx context.Context) (map[string]models.ValidationRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	return s.MemoryStore.Load(ctx)
}

func (s *failingStore) Save(ctx context.Context, key string, rec models.ValidationRecord) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	return s.MemoryStore.Save(ctx, key, rec)
}

func (s *failingStore) Flush(_ context.Context) error {
	s.flushed++
	return s.flushErr
}

func (s *failingStore) Close() error {
	s.closed++
	return nil
}

func TestCachePutGet(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, NewMemoryStore())
	require.NoError(t, err)

	_, ok := c.Get("8045551234")
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "8045551234", sampleRecord))
	require.NoError(t, c.Put(ctx, "2025550100", models.ValidationRecord{PhoneNumber: "2025550100"}))

	got, ok := c.Get("8045551234")
	require.True(t, ok)
	assert.Equal(t, sampleRecord, got)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"2025550100", "8045551234"}, c.Keys())

	snap := c.Snapshot()
	delete(snap, "8045551234")
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	assert.ErrorIs(t, c.Put(ctx, "1", sampleRecord), ErrClosed)
}

func TestCachePutFlushesEveryWrite(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}

	c, err := Open(ctx, store)
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "8045551234", sampleRecord))
	require.NoError(t, c.Put(ctx, "7035550000", sampleRecord))
	assert.Equal(t, 2, store.flushed)
}

func TestCachePutSaveError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	store := &failingStore{MemoryStore: NewMemoryStore(), saveErr: boom}

	c, err := Open(ctx, store)
	require.NoError(t, err)

	assert.ErrorIs(t, c.Put(ctx, "8045551234", sampleRecord), boom)
}

func TestWithClosesOnError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("pipeline failed")
	store := &failingStore{MemoryStore: NewMemoryStore()}

	err := With(ctx, store, func(c *Cache) error {
		require.NoError(t, c.Put(ctx, "8045551234", sampleRecord))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.closed)
}

func TestWithClosesOnLoadError(t *testing.T) {
	boom := errors.New("corrupt")
	store := &failingStore{MemoryStore: NewMemoryStore(), loadErr: boom}

	called := false
	err := With(context.Background(), store, func(*Cache) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
	assert.Equal(t, 1, store.closed)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "phone_requests.json")

	err := With(ctx, NewFileStore(path), func(c *Cache) error {
		assert.Equal(t, 0, c.Len())
		return c.Put(ctx, "8045551234", sampleRecord)
	})
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	c, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)

	got, ok := c.Get("8045551234")
	require.True(t, ok)
	assert.Equal(t, sampleRecord, got)
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_requests.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(context.Background(), NewFileStore(path))
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_requests.json")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	c, err := Open(context.Background(), NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "phones.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)

	err = With(ctx, store, func(c *Cache) error {
		if err := c.Put(ctx, "8045551234", models.ValidationRecord{PhoneNumber: "old"}); err != nil {
			return err
		}

		return c.Put(ctx, "8045551234", sampleRecord)
	})
	require.NoError(t, err)

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)

	records, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	assert.Len(t, records, 1)
	assert.Equal(t, sampleRecord, records["8045551234"])
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.CacheConfig
		want    interface{}
		wantErr error
	}{
		{"memory", config.CacheConfig{Backend: config.BackendMemory}, &MemoryStore{}, nil},
		{"file", config.CacheConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "c.json")}, &FileStore{}, nil},
		{"sqlite", config.CacheConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}, nil},
		{"unknown", config.CacheConfig{Backend: "etcd"}, nil, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenStore(ctx, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, store)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
			assert.NoError(t, store.Close())
		})
	}
}
