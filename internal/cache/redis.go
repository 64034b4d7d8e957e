package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lwilliamskeiter/leads-reformat/internal/models"
)

var errRedisAddrRequired = errors.New("redis: address is required")

// hashClient is the subset of the redis client the store uses.
type hashClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Close() error
}

// NewRedisClient is swapped in tests.
var NewRedisClient = func(opt *redis.Options) *redis.Client {
	return redis.NewClient(opt)
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr        string
	DB          int
	Key         string
	DialTimeout time.Duration
}

// RedisStore keeps every record as a JSON field of one hash.
type RedisStore struct {
	client hashClient
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects and pings before returning.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errRedisAddrRequired
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}

	rdb := NewRedisClient(&redis.Options{
		Addr:        opts.Addr,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	c, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := rdb.Ping(c).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return NewRedisStoreWithClient(rdb, opts.Key), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client hashClient, key string) *RedisStore {
	if key == "" {
		key = "leads:phone_requests"
	}

	return &RedisStore{client: client, key: key}
}

// Load reads the whole hash.
func (s *RedisStore) Load(ctx context.Context) (map[string]models.ValidationRecord, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}

	out := make(map[string]models.ValidationRecord, len(fields))

	for phone, raw := range fields {
		var rec models.ValidationRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode cached record %s: %w", phone, err)
		}

		out[phone] = rec
	}

	return out, nil
}

// Save writes rec as one hash field.
func (s *RedisStore) Save(ctx context.Context, key string, rec models.ValidationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}

	if err := s.client.HSet(ctx, s.key, key, string(data)).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}

	return nil
}

// Flush is a no-op; Save writes through.
func (s *RedisStore) Flush(_ context.Context) error { return nil }

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
