package phonevalidator

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lwilliamskeiter/leads-reformat/internal/cache"
	"github.com/lwilliamskeiter/leads-reformat/internal/logger"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/internal/normalizer"
	"github.com/lwilliamskeiter/leads-reformat/internal/schema"
)

// Stats counts lookup outcomes for a run.
type Stats struct {
	CacheHits     int64
	Remote        int64
	ServiceErrors int64
	Skipped       int64
}

// Observer is notified of every lookup outcome.
type Observer interface {
	ObserveLookup(result string)
}

// Lookup outcomes reported to an Observer.
const (
	ResultCacheHit     = "cache_hit"
	ResultRemote       = "remote"
	ResultServiceError = "service_error"
	ResultSkipped      = "skipped"
)

// Gateway resolves normalized numbers to validation records, cache first.
type Gateway struct {
	client      Client
	cache       *cache.Cache
	cleaner     *normalizer.Cleaner
	concurrency int
	logger      *logger.Logger
	observer    Observer
	group       singleflight.Group

	hits, remote, serviceErrors, skipped atomic.Int64
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithConcurrency bounds parallel lookups per column.
func WithConcurrency(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithObserver reports each outcome to o.
func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// NewGateway creates a gateway. cleaner re-reads numbers from formatted cells.
func NewGateway(client Client, c *cache.Cache, cleaner *normalizer.Cleaner, log *logger.Logger, opts ...GatewayOption) *Gateway {
	if log == nil {
		log = logger.NewLogger("error")
	}

	g := &Gateway{
		client:      client,
		cache:       c,
		cleaner:     cleaner,
		concurrency: 1,
		logger:      log,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Validate returns the record for the first number in phone. An empty cell yields the empty record.
func (g *Gateway) Validate(ctx context.Context, phone string) (models.ValidationRecord, error) {
	numbers := g.cleaner.Numbers(phone)
	if len(numbers) == 0 {
		g.count(&g.skipped, ResultSkipped)
		return models.ValidationRecord{}, nil
	}

	digits := numbers[0].Digits

	if rec, ok := g.cache.Get(digits); ok {
		g.count(&g.hits, ResultCacheHit)
		return rec, nil
	}

	v, err, _ := g.group.Do(digits, func() (interface{}, error) {
		if rec, ok := g.cache.Get(digits); ok {
			return rec, nil
		}

		rec, err := g.client.Lookup(ctx, digits)
		if err != nil {
			return nil, err
		}

		g.count(&g.remote, ResultRemote)

		if rec.HasError() {
			g.count(&g.serviceErrors, ResultServiceError)
			g.logger.Warn("lookup service error", "phone", digits, "code", rec.ErrorCode, "description", rec.ErrorDescription)

			return rec, nil
		}

		if err := g.cache.Put(ctx, digits, rec); err != nil {
			return nil, err
		}

		return rec, nil
	})
	if err != nil {
		return models.ValidationRecord{}, err
	}

	return v.(models.ValidationRecord), nil
}

// ValidateColumn looks up every value of slot. Results keep the input row order.
// The first transport failure cancels the remaining lookups.
func (g *Gateway) ValidateColumn(ctx context.Context, slot schema.Slot, values []string) ([]string, [][]string, error) {
	out := make([][]string, len(values))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, value := range values {
		i, value := i, value
		eg.Go(func() error {
			rec, err := g.Validate(ctx, value)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", slot.Phone, i+1, err)
			}

			out[i] = rec.Values()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return models.RecordColumns(slot.Ordinal), out, nil
}

// Stats returns the counts so far.
func (g *Gateway) Stats() Stats {
	return Stats{
		CacheHits:     g.hits.Load(),
		Remote:        g.remote.Load(),
		ServiceErrors: g.serviceErrors.Load(),
		Skipped:       g.skipped.Load(),
	}
}

func (g *Gateway) count(n *atomic.Int64, result string) {
	n.Add(1)

	if g.observer != nil {
		g.observer.ObserveLookup(result)
	}
}
