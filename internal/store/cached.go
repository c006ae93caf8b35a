package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/faviy/demandcast/internal/contracts"
	"github.com/faviy/demandcast/pkg/redis"
)

// CachedStore is a read-through, write-through Redis cache over another store.
// Cache failures are logged and never fail the operation.
type CachedStore struct {
	backing Store
	cache   *redis.Cache
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewCachedStore wraps backing with cache
func NewCachedStore(backing Store, cache *redis.Cache, ttl time.Duration, logger zerolog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &CachedStore{
		backing: backing,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "store.cached").Logger(),
	}
}

// Save writes through to the backing store, then refreshes the cache
func (s *CachedStore) Save(ctx context.Context, product string, forecast contracts.ForecastSeries) error {
	if err := s.backing.Save(ctx, product, forecast); err != nil {
		return err
	}

	forecast.Product = product
	if err := s.cache.Set(ctx, redis.ForecastKey(product), forecast, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("product", product).Msg("Cache set failed, dropping entry")
		// stale entry must not outlive the new forecast
		_ = s.cache.Delete(ctx, redis.ForecastKey(product))
	}
	return nil
}

// Load serves from cache when possible, falling back to the backing store
func (s *CachedStore) Load(ctx context.Context, product string) (contracts.ForecastSeries, error) {
	var cached contracts.ForecastSeries
	hit, err := s.cache.Get(ctx, redis.ForecastKey(product), &cached)
	if err != nil {
		s.logger.Warn().Err(err).Str("product", product).Msg("Cache get failed")
	}
	if hit && err == nil {
		return cached, nil
	}

	forecast, err := s.backing.Load(ctx, product)
	if err != nil {
		return contracts.ForecastSeries{}, err
	}

	if err := s.cache.Set(ctx, redis.ForecastKey(product), forecast, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("product", product).Msg("Cache fill failed")
	}
	return forecast, nil
}

// List always asks the backing store
func (s *CachedStore) List(ctx context.Context) ([]string, error) {
	return s.backing.List(ctx)
}
