package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/faviy/demandcast/internal/contracts"
)

// MemoryStore keeps forecasts in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	forecasts map[string]contracts.ForecastSeries
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{forecasts: make(map[string]contracts.ForecastSeries)}
}

// Save replaces the product's forecast with a copy of forecast
func (s *MemoryStore) Save(ctx context.Context, product string, forecast contracts.ForecastSeries) error {
	if err := checkForecast(product, forecast); err != nil {
		return err
	}
	forecast = clone(forecast)
	forecast.Product = product

	s.mu.Lock()
	s.forecasts[product] = forecast
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the product's forecast
func (s *MemoryStore) Load(ctx context.Context, product string) (contracts.ForecastSeries, error) {
	s.mu.RLock()
	f, ok := s.forecasts[product]
	s.mu.RUnlock()

	if !ok {
		return contracts.ForecastSeries{}, fmt.Errorf("forecast %s: %w", product, contracts.ErrNotFound)
	}
	return clone(f), nil
}

// List returns stored products in key order
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.forecasts))
	for product := range s.forecasts {
		out = append(out, product)
	}
	sort.Strings(out)
	return out, nil
}
