// Package memory provides in-memory storage implementations. They back the
// server when no database is configured and the storage tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	mu        sync.RWMutex
	data      map[string]model.MatchedMarket
	updatedAt time.Time
}

// NewMarketStore creates an empty in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		data: make(map[string]model.MatchedMarket),
	}
}

func (s *MarketStore) Put(_ context.Context, m model.MatchedMarket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[m.Key] = m
	s.updatedAt = time.Now().UTC()
	return nil
}

func (s *MarketStore) PutAll(_ context.Context, markets []model.MatchedMarket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range markets {
		s.data[m.Key] = m
	}
	s.updatedAt = time.Now().UTC()
	return nil
}

func (s *MarketStore) Get(_ context.Context, key string) (model.MatchedMarket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[key]
	if !ok {
		return model.MatchedMarket{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *MarketStore) All(_ context.Context) ([]model.MatchedMarket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MatchedMarket, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, m)
	}
	// Deterministic order for API responses.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (s *MarketStore) UpdatedAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.updatedAt.IsZero() {
		return time.Time{}, storage.ErrNotFound
	}
	return s.updatedAt, nil
}
