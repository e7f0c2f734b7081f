// Package tracker keeps the configured markets resolved against live
// Polymarket listings and snapshotted in storage.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/storage"
)

// Matcher resolves market configs against live listings in one bulk fetch.
type Matcher interface {
	MatchAll(ctx context.Context, cfgs []model.MarketConfig) ([]model.MatchedMarket, error)
}

// Tracker syncs configured markets into a storage.MarketStore.
type Tracker struct {
	configs []model.MarketConfig
	matcher Matcher
	store   storage.MarketStore
	logger  *slog.Logger
}

// New creates a tracker for the given config set.
func New(configs []model.MarketConfig, matcher Matcher, store storage.MarketStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		configs: configs,
		matcher: matcher,
		store:   store,
		logger:  logger,
	}
}

// Sync re-resolves every configured market and stores the snapshots. Configs
// that match nothing this cycle are simply absent; an earlier snapshot for
// them survives in the store.
func (t *Tracker) Sync(ctx context.Context) ([]model.MatchedMarket, error) {
	matched, err := t.matcher.MatchAll(ctx, t.configs)
	if err != nil {
		return nil, fmt.Errorf("match configured markets: %w", err)
	}

	if err := t.store.PutAll(ctx, matched); err != nil {
		return nil, fmt.Errorf("store market snapshots: %w", err)
	}

	t.logger.Info("market sync complete",
		"configured", len(t.configs), "matched", len(matched))
	return matched, nil
}

// Markets serves the stored snapshots, syncing first when the store is empty.
func (t *Tracker) Markets(ctx context.Context) ([]model.MatchedMarket, error) {
	markets, err := t.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load market snapshots: %w", err)
	}
	if len(markets) > 0 {
		return markets, nil
	}

	t.logger.Info("market store empty, running initial sync")
	return t.Sync(ctx)
}

// UpdatedAt reports the last sync time, zero before the first sync.
func (t *Tracker) UpdatedAt(ctx context.Context) time.Time {
	when, err := t.store.UpdatedAt(ctx)
	if err != nil {
		return time.Time{}
	}
	return when
}

// Run syncs on a fixed interval until the context ends. The first sync runs
// immediately.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if _, err := t.Sync(ctx); err != nil {
		t.logger.Error("initial market sync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.Sync(ctx); err != nil {
				t.logger.Error("market sync failed", "error", err)
			}
		}
	}
}
