// Package share computes the platform market-share response: live platform
// APIs first, warehouse rows as fallback, mock tables for development. A
// response is always renderable; data problems become warnings, never errors.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/predictionmetrics/marketshare/internal/aggregate"
	"github.com/predictionmetrics/marketshare/internal/dune"
	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/normalize"
)

// KalshiSource is the subset of the Kalshi adapter the orchestrator uses.
type KalshiSource interface {
	Rows(ctx context.Context, w model.Window, now time.Time) ([]model.DataRow, error)
	EventVolumeUSD(ctx context.Context, w model.Window) (float64, error)
}

// PolymarketSource is the subset of the Polymarket adapter the orchestrator
// uses.
type PolymarketSource interface {
	Rows(ctx context.Context, w model.Window, now time.Time) ([]model.DataRow, error)
	Volume24hUSD(ctx context.Context) (float64, error)
}

// WarehouseSource fetches raw warehouse rows; see the dune package.
type WarehouseSource interface {
	Results(ctx context.Context, queryID int) ([]map[string]any, error)
}

// Query selects what a share request aggregates.
type Query struct {
	Window model.Window
	Metric model.Metric
	// Mock serves the static development payload.
	Mock bool
	// WarehouseOnly skips the direct platform APIs (source=dune).
	WarehouseOnly bool
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("%s|%s|%t|%t", q.Window, q.Metric, q.Mock, q.WarehouseOnly)
}

// Options tune a Service beyond its defaults.
type Options struct {
	// CacheTTL bounds how long a computed response is served without
	// refetching. Zero disables caching.
	CacheTTL time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Service orchestrates the data sources behind the share endpoint.
type Service struct {
	kalshi     KalshiSource
	polymarket PolymarketSource
	warehouse  WarehouseSource
	queryID    int
	logger     *slog.Logger
	clock      func() time.Time
	cache      *responseCache
}

// NewService wires the orchestrator. warehouse may be nil when no warehouse
// is configured; the fallback then degrades to warnings.
func NewService(kalshi KalshiSource, polymarket PolymarketSource, warehouse WarehouseSource, queryID int, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Service{
		kalshi:     kalshi,
		polymarket: polymarket,
		warehouse:  warehouse,
		queryID:    queryID,
		logger:     logger,
		clock:      clock,
	}
	if opts.CacheTTL > 0 {
		s.cache = newResponseCache(opts.CacheTTL, clock)
	}
	return s
}

// Share computes the response for a query. It never returns an error: every
// failure mode degrades to zeros plus warnings so the dashboard always has
// something to render.
func (s *Service) Share(ctx context.Context, q Query) model.ShareResponse {
	if q.Mock {
		return s.mockResponse(q)
	}

	if s.cache == nil {
		return s.compute(ctx, q)
	}

	key := q.cacheKey()
	if resp, ok := s.cache.lookup(key); ok {
		return resp
	}

	fctx, gen := s.cache.begin(ctx, key)
	resp := s.compute(fctx, q)
	s.cache.store(key, gen, resp)
	return resp
}

func (s *Service) compute(ctx context.Context, q Query) model.ShareResponse {
	now := s.clock().UTC()
	var warnings []string

	rowsByPlatform, rowWarnings := s.fetchRows(ctx, q, now)
	warnings = append(warnings, rowWarnings...)

	// Live volume overrides. The 24h numbers from the platform APIs are
	// exact where row synthesis is an estimate, and Kalshi's event-grouped
	// totals beat its per-market rows on every window. Overrides are
	// volume figures, so they only apply to the volume metric.
	var overrides map[model.Platform]float64
	if q.Metric == model.MetricVolumeUSD {
		overrides = s.fetchOverrides(ctx, q.Window)
	}

	totals := make(map[model.Platform]float64, len(model.AllPlatforms()))
	for _, p := range model.AllPlatforms() {
		if v, ok := overrides[p]; ok {
			totals[p] = v
			continue
		}
		totals[p] = aggregate.Aggregate(rowsByPlatform[p], q.Window, q.Metric, now)
	}

	trends := s.fetchTrends(ctx, q, totals, now)

	shares := aggregate.ToShare(totals)
	var total float64
	for i := range shares {
		shares[i].TrendPct = trends[shares[i].Platform]
		total += shares[i].Value
	}

	if total == 0 && len(warnings) == 0 {
		warnings = append(warnings, "no data available from any source")
	}

	return model.ShareResponse{
		Window:     q.Window,
		Metric:     q.Metric,
		UpdatedAt:  now,
		TotalValue: total,
		Platforms:  shares,
		Warnings:   warnings,
	}
}

// fetchRows gathers canonical rows per platform: direct adapters first (in
// parallel), warehouse rows when the direct fetch yields nothing or was
// skipped.
func (s *Service) fetchRows(ctx context.Context, q Query, now time.Time) (map[model.Platform][]model.DataRow, []string) {
	rows := make(map[model.Platform][]model.DataRow)
	var warnings []string

	if !q.WarehouseOnly {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)

		fetch := func(p model.Platform, f func(context.Context, model.Window, time.Time) ([]model.DataRow, error)) {
			g.Go(func() error {
				r, err := f(gctx, q.Window, now)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					s.logger.Warn("direct fetch failed", "platform", p, "error", err)
					warnings = append(warnings, fmt.Sprintf("%s direct API unavailable: %v", p, err))
					return nil // partial success is fine
				}
				rows[p] = r
				return nil
			})
		}
		fetch(model.PlatformKalshi, s.kalshi.Rows)
		fetch(model.PlatformPolymarket, s.polymarket.Rows)
		g.Wait()

		if len(rows) > 0 {
			return rows, warnings
		}
		s.logger.Warn("direct APIs yielded no data, falling back to warehouse")
	}

	raw, warn := s.warehouseRows(ctx)
	if warn != "" {
		warnings = append(warnings, warn)
	}
	for platform, platformRows := range normalize.GroupByPlatform(raw) {
		rows[platform] = normalize.MapRows(platformRows, platform)
	}
	return rows, warnings
}

// warehouseRows fetches the dashboard query, normalizing failure modes to a
// single warning string.
func (s *Service) warehouseRows(ctx context.Context) ([]map[string]any, string) {
	if s.warehouse == nil {
		return nil, "warehouse not configured"
	}

	raw, err := s.warehouse.Results(ctx, s.queryID)
	if err != nil {
		if errors.Is(err, dune.ErrMissingAPIKey) {
			s.logger.Error("warehouse auth failure", "error", err)
			return nil, "warehouse authentication failed: api key not configured"
		}
		s.logger.Warn("warehouse fetch failed", "error", err)
		return nil, fmt.Sprintf("warehouse unavailable: %v", err)
	}
	if len(raw) == 0 {
		return nil, "warehouse query returned 0 rows"
	}
	return raw, ""
}

// fetchOverrides collects the live volume figures that take precedence over
// row aggregation. Failures just leave the override unset.
func (s *Service) fetchOverrides(ctx context.Context, w model.Window) map[model.Platform]float64 {
	overrides := make(map[model.Platform]float64)
	var mu sync.Mutex
	g := new(errgroup.Group)

	// Kalshi's event-grouped total applies on every window.
	g.Go(func() error {
		v, err := s.kalshi.EventVolumeUSD(ctx, w)
		if err != nil {
			s.logger.Warn("kalshi events volume unavailable", "window", w, "error", err)
			return nil
		}
		mu.Lock()
		overrides[model.PlatformKalshi] = v
		mu.Unlock()
		return nil
	})

	// Polymarket's live total is only exact for the 24h window.
	if w == model.Window24h {
		g.Go(func() error {
			v, err := s.polymarket.Volume24hUSD(ctx)
			if err != nil {
				s.logger.Warn("polymarket 24h volume unavailable", "error", err)
				return nil
			}
			mu.Lock()
			overrides[model.PlatformPolymarket] = v
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return overrides
}

// fetchTrends compares current totals against the previous equal-length
// window using warehouse rows. Any failure yields a zero trend.
func (s *Service) fetchTrends(ctx context.Context, q Query, totals map[model.Platform]float64, now time.Time) map[model.Platform]float64 {
	trends := make(map[model.Platform]float64, len(totals))
	for p := range totals {
		trends[p] = 0
	}

	prevStart, ok := q.Window.PreviousStart(now)
	if !ok {
		return trends
	}
	prevEnd, _ := q.Window.Start(now)

	raw, warn := s.warehouseRows(ctx)
	if warn != "" {
		return trends
	}

	grouped := normalize.GroupByPlatform(raw)
	for p, cur := range totals {
		mapped := normalize.MapRows(grouped[p], p)
		var prev float64
		for _, row := range mapped {
			if !row.Timestamp.Before(prevStart) && row.Timestamp.Before(prevEnd) {
				prev += row.Value(q.Metric)
			}
		}
		trends[p] = aggregate.Trend(prev, cur)
	}
	return trends
}
