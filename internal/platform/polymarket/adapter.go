// Package polymarket adapts the Polymarket Gamma events API to the canonical
// row, top-market, and matched-market shapes. Gamma volumes are already in
// dollars.
package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/predictionmetrics/marketshare/internal/category"
	"github.com/predictionmetrics/marketshare/internal/match"
	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/upstream"
)

// DefaultBaseURL is the public Gamma API; no auth required.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

const (
	// Event page sizes per call site: match search scans fewer, high-volume
	// events; volume aggregation wants breadth.
	searchLimit    = 200
	aggregateLimit = 1000

	// Top-market volume floor in dollars. Low enough to keep smaller
	// categories represented.
	minTopMarketVolumeUSD = 100_000

	referralParam = "via"
	referralCode  = "tut"
)

// Adapter fetches and normalizes Polymarket event data.
type Adapter struct {
	client *upstream.Client
	logger *slog.Logger
}

// New creates an adapter against the given base URL (DefaultBaseURL if empty).
func New(baseURL string, logger *slog.Logger, opts ...upstream.Option) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]upstream.Option{upstream.WithLogger(logger)}, opts...)
	return &Adapter{
		client: upstream.NewClient(baseURL, opts...),
		logger: logger,
	}
}

// Platform returns the platform key this adapter serves.
func (a *Adapter) Platform() model.Platform {
	return model.PlatformPolymarket
}

// Events fetches active events ordered by volume descending.
func (a *Adapter) Events(ctx context.Context, limit int) ([]Event, error) {
	query := url.Values{}
	query.Set("active", "true")
	query.Set("closed", "false")
	query.Set("archived", "false")
	query.Set("order", "volume")
	query.Set("ascending", "false")
	query.Set("limit", strconv.Itoa(limit))

	var events []Event
	if err := a.client.GetJSON(ctx, "/events", query, &events); err != nil {
		return nil, fmt.Errorf("get polymarket events: %w", err)
	}

	a.logger.Debug("fetched polymarket events", "count", len(events))
	return events, nil
}

// Volume24hUSD returns the total current 24h volume across all active events,
// falling back to lifetime volume for events that report no 24h figure.
func (a *Adapter) Volume24hUSD(ctx context.Context) (float64, error) {
	events, err := a.Events(ctx, aggregateLimit)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, e := range events {
		total += eventVolume24h(e)
	}
	return total, nil
}

// Rows synthesizes canonical rows for the window from current event volumes.
// Gamma exposes no historical series, so longer windows carry the current 24h
// total as a daily average.
func (a *Adapter) Rows(ctx context.Context, w model.Window, now time.Time) ([]model.DataRow, error) {
	total, err := a.Volume24hUSD(ctx)
	if err != nil {
		return nil, err
	}

	today := now.UTC().Truncate(24 * time.Hour)
	if w == model.Window24h {
		return []model.DataRow{{Timestamp: today, VolumeUSD: total}}, nil
	}

	days := windowDays(w)
	rows := make([]model.DataRow, 0, days)
	for i := days - 1; i >= 0; i-- {
		rows = append(rows, model.DataRow{
			Timestamp: today.AddDate(0, 0, -i),
			VolumeUSD: total,
		})
	}
	return rows, nil
}

// TopMarkets returns events above the volume floor as top markets, sorted by
// 24h volume descending. An event's odds come from its primary market's first
// outcome price; events whose price payload fails to decode are skipped.
func (a *Adapter) TopMarkets(ctx context.Context) ([]model.TopMarket, error) {
	events, err := a.Events(ctx, searchLimit)
	if err != nil {
		return nil, err
	}

	var out []model.TopMarket
	for _, e := range events {
		vol := eventVolume24h(e)
		if vol < minTopMarketVolumeUSD || len(e.Markets) == 0 {
			continue
		}

		odds := 0.5
		prices, err := e.Markets[0].OutcomePrices()
		if err != nil {
			a.logger.Warn("skipping event with malformed outcome prices",
				"event_id", e.ID, "error", err)
			continue
		}
		if len(prices) > 0 {
			odds = clamp01(prices[0])
		}

		slug := e.Slug
		if slug == "" {
			slug = e.ID
		}

		out = append(out, model.TopMarket{
			ID:        e.ID,
			Title:     e.Title,
			Category:  eventCategory(e),
			Platform:  model.PlatformPolymarket,
			Volume24h: vol,
			Odds:      odds,
			URL:       ReferralURL(slug),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	return out, nil
}

// FindMarket resolves a market config against live events: one bulk fetch,
// then a local match. Returns model.ErrNoMatch when nothing meets the match
// threshold.
func (a *Adapter) FindMarket(ctx context.Context, cfg model.MarketConfig) (model.MatchedMarket, error) {
	events, err := a.Events(ctx, searchLimit)
	if err != nil {
		return model.MatchedMarket{}, err
	}
	return a.matchEvent(events, cfg)
}

// MatchAll resolves every config against a single bulk fetch. Configs with no
// match are skipped with a warning; the fetch happens once regardless of how
// many configs are registered.
func (a *Adapter) MatchAll(ctx context.Context, cfgs []model.MarketConfig) ([]model.MatchedMarket, error) {
	events, err := a.Events(ctx, searchLimit)
	if err != nil {
		return nil, err
	}

	out := make([]model.MatchedMarket, 0, len(cfgs))
	for _, cfg := range cfgs {
		m, err := a.matchEvent(events, cfg)
		if err != nil {
			a.logger.Warn("no market matched config",
				"key", cfg.Key, "search_terms", cfg.SearchTerms)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (a *Adapter) matchEvent(events []Event, cfg model.MarketConfig) (model.MatchedMarket, error) {
	items := make([]match.Item, len(events))
	for i, e := range events {
		items[i] = match.Item{
			Title:  e.Title,
			Slug:   e.Slug,
			Volume: preferNonZero(float64(e.Volume), float64(e.Volume24h)),
		}
	}

	idx := match.Best(items, cfg.SearchTerms)
	if idx < 0 {
		return model.MatchedMarket{}, fmt.Errorf("config %s: %w", cfg.Key, model.ErrNoMatch)
	}
	e := events[idx]

	a.logger.Debug("matched polymarket event",
		"key", cfg.Key, "title", e.Title, "slug", e.Slug)

	volume := preferNonZero(float64(e.Volume), float64(e.Volume24h))
	slug := e.Slug
	if slug == "" {
		slug = e.ID
	}

	image := e.Image
	if image == "" {
		image = e.Icon
	}
	if image == "" && len(e.Markets) > 0 {
		image = e.Markets[0].Image
	}
	if image == "" {
		image = cfg.Image
	}

	return model.MatchedMarket{
		Key:        cfg.Key,
		Platform:   model.PlatformPolymarket,
		Title:      e.Title,
		Candidates: ExtractCandidates(e.Markets, e.Title),
		Volume:     model.FormatVolume(volume),
		RawVolume:  volume,
		URL:        ReferralURL(slug),
		Image:      image,
		Category:   cfg.Category,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

// ReferralURL builds the public event URL with the referral code attached.
func ReferralURL(slug string) string {
	return fmt.Sprintf("https://polymarket.com/event/%s?%s=%s", slug, referralParam, referralCode)
}

// eventVolume24h prefers the 24h figure, falling back to lifetime volume.
func eventVolume24h(e Event) float64 {
	if e.Volume24h > 0 {
		return float64(e.Volume24h)
	}
	return float64(e.Volume)
}

// eventCategory maps Gamma's free-form category (or first tag, or the title
// itself) onto the fixed taxonomy.
func eventCategory(e Event) model.Category {
	raw := e.Category
	if raw == "" && len(e.Tags) > 0 {
		raw = e.Tags[0].Label
	}
	if raw == "" {
		return category.FromTitle(e.Title)
	}
	return category.Normalize(raw)
}

func preferNonZero(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func windowDays(w model.Window) int {
	switch w {
	case model.Window7d:
		return 7
	case model.Window30d:
		return 30
	}
	return 365
}
