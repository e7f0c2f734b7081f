// Package kalshi adapts the Kalshi trade API to the canonical row and
// top-market shapes. Kalshi reports volumes in integer cents; every value
// leaving this package is in dollars.
package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/predictionmetrics/marketshare/internal/category"
	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/upstream"
)

// DefaultBaseURL is the public trade API. Despite the subdomain it serves all
// Kalshi markets, not just elections.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

const (
	pageSize = 500
	// maxPages bounds cursor-following against a misbehaving upstream that
	// always returns a cursor.
	maxPages = 100

	// Top-market volume floor, in cents ($5).
	minTopMarketVolumeCents = 500
)

// Adapter fetches and normalizes Kalshi market data.
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
	return model.PlatformKalshi
}

// Markets fetches every open market, following the cursor until it is empty
// or the page cap is reached. Pages are inherently sequential: each request
// needs the previous response's cursor.
func (a *Adapter) Markets(ctx context.Context) ([]Market, error) {
	var all []Market
	cursor := ""

	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("status", "open")
		query.Set("limit", strconv.Itoa(pageSize))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp MarketsResponse
		if err := a.client.GetJSON(ctx, "/markets", query, &resp); err != nil {
			return nil, fmt.Errorf("get kalshi markets: %w", err)
		}

		all = append(all, resp.Markets...)
		if resp.Cursor == "" {
			break
		}
		cursor = resp.Cursor
	}

	a.logger.Debug("fetched kalshi markets", "count", len(all))
	return all, nil
}

// EventVolumeUSD returns the total volume in dollars with markets grouped by
// event_ticker. Grouping reproduces the event-level volumes Kalshi's own UI
// shows; summing disjoint per-market volumes undercounts multi-strike events.
func (a *Adapter) EventVolumeUSD(ctx context.Context, w model.Window) (float64, error) {
	markets, err := a.Markets(ctx)
	if err != nil {
		return 0, err
	}

	eventCents := make(map[string]int64)
	for _, m := range markets {
		ticker := m.EventTicker
		if ticker == "" {
			ticker = "UNKNOWN"
		}
		eventCents[ticker] += marketVolumeCents(m, w)
	}

	var totalCents int64
	for _, v := range eventCents {
		totalCents += v
	}

	a.logger.Debug("kalshi event volume",
		"window", w,
		"markets", len(markets),
		"events", len(eventCents),
		"volume_usd", float64(totalCents)/100,
	)
	return float64(totalCents) / 100, nil
}

// Rows synthesizes canonical rows for the window from current market volumes.
// Kalshi exposes no historical volume endpoint, so longer windows carry the
// current 24h total as a daily average — an estimate, matching what the
// dashboard labels it as.
func (a *Adapter) Rows(ctx context.Context, w model.Window, now time.Time) ([]model.DataRow, error) {
	markets, err := a.Markets(ctx)
	if err != nil {
		return nil, err
	}

	var totalCents int64
	for _, m := range markets {
		totalCents += marketVolumeCents(m, model.Window24h)
	}
	totalUSD := float64(totalCents) / 100

	today := now.UTC().Truncate(24 * time.Hour)
	if w == model.Window24h {
		return []model.DataRow{{Timestamp: today, VolumeUSD: totalUSD}}, nil
	}

	days := windowDays(w)
	rows := make([]model.DataRow, 0, days)
	for i := days - 1; i >= 0; i-- {
		rows = append(rows, model.DataRow{
			Timestamp: today.AddDate(0, 0, -i),
			VolumeUSD: totalUSD,
		})
	}
	return rows, nil
}

// TopMarkets returns open binary markets above the volume floor, sorted by
// 24h volume descending. Kalshi provides no category, so it is inferred from
// the title.
func (a *Adapter) TopMarkets(ctx context.Context) ([]model.TopMarket, error) {
	query := url.Values{}
	query.Set("status", "open")
	query.Set("limit", "200")

	var resp MarketsResponse
	if err := a.client.GetJSON(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("get kalshi top markets: %w", err)
	}

	var out []model.TopMarket
	for _, m := range resp.Markets {
		volCents := marketVolumeCents(m, model.Window24h)
		if m.MarketType != "binary" || volCents <= minTopMarketVolumeCents {
			continue
		}

		out = append(out, model.TopMarket{
			ID:        m.Ticker,
			Title:     m.Title,
			Category:  category.FromTitle(m.Title),
			Platform:  model.PlatformKalshi,
			Volume24h: float64(volCents) / 100,
			Odds:      yesOdds(m),
			URL:       "https://kalshi.com/markets/" + m.Ticker,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Volume24h > out[j].Volume24h
	})
	return out, nil
}

// marketVolumeCents picks the volume field for a window: the 24h figure is
// more accurate for short windows, the lifetime figure for long ones. Either
// substitutes when the preferred one is absent.
func marketVolumeCents(m Market, w model.Window) int64 {
	if w == model.Window24h || w == model.Window7d {
		if m.Volume24h > 0 {
			return m.Volume24h
		}
		return m.Volume
	}
	if m.Volume > 0 {
		return m.Volume
	}
	return m.Volume24h
}

// yesOdds derives the current YES probability (0-1) from the best available
// price field, all in cents.
func yesOdds(m Market) float64 {
	price := m.YesBid
	if price == 0 {
		price = m.YesAsk
	}
	if price == 0 {
		price = m.LastPrice
	}
	if price == 0 {
		price = 50
	}
	return float64(price) / 100
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
