package kalshi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
	"github.com/predictionmetrics/marketshare/internal/upstream"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, nil, upstream.WithRetries(0, time.Millisecond))
}

func TestMarketsPagination(t *testing.T) {
	pages := []MarketsResponse{
		{Markets: []Market{{Ticker: "A-1", EventTicker: "A"}}, Cursor: "next"},
		{Markets: []Market{{Ticker: "B-1", EventTicker: "B"}}, Cursor: ""},
	}
	var served int

	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		if served == 0 && cursor != "" {
			t.Errorf("first page sent cursor %q, want none", cursor)
		}
		if served == 1 && cursor != "next" {
			t.Errorf("second page cursor = %q, want next", cursor)
		}
		json.NewEncoder(w).Encode(pages[served])
		served++
	})

	markets, err := a.Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if len(markets) != 2 {
		t.Errorf("len = %d, want 2", len(markets))
	}
	if served != 2 {
		t.Errorf("pages served = %d, want 2", served)
	}
}

func TestMarketsPageCap(t *testing.T) {
	var served int
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		served++
		// Always return a cursor: a misbehaving upstream.
		json.NewEncoder(w).Encode(MarketsResponse{
			Markets: []Market{{Ticker: "X"}},
			Cursor:  "again",
		})
	})

	markets, err := a.Markets(context.Background())
	if err != nil {
		t.Fatalf("Markets failed: %v", err)
	}
	if served != maxPages {
		t.Errorf("pages served = %d, want cap %d", served, maxPages)
	}
	if len(markets) != maxPages {
		t.Errorf("markets = %d, want %d", len(markets), maxPages)
	}
}

func TestEventVolumeGroupsByEventTicker(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []Market{
			{Ticker: "SB-A", EventTicker: "SB", Volume24h: 100_000},
			{Ticker: "SB-B", EventTicker: "SB", Volume24h: 50_000},
			{Ticker: "PRES-X", EventTicker: "PRES", Volume24h: 200_000},
		}})
	})

	got, err := a.EventVolumeUSD(context.Background(), model.Window24h)
	if err != nil {
		t.Fatalf("EventVolumeUSD failed: %v", err)
	}
	// 350,000 cents = $3,500: strikes of one event sum, cents convert.
	if got != 3500 {
		t.Errorf("EventVolumeUSD = %v, want 3500", got)
	}
}

func TestCentsToDollars(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []Market{
			{Ticker: "T", EventTicker: "E", Volume24h: 12345},
		}})
	})

	got, err := a.EventVolumeUSD(context.Background(), model.Window24h)
	if err != nil {
		t.Fatalf("EventVolumeUSD failed: %v", err)
	}
	if got != 123.45 {
		t.Errorf("12345 cents = %v USD, want 123.45", got)
	}
}

func TestRows24h(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []Market{
			{Ticker: "T", EventTicker: "E", Volume24h: 70_000},
		}})
	})

	now := time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC)
	rows, err := a.Rows(context.Background(), model.Window24h, now)
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	if rows[0].VolumeUSD != 700 {
		t.Errorf("volume = %v, want 700", rows[0].VolumeUSD)
	}
	want := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	if !rows[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", rows[0].Timestamp, want)
	}
}

func TestRows7dDailyAverage(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []Market{
			{Ticker: "T", EventTicker: "E", Volume24h: 10_000},
		}})
	})

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	rows, err := a.Rows(context.Background(), model.Window7d, now)
	if err != nil {
		t.Fatalf("Rows failed: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("len = %d, want 7 daily rows", len(rows))
	}
	for _, r := range rows {
		if r.VolumeUSD != 100 {
			t.Errorf("row volume = %v, want daily average 100", r.VolumeUSD)
		}
	}
	if !rows[0].Timestamp.Before(rows[6].Timestamp) {
		t.Error("rows not in ascending date order")
	}
}

func TestTopMarkets(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MarketsResponse{Markets: []Market{
			{Ticker: "SB-26", Title: "Super Bowl Champion", MarketType: "binary", Volume24h: 900_000, YesBid: 45},
			{Ticker: "SCALAR", Title: "Some index level", MarketType: "scalar", Volume24h: 900_000},
			{Ticker: "DUST", Title: "Tiny market", MarketType: "binary", Volume24h: 100},
			{Ticker: "BTC-200K", Title: "Bitcoin above $200k", MarketType: "binary", Volume24h: 1_500_000, YesBid: 0, YesAsk: 30},
		}})
	})

	markets, err := a.TopMarkets(context.Background())
	if err != nil {
		t.Fatalf("TopMarkets failed: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("len = %d, want 2 (scalar and sub-floor filtered)", len(markets))
	}
	// Sorted by volume descending.
	if markets[0].ID != "BTC-200K" || markets[1].ID != "SB-26" {
		t.Errorf("order = %s, %s; want BTC-200K, SB-26", markets[0].ID, markets[1].ID)
	}
	if markets[0].Category != model.CategoryCrypto {
		t.Errorf("category = %q, want CRYPTO", markets[0].Category)
	}
	if markets[0].Odds != 0.30 {
		t.Errorf("odds = %v, want 0.30 (yes_ask fallback)", markets[0].Odds)
	}
	if markets[1].Odds != 0.45 {
		t.Errorf("odds = %v, want 0.45", markets[1].Odds)
	}
	if markets[1].URL != "https://kalshi.com/markets/SB-26" {
		t.Errorf("url = %q", markets[1].URL)
	}
}

func TestFetchFailureReturnsError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	if _, err := a.Rows(context.Background(), model.Window7d, time.Now()); err == nil {
		t.Fatal("expected error for 503")
	}
}
