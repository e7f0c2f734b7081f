package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies an upstream prediction-market platform.
type Platform string

const (
	PlatformKalshi     Platform = "kalshi"
	PlatformPolymarket Platform = "polymarket"
)

// AllPlatforms returns every known platform in stable order. Share responses
// must contain exactly one entry per platform, so callers iterate this rather
// than whatever subset an upstream fetch happened to return.
func AllPlatforms() []Platform {
	return []Platform{PlatformKalshi, PlatformPolymarket}
}

// ParsePlatform maps a free-form platform string (e.g. a warehouse column
// value like "Kalshi") to a Platform. ok is false for unrecognized values,
// such as platforms the dashboard does not track.
func ParsePlatform(s string) (Platform, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return "", false
	case strings.Contains(lower, "kalshi"):
		return PlatformKalshi, true
	case strings.Contains(lower, "polymarket"):
		return PlatformPolymarket, true
	}
	return "", false
}

// Metric selects which canonical-row field is aggregated.
type Metric string

const (
	MetricVolumeUSD       Metric = "volume_usd"
	MetricOpenInterestUSD Metric = "open_interest_usd"
)

// ParseMetric returns the metric for s, defaulting to volume_usd.
func ParseMetric(s string) Metric {
	if Metric(s) == MetricOpenInterestUSD {
		return MetricOpenInterestUSD
	}
	return MetricVolumeUSD
}

// Category is the fixed cross-platform market taxonomy.
type Category string

const (
	CategoryPolitics Category = "POLITICS"
	CategorySports   Category = "SPORTS"
	CategoryCrypto   Category = "CRYPTO"
	CategorySocial   Category = "SOCIAL"
	CategoryData     Category = "DATA"
	CategoryOther    Category = "Other"
)

// DataRow is the canonical normalized observation all aggregation operates on.
// Rows are immutable once constructed: downstream code filters and sums them,
// never mutates them.
type DataRow struct {
	Timestamp       time.Time // UTC
	VolumeUSD       float64
	OpenInterestUSD float64
}

// Value returns the row's value for the given metric.
func (r DataRow) Value(m Metric) float64 {
	if m == MetricOpenInterestUSD {
		return r.OpenInterestUSD
	}
	return r.VolumeUSD
}

// MarketConfig is the static registration of a logical market to track.
// Configs are loaded at process start and never mutated at runtime.
type MarketConfig struct {
	Key         string   `yaml:"key"`
	SearchTerms []string `yaml:"search_terms"`
	Category    Category `yaml:"category"`
	Image       string   `yaml:"image"`
}

// Validate checks the invariants the matcher depends on.
func (c MarketConfig) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("market config: key is required")
	}
	if len(c.SearchTerms) == 0 {
		return fmt.Errorf("market config %s: search_terms must be non-empty", c.Key)
	}
	return nil
}

// Candidate is a named outcome with integer odds in percentage points.
type Candidate struct {
	Name string `json:"name"`
	Odds int    `json:"odds"`
}

// MatchedMarket is the result of resolving a MarketConfig against one
// platform's live listings. Re-matching after an upstream refresh may yield a
// different market.
type MatchedMarket struct {
	Key        string      `json:"key"`
	Platform   Platform    `json:"platform"`
	Title      string      `json:"title"`
	Candidates []Candidate `json:"candidates"`
	Volume     string      `json:"volume"`
	RawVolume  float64     `json:"raw_volume"`
	URL        string      `json:"url"`
	Image      string      `json:"image"`
	Category   Category    `json:"category"`
	UpdatedAt  time.Time   `json:"last_updated"`
}

// TopMarket is a single high-volume market for the top-markets listing.
type TopMarket struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Category  Category `json:"category"`
	Platform  Platform `json:"platform"`
	Volume24h float64  `json:"volume_24h"`
	Odds      float64  `json:"current_odds"` // 0-1
	URL       string   `json:"url"`
}

// PlatformShare is one platform's aggregate for a requested window.
type PlatformShare struct {
	Platform Platform `json:"platform"`
	Value    float64  `json:"value"`
	SharePct float64  `json:"share_pct"`
	TrendPct float64  `json:"trend_pct"`
}

// ShareResponse is the aggregate payload served to the dashboard. It is always
// renderable: data-fetch failures surface as warnings, never as an error
// response.
type ShareResponse struct {
	Window     Window          `json:"window"`
	Metric     Metric          `json:"metric"`
	UpdatedAt  time.Time       `json:"updated_at"`
	TotalValue float64         `json:"total_value"`
	Platforms  []PlatformShare `json:"platforms"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// FormatVolume renders a dollar volume as the short display string the
// dashboard shows, e.g. 1500000 -> "1.5M VOL".
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1_000_000_000:
		return fmt.Sprintf("%.1fB VOL", volume/1_000_000_000)
	case volume >= 1_000_000:
		return fmt.Sprintf("%.1fM VOL", volume/1_000_000)
	case volume >= 1_000:
		return fmt.Sprintf("%.1fK VOL", volume/1_000)
	}
	return fmt.Sprintf("%.0f VOL", volume)
}
