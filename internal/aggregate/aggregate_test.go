package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

var now = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func TestAggregateWeeklyEstimate24h(t *testing.T) {
	// A single weekly bucket of 700 under 24h estimates to 100 (700/7).
	rows := []model.DataRow{
		{Timestamp: now.Add(-5 * 24 * time.Hour), VolumeUSD: 700},
	}

	got := Aggregate(rows, model.Window24h, model.MetricVolumeUSD, now)
	if got != 100 {
		t.Errorf("Aggregate = %v, want 100 (weekly total / 7)", got)
	}
}

func TestAggregateDaily24hUsesMostRecentDay(t *testing.T) {
	rows := []model.DataRow{
		{Timestamp: now.Add(-48 * time.Hour), VolumeUSD: 300},
		{Timestamp: now.Add(-2 * time.Hour), VolumeUSD: 120},
		{Timestamp: now.Add(-26 * time.Hour), VolumeUSD: 200},
	}

	got := Aggregate(rows, model.Window24h, model.MetricVolumeUSD, now)
	if got != 120 {
		t.Errorf("Aggregate = %v, want 120 (most recent day, no division)", got)
	}
}

func TestAggregateWindowedSum(t *testing.T) {
	rows := []model.DataRow{
		{Timestamp: now.Add(-2 * 24 * time.Hour), VolumeUSD: 100},
		{Timestamp: now.Add(-6 * 24 * time.Hour), VolumeUSD: 200},
		// Outside 7d but its weekly span overlaps the window start.
		{Timestamp: now.Add(-10 * 24 * time.Hour), VolumeUSD: 400},
		// Far outside any overlap.
		{Timestamp: now.Add(-60 * 24 * time.Hour), VolumeUSD: 800},
	}

	got := Aggregate(rows, model.Window7d, model.MetricVolumeUSD, now)
	if got != 700 {
		t.Errorf("Aggregate 7d = %v, want 700 (edge-overlapping weekly bucket included)", got)
	}

	got = Aggregate(rows, model.WindowAll, model.MetricVolumeUSD, now)
	if got != 1500 {
		t.Errorf("Aggregate all = %v, want 1500", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := Aggregate(nil, model.Window7d, model.MetricVolumeUSD, now); got != 0 {
		t.Errorf("Aggregate(nil) = %v, want 0", got)
	}
}

func TestAggregateOpenInterestMetric(t *testing.T) {
	rows := []model.DataRow{
		{Timestamp: now.Add(-24 * time.Hour), VolumeUSD: 100, OpenInterestUSD: 40},
		{Timestamp: now.Add(-48 * time.Hour), VolumeUSD: 100, OpenInterestUSD: 60},
	}
	got := Aggregate(rows, model.Window7d, model.MetricOpenInterestUSD, now)
	if got != 100 {
		t.Errorf("Aggregate open interest = %v, want 100", got)
	}
}

func TestToShare(t *testing.T) {
	shares := ToShare(map[model.Platform]float64{
		model.PlatformKalshi:     1000,
		model.PlatformPolymarket: 3000,
	})

	if len(shares) != 2 {
		t.Fatalf("len = %d, want 2", len(shares))
	}
	// Ascending by value.
	if shares[0].Platform != model.PlatformKalshi || shares[1].Platform != model.PlatformPolymarket {
		t.Errorf("order = %v, want kalshi then polymarket", shares)
	}
	if shares[0].SharePct != 25 || shares[1].SharePct != 75 {
		t.Errorf("shares = %v/%v, want 25/75", shares[0].SharePct, shares[1].SharePct)
	}

	var pctSum float64
	for _, s := range shares {
		pctSum += s.SharePct
	}
	if math.Abs(pctSum-100) > 1e-9 {
		t.Errorf("share_pct sum = %v, want 100", pctSum)
	}
}

func TestToShareZeroTotal(t *testing.T) {
	shares := ToShare(map[model.Platform]float64{
		model.PlatformKalshi:     0,
		model.PlatformPolymarket: 0,
	})

	for _, s := range shares {
		if s.SharePct != 0 {
			t.Errorf("%s share_pct = %v, want 0 (no division by zero)", s.Platform, s.SharePct)
		}
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		previous float64
		current  float64
		want     float64
	}{
		{"growth", 100, 150, 50},
		{"decline", 200, 100, -50},
		{"from zero sentinel", 0, 500, 100},
		{"no data", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trend(tt.previous, tt.current)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Trend(%v, %v) = %v, want %v", tt.previous, tt.current, got, tt.want)
			}
		})
	}
}

func TestOverlapsAllWindow(t *testing.T) {
	ancient := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !Overlaps(ancient, model.WindowAll, now) {
		t.Error("Overlaps(all) = false, want true (no start bound)")
	}
}

func TestOverlapsFutureRowExcluded(t *testing.T) {
	future := now.Add(48 * time.Hour)
	if Overlaps(future, model.Window7d, now) {
		t.Error("Overlaps(future row) = true, want false")
	}
}
