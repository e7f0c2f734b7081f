package model

import (
	"testing"
	"time"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  Platform
		ok    bool
	}{
		{"kalshi", PlatformKalshi, true},
		{"Kalshi", PlatformKalshi, true},
		{"  Polymarket  ", PlatformPolymarket, true},
		{"polymarket-us", PlatformPolymarket, true},
		{"Opinion", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePlatform(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParsePlatform(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input string
		want  Window
	}{
		{"24h", Window24h},
		{"7d", Window7d},
		{"30d", Window30d},
		{"all", WindowAll},
		{"", Window7d},
		{"1y", Window7d},
	}

	for _, tt := range tests {
		if got := ParseWindow(tt.input); got != tt.want {
			t.Errorf("ParseWindow(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	start, ok := Window24h.Start(now)
	if !ok {
		t.Fatal("Window24h.Start ok = false, want true")
	}
	if want := now.Add(-24 * time.Hour); !start.Equal(want) {
		t.Errorf("Window24h.Start = %v, want %v", start, want)
	}

	if _, ok := WindowAll.Start(now); ok {
		t.Error("WindowAll.Start ok = true, want false (no start bound)")
	}
}

func TestWindowPreviousStart(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	prev, ok := Window7d.PreviousStart(now)
	if !ok {
		t.Fatal("Window7d.PreviousStart ok = false, want true")
	}
	if want := now.Add(-14 * 24 * time.Hour); !prev.Equal(want) {
		t.Errorf("Window7d.PreviousStart = %v, want %v", prev, want)
	}

	if _, ok := WindowAll.PreviousStart(now); ok {
		t.Error("WindowAll.PreviousStart ok = true, want false")
	}
}

func TestParseMetric(t *testing.T) {
	if got := ParseMetric("open_interest_usd"); got != MetricOpenInterestUSD {
		t.Errorf("ParseMetric(open_interest_usd) = %q", got)
	}
	if got := ParseMetric("bogus"); got != MetricVolumeUSD {
		t.Errorf("ParseMetric(bogus) = %q, want volume_usd default", got)
	}
}

func TestDataRowValue(t *testing.T) {
	r := DataRow{VolumeUSD: 100, OpenInterestUSD: 25}
	if got := r.Value(MetricVolumeUSD); got != 100 {
		t.Errorf("Value(volume_usd) = %v, want 100", got)
	}
	if got := r.Value(MetricOpenInterestUSD); got != 25 {
		t.Errorf("Value(open_interest_usd) = %v, want 25", got)
	}
}

func TestMarketConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MarketConfig
		wantErr bool
	}{
		{"valid", MarketConfig{Key: "superBowl", SearchTerms: []string{"super", "bowl"}}, false},
		{"missing key", MarketConfig{SearchTerms: []string{"x"}}, true},
		{"empty terms", MarketConfig{Key: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{1_500_000, "1.5M VOL"},
		{2_300_000_000, "2.3B VOL"},
		{1_500, "1.5K VOL"},
		{500, "500 VOL"},
		{0, "0 VOL"},
	}

	for _, tt := range tests {
		if got := FormatVolume(tt.input); got != tt.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
