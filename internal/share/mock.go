package share

import "github.com/predictionmetrics/marketshare/internal/model"

// mockResponses holds static development payloads per window. The numbers
// roughly scale with window length so charts look plausible offline.
var mockResponses = map[model.Window]model.ShareResponse{
	model.Window24h: {
		TotalValue: 344_000_000,
		Platforms: []model.PlatformShare{
			{Platform: model.PlatformPolymarket, Value: 158_200_000, SharePct: 46, TrendPct: 8.5},
			{Platform: model.PlatformKalshi, Value: 180_100_000, SharePct: 52, TrendPct: 15.7},
		},
	},
	model.Window7d: {
		TotalValue: 8_500_000_000,
		Platforms: []model.PlatformShare{
			{Platform: model.PlatformKalshi, Value: 3_700_000_000, SharePct: 43.53, TrendPct: 7.2},
			{Platform: model.PlatformPolymarket, Value: 4_465_000_000, SharePct: 52.53, TrendPct: 14.3},
		},
	},
	model.Window30d: {
		TotalValue: 34_200_000_000,
		Platforms: []model.PlatformShare{
			{Platform: model.PlatformKalshi, Value: 15_000_000_000, SharePct: 43.86, TrendPct: 6.5},
			{Platform: model.PlatformPolymarket, Value: 17_940_000_000, SharePct: 52.46, TrendPct: 13.1},
		},
	},
	model.WindowAll: {
		TotalValue: 125_000_000_000,
		Platforms: []model.PlatformShare{
			{Platform: model.PlatformKalshi, Value: 54_750_000_000, SharePct: 43.8, TrendPct: 5.8},
			{Platform: model.PlatformPolymarket, Value: 65_650_000_000, SharePct: 52.52, TrendPct: 12.4},
		},
	},
}

// mockResponse returns the static payload for the window, stamped with the
// requested window, metric, and current time.
func (s *Service) mockResponse(q Query) model.ShareResponse {
	resp, ok := mockResponses[q.Window]
	if !ok {
		resp = mockResponses[model.Window7d]
	}

	// Copy the platform slice so callers cannot mutate the table.
	platforms := make([]model.PlatformShare, len(resp.Platforms))
	copy(platforms, resp.Platforms)

	resp.Platforms = platforms
	resp.Window = q.Window
	resp.Metric = q.Metric
	resp.UpdatedAt = s.clock().UTC()
	return resp
}
