// Package normalize converts raw warehouse rows — arbitrary key-value records
// with platform-specific column names and timestamp encodings — into canonical
// model.DataRow values.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// Column-name synonyms, checked case-insensitively in order. The first key of
// the record matching any synonym wins.
var (
	timestampColumns = []string{"timestamp", "ts", "day", "block_time", "date", "week"}
	volumeColumns    = []string{"volume_usd", "volume", "volumeusd", "notional usd volume"}
	oiColumns        = []string{"open_interest_usd", "open_interest", "openinterestusd"}
)

// IdentifyPlatform resolves which platform a warehouse row belongs to from its
// "platform" column (matched case-insensitively). ok is false when the row has
// no recognizable platform; such rows are ignored by callers.
func IdentifyPlatform(row map[string]any) (model.Platform, bool) {
	for key, val := range row {
		if !strings.EqualFold(key, "platform") {
			continue
		}
		s, _ := val.(string)
		return model.ParsePlatform(s)
	}
	return "", false
}

// MapRows converts raw rows into canonical DataRows. Rows without a resolvable
// timestamp are dropped: a row that cannot be placed in time cannot be
// windowed. Rows without a volume column are kept with volume zero. Warehouse
// values are dollar-denominated; when a column name is ambiguous the dollar
// interpretation is preferred, so no unit conversion happens here (Kalshi's
// integer-cent direct-API volumes are converted at that adapter's boundary).
//
// MapRows is pure: the same input always yields the same output.
func MapRows(rows []map[string]any, platform model.Platform) []model.DataRow {
	if len(rows) == 0 {
		return nil
	}

	// Resolve columns against the first row; the warehouse returns a uniform
	// shape per query.
	tsKey := resolveColumn(rows[0], timestampColumns)
	volKey := resolveColumn(rows[0], volumeColumns)
	oiKey := resolveColumn(rows[0], oiColumns)

	if tsKey == "" {
		return nil
	}

	out := make([]model.DataRow, 0, len(rows))
	for _, row := range rows {
		ts, ok := CoerceTimestamp(row[tsKey])
		if !ok {
			continue
		}

		var volume, oi float64
		if volKey != "" {
			volume = CoerceFloat(row[volKey])
		}
		if oiKey != "" {
			oi = CoerceFloat(row[oiKey])
		}

		out = append(out, model.DataRow{
			Timestamp:       ts,
			VolumeUSD:       volume,
			OpenInterestUSD: oi,
		})
	}
	return out
}

// GroupByPlatform splits warehouse rows by their platform column, dropping
// rows for platforms the dashboard does not track.
func GroupByPlatform(rows []map[string]any) map[model.Platform][]map[string]any {
	grouped := make(map[model.Platform][]map[string]any)
	for _, row := range rows {
		platform, ok := IdentifyPlatform(row)
		if !ok {
			continue
		}
		grouped[platform] = append(grouped[platform], row)
	}
	return grouped
}

func resolveColumn(row map[string]any, synonyms []string) string {
	for key := range row {
		for _, col := range synonyms {
			if strings.EqualFold(key, col) {
				return key
			}
		}
	}
	return ""
}

// CoerceFloat parses a numeric value from the loose types a JSON-decoded
// warehouse row can carry. Missing or unparsable values coerce to zero rather
// than failing the row.
func CoerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// CoerceTimestamp parses the timestamp encodings seen in warehouse rows:
// RFC 3339 strings, bare dates, and epoch numbers. Numeric values below 1e10
// are treated as seconds, larger ones as milliseconds. ok is false when the
// value cannot be placed in time.
func CoerceTimestamp(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), true
	case string:
		return parseTimeString(ts)
	case float64:
		return fromEpoch(ts), true
	case int:
		return fromEpoch(float64(ts)), true
	case int64:
		return fromEpoch(float64(ts)), true
	}
	return time.Time{}, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromEpoch(n float64) time.Time {
	if n < 1e10 {
		return time.Unix(int64(n), 0).UTC() // seconds
	}
	return time.UnixMilli(int64(n)).UTC()
}
