// Package aggregate reduces canonical rows to per-window scalars and converts
// per-platform totals into share-of-market percentages.
package aggregate

import (
	"sort"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// weekSpan is the granularity assumed for warehouse rows: each row covers the
// 7 days starting at its timestamp.
const weekSpan = 7 * 24 * time.Hour

// Overlaps reports whether a row's period intersects the window at all. Rows
// are treated as weekly buckets, so a row whose 7-day span crosses the window
// boundary is included even though part of it lies outside — an accepted
// approximation, since the source granularity is coarser than the boundary.
func Overlaps(ts time.Time, w model.Window, now time.Time) bool {
	start, bounded := w.Start(now)
	if !bounded {
		return true
	}
	end := ts.Add(weekSpan)
	return !ts.After(now) && !end.Before(start)
}

// Filter returns the rows whose period overlaps the window.
func Filter(rows []model.DataRow, w model.Window, now time.Time) []model.DataRow {
	out := make([]model.DataRow, 0, len(rows))
	for _, r := range rows {
		if Overlaps(r.Timestamp, w, now) {
			out = append(out, r)
		}
	}
	return out
}

// Sum adds the metric across rows.
func Sum(rows []model.DataRow, m model.Metric) float64 {
	var total float64
	for _, r := range rows {
		total += r.Value(m)
	}
	return total
}

// Aggregate reduces rows to one scalar for the requested window and metric.
//
// For 7d/30d/all the overlapping rows are summed. For 24h the result depends
// on source granularity: with daily rows the most recent day's value is used
// directly; with a single weekly bucket the week's total is divided by 7 as an
// estimate, because no finer-grained source exists.
func Aggregate(rows []model.DataRow, w model.Window, m model.Metric, now time.Time) float64 {
	filtered := Filter(rows, w, now)
	if len(filtered) == 0 {
		return 0
	}

	if w != model.Window24h {
		return Sum(filtered, m)
	}

	if isDaily(filtered, now) {
		mostRecent := filtered[0]
		for _, r := range filtered[1:] {
			if r.Timestamp.After(mostRecent.Timestamp) {
				mostRecent = r
			}
		}
		return mostRecent.Value(m)
	}

	// Single weekly bucket: estimate one day as a seventh of the week.
	return Sum(filtered, m) / 7
}

// isDaily detects daily granularity: multiple rows in the window, or any row
// stamped within one day of now.
func isDaily(rows []model.DataRow, now time.Time) bool {
	if len(rows) > 1 {
		return true
	}
	for _, r := range rows {
		diff := now.Sub(r.Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff <= 24*time.Hour {
			return true
		}
	}
	return false
}

// ToShare converts per-platform totals into share percentages, sorted
// ascending by value. Every platform in totals appears exactly once; when the
// grand total is zero all shares are zero rather than dividing by zero.
func ToShare(totals map[model.Platform]float64) []model.PlatformShare {
	var grand float64
	for _, v := range totals {
		grand += v
	}

	out := make([]model.PlatformShare, 0, len(totals))
	for platform, value := range totals {
		var pct float64
		if grand > 0 {
			pct = value / grand * 100
		}
		out = append(out, model.PlatformShare{Platform: platform, Value: value, SharePct: pct})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Value != out[b].Value {
			return out[a].Value < out[b].Value
		}
		return out[a].Platform < out[b].Platform
	})
	return out
}

// Trend computes the percentage change of current versus previous. A previous
// value of zero with positive current yields the +100 "infinite growth"
// sentinel; no growth signal at all yields zero.
func Trend(previous, current float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}
