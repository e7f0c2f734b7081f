package model

import "time"

// Window is a trailing time span over which volume is aggregated.
type Window string

const (
	Window24h Window = "24h"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	WindowAll Window = "all"
)

// DefaultWindow is used when a request does not specify one.
const DefaultWindow = Window7d

// ParseWindow returns the window for s, defaulting to 7d.
func ParseWindow(s string) Window {
	switch Window(s) {
	case Window24h, Window7d, Window30d, WindowAll:
		return Window(s)
	}
	return DefaultWindow
}

// Duration of one window span. Zero for WindowAll.
func (w Window) Duration() time.Duration {
	switch w {
	case Window24h:
		return 24 * time.Hour
	case Window7d:
		return 7 * 24 * time.Hour
	case Window30d:
		return 30 * 24 * time.Hour
	}
	return 0
}

// Start returns the window's start instant computed backward from now in UTC.
// ok is false for WindowAll, which has no start bound.
func (w Window) Start(now time.Time) (time.Time, bool) {
	d := w.Duration()
	if d == 0 {
		return time.Time{}, false
	}
	return now.UTC().Add(-d), true
}

// PreviousStart returns the start of the immediately preceding window of equal
// length, used for trend comparisons. ok is false for WindowAll.
func (w Window) PreviousStart(now time.Time) (time.Time, bool) {
	start, ok := w.Start(now)
	if !ok {
		return time.Time{}, false
	}
	return start.Add(-w.Duration()), true
}
