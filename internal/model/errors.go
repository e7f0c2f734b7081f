package model

import "errors"

// ErrNoMatch reports that no live listing met the match threshold for a
// configured market. Callers treat it as a per-config skip, not a failure.
var ErrNoMatch = errors.New("no matching market found")
