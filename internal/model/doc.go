// Package model defines shared data types used across the marketshare service.
//
// Conventions:
//   - Volumes: float64 US dollars (platform-native units are converted at the
//     adapter boundary)
//   - Timestamps: time.Time in UTC
//   - Odds: integer percentage points (0-100)
package model
