package model

import "time"

// DefaultTime returns t unchanged unless it is the zero value, in which case
// fallback is returned. Remote payloads frequently omit createdAt/updatedAt;
// normalization defaults them to the ingest time.
func DefaultTime(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}
