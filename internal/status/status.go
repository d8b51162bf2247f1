// Package status implements the status-text matching rules that sort
// catalog rows into lifecycle buckets.
package status

import (
	"strings"

	"bookclub_bot/internal/model"
)

// Substrings matched against normalized status text.
const (
	markerFuture    = "future"
	markerCurrently = "currently"
	markerFinished  = "finished"
	markerRead      = "read"
)

// Normalize lower-cases and trims status text.
// Empty text becomes the available marker.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return model.AvailableMarker
	}
	return s
}

// Classify returns the bucket for a normalized status text.
// Rules apply in order and the first match wins:
//  1. contains "future" (or is empty): available
//  2. contains "currently" and not finished locally: currently reading
//  3. contains "finished" or "read", or finished locally: finished
//
// Text matching no rule yields model.BucketNone.
func Classify(text string, finishedLocally bool) model.Bucket {
	s := strings.ToLower(strings.TrimSpace(text))

	if s == "" || strings.Contains(s, markerFuture) {
		return model.BucketAvailable
	}
	if strings.Contains(s, markerCurrently) && !finishedLocally {
		return model.BucketCurrentlyReading
	}
	if finishedLocally || strings.Contains(s, markerFinished) || strings.Contains(s, markerRead) {
		return model.BucketFinished
	}
	return model.BucketNone
}
