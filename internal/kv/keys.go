// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package kv

import (
	"strconv"
	"time"
)

// Key layout of the counter set.
const (
	TotalKey        = "count:event:TOTAL"
	eventTypePrefix = "count:event:"
	regionPrefix    = "count:region:"
	ratePrefix      = "rate:"
	markerPrefix    = "processed:"
)

// EventTypeKey is the lifetime counter of one event type.
func EventTypeKey(eventType string) string { return eventTypePrefix + eventType }

// RegionKey is the lifetime counter of one region.
func RegionKey(region string) string { return regionPrefix + region }

// MarkerKey is the idempotency marker of one event.
func MarkerKey(eventID string) string { return markerPrefix + eventID }

// RateKey is the per-minute counter of bucket.
func RateKey(bucket int64) string { return ratePrefix + strconv.FormatInt(bucket, 10) }

// MinuteBucket returns floor(t in ms / 60000).
func MinuteBucket(t time.Time) int64 {
	return t.UnixMilli() / 60000
}
