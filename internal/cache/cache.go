// Package cache implements the short-TTL read cache used by the browse
// and detail endpoints.  Entries are keyed by the normalized filter set
// (listings) or by event id (detail) and are invalidated by prefix on
// any state-changing operation, since individual filter combinations
// are not tracked.  The cache is safe to recreate empty on restart.
package cache

import (
    "context"
    "crypto/sha1"
    "fmt"
    "strings"
    "time"
)

// Cache is the read-through store behind browse and detail responses.
// Get returns the cached bytes and whether the key was found and fresh.
// Set and InvalidatePrefix are best-effort; a failed write only costs a
// re-query on the next read.
type Cache interface {
    Get(ctx context.Context, key string) ([]byte, bool)
    Set(ctx context.Context, key string, value []byte, ttl time.Duration)
    InvalidatePrefix(ctx context.Context, prefix string)
}

// ListingPrefix and DetailPrefix are the two key families mutations
// invalidate.
const (
    ListingPrefix = "events:"
    DetailPrefix  = "event:"
)

// ListingKey builds the cache key for a browse query from its
// normalized filter set.
func ListingKey(category, venueID, dateFrom, dateTo, status string) string {
    return ListingPrefix + strings.Join([]string{category, venueID, dateFrom, dateTo, status}, ":")
}

// DetailKey builds the cache key for an event detail response.
func DetailKey(eventID string) string {
    return DetailPrefix + eventID
}

// Fingerprint computes a quoted entity tag over the mutable fields of a
// record.  Volatile counters must not be passed in, so that a matching
// If-None-Match can short-circuit with 304 even while view-style
// counters churn.
func Fingerprint(parts ...string) string {
    sum := sha1.Sum([]byte(strings.Join(parts, "|")))
    return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:8]))
}
