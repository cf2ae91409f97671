// Package types defines cache data structures shared across stores
package types

import (
	"net/http"
	"strconv"
	"time"
)

// Synthetic metadata headers added to stamped entries.
const (
	HeaderCachedAt     = "X-Gathersync-Cached-At"
	HeaderCacheVersion = "X-Gathersync-Cache-Version"
)

// CachedEntry is a stored HTTP response: status, headers and body kept
// verbatim, plus up to two synthetic metadata headers.
type CachedEntry struct {
	Status  int         `json:"status"`
	Headers http.Header `json:"headers"`
	Body    []byte      `json:"body"`
}

// Clone returns a deep copy so callers can mutate headers safely.
func (e *CachedEntry) Clone() *CachedEntry {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return &CachedEntry{
		Status:  e.Status,
		Headers: e.Headers.Clone(),
		Body:    body,
	}
}

// CachedAtMillis returns the write-timestamp stamp in milliseconds since
// epoch. An entry with no stamp (or a garbled one) reports 0, i.e.
// infinitely old, so it always sorts oldest and always reads as expired.
func (e *CachedEntry) CachedAtMillis() int64 {
	raw := e.Headers.Get(HeaderCachedAt)
	if raw == "" {
		return 0
	}
	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return millis
}

// Age computes how long ago the entry was stamped.
func (e *CachedEntry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.CachedAtMillis()))
}

// FormatVersion returns the cache-format version stamp, if present.
func (e *CachedEntry) FormatVersion() string {
	return e.Headers.Get(HeaderCacheVersion)
}
