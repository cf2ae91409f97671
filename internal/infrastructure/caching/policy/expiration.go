// Package policy implements per-partition expiration stamping and
// count-based eviction.
package policy

import (
	"strconv"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
)

// Stamp returns a copy of the entry whose headers carry the write
// timestamp and cache-format version. The original is not mutated; status
// and body are preserved exactly.
func Stamp(entry *types.CachedEntry, now time.Time, formatVersion string) *types.CachedEntry {
	stamped := entry.Clone()
	stamped.Headers.Set(types.HeaderCachedAt, strconv.FormatInt(now.UnixMilli(), 10))
	stamped.Headers.Set(types.HeaderCacheVersion, formatVersion)
	return stamped
}

// IsExpired reports whether the entry's age exceeds maxAge. A zero maxAge
// disables age expiration. An unstamped entry reads as infinitely old and
// is always expired when a maxAge is configured.
func IsExpired(entry *types.CachedEntry, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return entry.Age(now) > maxAge
}
