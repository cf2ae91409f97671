package policy

import (
	"sort"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
)

// EnforceLimit deletes the oldest entries in a partition until at most
// maxEntries remain, ordered by write-timestamp ascending. Unstamped
// entries read as infinitely old and are evicted first. Returns the
// number of entries deleted.
func EnforceLimit(store interfaces.PartitionStore, partition string, maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}

	keys, err := store.Keys(partition)
	if err != nil {
		return 0, err
	}
	if len(keys) <= maxEntries {
		return 0, nil
	}

	type stampedKey struct {
		key      string
		cachedAt int64
	}

	stamped := make([]stampedKey, 0, len(keys))
	for _, key := range keys {
		entry, found, err := store.Get(partition, key)
		if err != nil || !found {
			continue
		}
		stamped = append(stamped, stampedKey{key: key, cachedAt: entry.CachedAtMillis()})
	}

	sort.Slice(stamped, func(i, j int) bool {
		return stamped[i].cachedAt < stamped[j].cachedAt
	})

	overflow := len(stamped) - maxEntries
	deleted := 0
	for i := 0; i < overflow; i++ {
		removed, err := store.Delete(partition, stamped[i].key)
		if err != nil {
			return deleted, err
		}
		if removed {
			deleted++
		}
	}
	return deleted, nil
}

// SweepExpired deletes every entry in a partition whose age exceeds
// maxAge. A zero maxAge makes the sweep a no-op. Returns the number of
// entries deleted.
func SweepExpired(store interfaces.PartitionStore, partition string, maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	keys, err := store.Keys(partition)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range keys {
		entry, found, err := store.Get(partition, key)
		if err != nil || !found {
			continue
		}
		if IsExpired(entry, maxAge, now) {
			removed, err := store.Delete(partition, key)
			if err != nil {
				return deleted, err
			}
			if removed {
				deleted++
			}
		}
	}
	return deleted, nil
}
