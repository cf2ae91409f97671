// Package interfaces defines the cache contracts implemented by the
// partition stores and the cache manager.
package interfaces

import (
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// PartitionStore wraps named-cache storage: isolated key-value partitions
// of HTTP-response-like entries. Implementations must be safe for
// concurrent use; per-key writes are last-write-wins.
type PartitionStore interface {
	Get(partition, key string) (*types.CachedEntry, bool, error)
	Put(partition, key string, entry *types.CachedEntry) error
	Delete(partition, key string) (bool, error)
	Keys(partition string) ([]string, error)
	DeletePartition(partition string) error
	Partitions() ([]string, error)
	Stats(partition string) (types.PartitionStats, error)
	Close() error
}

// Cache is the operation surface the application services use. It is
// implemented by the cache manager, which resolves partition classes to
// versioned partition names and applies the injected policy table.
type Cache interface {
	// Lookup returns the stored entry for a key, if any. Lookups do not
	// filter on expiration; callers that care invoke IsExpired explicitly.
	Lookup(class config.PartitionClass, key string) (*types.CachedEntry, bool)

	// Store puts an entry verbatim, with no metadata stamping.
	Store(class config.PartitionClass, key string, entry *types.CachedEntry) error

	// StampAndStore clones the entry, augments its headers with the
	// write-timestamp and cache-format version, and puts it.
	StampAndStore(class config.PartitionClass, key string, entry *types.CachedEntry) error

	// IsExpired reports whether the entry's age exceeds the partition's
	// configured max-age. Partitions with no max-age never expire.
	IsExpired(class config.PartitionClass, entry *types.CachedEntry) bool

	// AgeOf returns how long ago an entry was stamped.
	AgeOf(entry *types.CachedEntry) time.Duration

	Delete(class config.PartitionClass, key string) bool
	Keys(class config.PartitionClass) []string

	// EnforceLimit evicts oldest-first down to the partition's MaxEntries.
	EnforceLimit(class config.PartitionClass) (int, error)

	// SweepExpired deletes every entry older than the partition's MaxAge.
	SweepExpired(class config.PartitionClass) (int, error)

	// Maintain runs EnforceLimit then SweepExpired for one partition.
	Maintain(class config.PartitionClass) (types.MaintenanceReport, error)

	// Purge deletes all entries in a partition.
	Purge(class config.PartitionClass) error

	Stats() []types.PartitionStats
}
