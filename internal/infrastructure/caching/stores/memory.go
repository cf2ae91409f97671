// Package stores provides concrete partition store implementations
package stores

import (
	"sync"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
)

// MemoryStore keeps partitions in process memory. It backs tests and the
// memory cache backend; contents do not survive a restart.
type MemoryStore struct {
	partitions map[string]map[string]*types.CachedEntry
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty in-memory partition store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		partitions: make(map[string]map[string]*types.CachedEntry),
	}
}

func (ms *MemoryStore) Get(partition, key string) (*types.CachedEntry, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entries, exists := ms.partitions[partition]
	if !exists {
		return nil, false, nil
	}
	entry, exists := entries[key]
	if !exists {
		return nil, false, nil
	}
	return entry.Clone(), true, nil
}

func (ms *MemoryStore) Put(partition, key string, entry *types.CachedEntry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.partitions[partition] == nil {
		ms.partitions[partition] = make(map[string]*types.CachedEntry)
	}
	ms.partitions[partition][key] = entry.Clone()
	return nil
}

func (ms *MemoryStore) Delete(partition, key string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entries, exists := ms.partitions[partition]
	if !exists {
		return false, nil
	}
	if _, exists := entries[key]; !exists {
		return false, nil
	}
	delete(entries, key)
	return true, nil
}

func (ms *MemoryStore) Keys(partition string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entries := ms.partitions[partition]
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func (ms *MemoryStore) DeletePartition(partition string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.partitions, partition)
	return nil
}

func (ms *MemoryStore) Partitions() ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	names := make([]string, 0, len(ms.partitions))
	for name := range ms.partitions {
		names = append(names, name)
	}
	return names, nil
}

func (ms *MemoryStore) Stats(partition string) (types.PartitionStats, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stats := types.PartitionStats{Partition: partition}
	for _, entry := range ms.partitions[partition] {
		stats.Entries++
		stats.Bytes += int64(len(entry.Body))
	}
	return stats, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
