package stores

import (
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
)

// TieredStore fronts a durable store with a fast one. Reads promote
// durable hits into the front; writes and deletes go to both. The durable
// tier is authoritative for enumeration, so a restart (which empties the
// front) never hides entries.
type TieredStore struct {
	front   interfaces.PartitionStore
	durable interfaces.PartitionStore
}

// NewTieredStore layers front over durable.
func NewTieredStore(front, durable interfaces.PartitionStore) *TieredStore {
	return &TieredStore{front: front, durable: durable}
}

func (ts *TieredStore) Get(partition, key string) (*types.CachedEntry, bool, error) {
	if entry, found, err := ts.front.Get(partition, key); err == nil && found {
		return entry, true, nil
	}

	entry, found, err := ts.durable.Get(partition, key)
	if err != nil || !found {
		return nil, false, err
	}
	// Promotion is best-effort; the durable copy already satisfied the read.
	_ = ts.front.Put(partition, key, entry)
	return entry, true, nil
}

func (ts *TieredStore) Put(partition, key string, entry *types.CachedEntry) error {
	if err := ts.durable.Put(partition, key, entry); err != nil {
		return err
	}
	return ts.front.Put(partition, key, entry)
}

func (ts *TieredStore) Delete(partition, key string) (bool, error) {
	removed, err := ts.durable.Delete(partition, key)
	if err != nil {
		return removed, err
	}
	if _, err := ts.front.Delete(partition, key); err != nil {
		return removed, err
	}
	return removed, nil
}

func (ts *TieredStore) Keys(partition string) ([]string, error) {
	return ts.durable.Keys(partition)
}

func (ts *TieredStore) DeletePartition(partition string) error {
	if err := ts.durable.DeletePartition(partition); err != nil {
		return err
	}
	return ts.front.DeletePartition(partition)
}

func (ts *TieredStore) Partitions() ([]string, error) {
	return ts.durable.Partitions()
}

func (ts *TieredStore) Stats(partition string) (types.PartitionStats, error) {
	return ts.durable.Stats(partition)
}

func (ts *TieredStore) Close() error {
	if err := ts.front.Close(); err != nil {
		return err
	}
	return ts.durable.Close()
}
