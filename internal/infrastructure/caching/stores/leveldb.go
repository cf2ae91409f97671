package stores

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// keySep separates the partition name from the entry key. Partition names
// never contain a NUL byte, so the prefix scan cannot bleed across
// partitions.
const keySep = "\x00"

// LevelStore persists partitions in a single LevelDB database so the
// offline snapshot survives gateway restarts. Entries are gob-encoded.
type LevelStore struct {
	db *leveldb.DB
}

// NewLevelStore opens (or creates) the database at path.
func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database at %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func storeKey(partition, key string) []byte {
	return []byte(partition + keySep + key)
}

func partitionPrefix(partition string) []byte {
	return []byte(partition + keySep)
}

func encodeEntry(entry *types.CachedEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(data []byte) (*types.CachedEntry, error) {
	var entry types.CachedEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}

func (ls *LevelStore) Get(partition, key string) (*types.CachedEntry, bool, error) {
	data, err := ls.db.Get(storeKey(partition, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entry, err := decodeEntry(data)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func (ls *LevelStore) Put(partition, key string, entry *types.CachedEntry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	return ls.db.Put(storeKey(partition, key), data, nil)
}

func (ls *LevelStore) Delete(partition, key string) (bool, error) {
	k := storeKey(partition, key)
	exists, err := ls.db.Has(k, nil)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	return true, ls.db.Delete(k, nil)
}

func (ls *LevelStore) Keys(partition string) ([]string, error) {
	prefix := partitionPrefix(partition)
	iter := ls.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(prefix):]))
	}
	return keys, iter.Error()
}

func (ls *LevelStore) DeletePartition(partition string) error {
	iter := ls.db.NewIterator(util.BytesPrefix(partitionPrefix(partition)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return ls.db.Write(batch, nil)
}

func (ls *LevelStore) Partitions() ([]string, error) {
	iter := ls.db.NewIterator(nil, nil)
	defer iter.Release()

	seen := make(map[string]struct{})
	var names []string
	for iter.Next() {
		key := iter.Key()
		idx := bytes.IndexByte(key, 0)
		if idx < 0 {
			continue
		}
		name := string(key[:idx])
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, iter.Error()
}

func (ls *LevelStore) Stats(partition string) (types.PartitionStats, error) {
	iter := ls.db.NewIterator(util.BytesPrefix(partitionPrefix(partition)), nil)
	defer iter.Release()

	stats := types.PartitionStats{Partition: partition}
	for iter.Next() {
		entry, err := decodeEntry(iter.Value())
		if err != nil {
			continue
		}
		stats.Entries++
		stats.Bytes += int64(len(entry.Body))
	}
	return stats, iter.Error()
}

func (ls *LevelStore) Close() error {
	return ls.db.Close()
}
