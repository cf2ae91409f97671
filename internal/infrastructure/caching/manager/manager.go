// Package manager provides centralized cache operations over the named,
// versioned partitions.
package manager

import (
	"fmt"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/policy"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// Interface assertion to ensure Manager implements the cache contract.
var _ interfaces.Cache = (*Manager)(nil)

// Manager resolves partition classes to the current version's partition
// names and applies the injected policy table to every operation.
type Manager struct {
	store  interfaces.PartitionStore
	cfg    *config.CacheConfig
	logger *logging.ChanneledLogger
	now    func() time.Time
}

// NewManager creates a cache manager over a partition store.
func NewManager(store interfaces.PartitionStore, cfg *config.CacheConfig, logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager",
			"version", cfg.Version, "partitions", cfg.CurrentNames())
	}

	return &Manager{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the manager's clock. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Backing returns the underlying partition store.
func (m *Manager) Backing() interfaces.PartitionStore {
	return m.store
}

func (m *Manager) Lookup(class config.PartitionClass, key string) (*types.CachedEntry, bool) {
	partition := m.cfg.Name(class)
	entry, found, err := m.store.Get(partition, key)
	if err != nil {
		if m.logger != nil {
			m.logger.Cache().Error("Cache read failed", "partition", partition, "key", key, "error", err.Error())
		}
		return nil, false
	}
	if m.logger != nil {
		m.logger.LogCacheOperation("lookup", partition, key, found)
	}
	return entry, found
}

func (m *Manager) Store(class config.PartitionClass, key string, entry *types.CachedEntry) error {
	return m.store.Put(m.cfg.Name(class), key, entry)
}

func (m *Manager) StampAndStore(class config.PartitionClass, key string, entry *types.CachedEntry) error {
	stamped := policy.Stamp(entry, m.now(), m.cfg.FormatVersion)
	if err := m.store.Put(m.cfg.Name(class), key, stamped); err != nil {
		return fmt.Errorf("failed to store %s in %s: %w", key, class, err)
	}
	return nil
}

func (m *Manager) IsExpired(class config.PartitionClass, entry *types.CachedEntry) bool {
	return policy.IsExpired(entry, m.cfg.Spec(class).MaxAge, m.now())
}

func (m *Manager) AgeOf(entry *types.CachedEntry) time.Duration {
	return entry.Age(m.now())
}

func (m *Manager) Delete(class config.PartitionClass, key string) bool {
	removed, err := m.store.Delete(m.cfg.Name(class), key)
	if err != nil && m.logger != nil {
		m.logger.Cache().Error("Cache delete failed", "partition", m.cfg.Name(class), "key", key, "error", err.Error())
	}
	return removed
}

func (m *Manager) Keys(class config.PartitionClass) []string {
	keys, err := m.store.Keys(m.cfg.Name(class))
	if err != nil {
		if m.logger != nil {
			m.logger.Cache().Error("Cache key listing failed", "partition", m.cfg.Name(class), "error", err.Error())
		}
		return nil
	}
	return keys
}

func (m *Manager) EnforceLimit(class config.PartitionClass) (int, error) {
	spec := m.cfg.Spec(class)
	evicted, err := policy.EnforceLimit(m.store, spec.Name, spec.MaxEntries)
	if evicted > 0 && m.logger != nil {
		m.logger.Cache().Info("Evicted oldest entries", "partition", spec.Name, "count", evicted, "maxEntries", spec.MaxEntries)
	}
	return evicted, err
}

func (m *Manager) SweepExpired(class config.PartitionClass) (int, error) {
	spec := m.cfg.Spec(class)
	expired, err := policy.SweepExpired(m.store, spec.Name, spec.MaxAge, m.now())
	if expired > 0 && m.logger != nil {
		m.logger.Cache().Info("Swept expired entries", "partition", spec.Name, "count", expired, "maxAge", spec.MaxAge)
	}
	return expired, err
}

// Maintain enforces the entry limit and then sweeps expired entries for
// one partition. The two policies are independent: count pressure can
// evict a fresh entry, and the sweep can expire a partition under limit.
func (m *Manager) Maintain(class config.PartitionClass) (types.MaintenanceReport, error) {
	evicted, err := m.EnforceLimit(class)
	if err != nil {
		return types.MaintenanceReport{Evicted: evicted}, err
	}
	expired, err := m.SweepExpired(class)
	return types.MaintenanceReport{Evicted: evicted, Expired: expired}, err
}

func (m *Manager) Purge(class config.PartitionClass) error {
	partition := m.cfg.Name(class)
	if m.logger != nil {
		m.logger.Cache().Info("Purging partition", "partition", partition)
	}
	return m.store.DeletePartition(partition)
}

func (m *Manager) Stats() []types.PartitionStats {
	stats := make([]types.PartitionStats, 0, len(config.AllPartitionClasses))
	for _, class := range config.AllPartitionClasses {
		s, err := m.store.Stats(m.cfg.Name(class))
		if err != nil {
			continue
		}
		stats = append(stats, s)
	}
	return stats
}
