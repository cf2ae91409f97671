package services

import (
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// MaintenanceService backs the CACHE_MAINTENANCE and CLEAR_CACHE
// messages: sweeps and wholesale purges across all partitions.
type MaintenanceService struct {
	cache  interfaces.Cache
	logger *logging.ChanneledLogger
}

// NewMaintenanceService creates the maintenance surface.
func NewMaintenanceService(cache interfaces.Cache, logger *logging.ChanneledLogger) *MaintenanceService {
	return &MaintenanceService{cache: cache, logger: logger}
}

// RunAll enforces eviction and expiration policy on every partition.
func (s *MaintenanceService) RunAll() (types.MaintenanceReport, error) {
	var total types.MaintenanceReport
	var firstErr error

	for _, class := range config.AllPartitionClasses {
		report, err := s.cache.Maintain(class)
		total.Evicted += report.Evicted
		total.Expired += report.Expired
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Cache().Info("Manual cache maintenance completed",
		"evicted", total.Evicted, "expired", total.Expired)
	return total, firstErr
}

// ClearAll deletes every entry in all current partitions.
func (s *MaintenanceService) ClearAll() error {
	for _, class := range config.AllPartitionClasses {
		if err := s.cache.Purge(class); err != nil {
			return err
		}
	}
	s.logger.Cache().Info("All cache partitions cleared")
	return nil
}

// Stats reports per-partition entry counts and sizes.
func (s *MaintenanceService) Stats() []types.PartitionStats {
	return s.cache.Stats()
}
