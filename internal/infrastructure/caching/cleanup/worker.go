// Package cleanup provides the background cache maintenance worker
package cleanup

import (
	"context"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// Worker periodically runs the eviction and expiration sweeps over every
// partition, independent of the message-triggered maintenance path.
type Worker struct {
	cache  interfaces.Cache
	config *Config
	logger *logging.ChanneledLogger
}

// NewWorker creates a cleanup worker with injected configuration.
func NewWorker(cache interfaces.Cache, cfg *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

// Start begins the cleanup routine, using the configured interval. It
// blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup(ctx)
		}
	}
}

func (w *Worker) performCleanup(ctx context.Context) {
	start := time.Now()
	totalCleaned := 0

	for _, class := range config.AllPartitionClasses {
		select {
		case <-ctx.Done():
			return
		default:
		}

		report, err := w.cache.Maintain(class)
		if err != nil {
			w.logger.Cache().Error("Cache cleanup failed for partition",
				"class", string(class), "error", err.Error())
			continue
		}
		totalCleaned += report.Total()

		if w.config.VerboseReporting && report.Total() > 0 {
			w.logger.Cache().Info("Partition cleaned",
				"class", string(class), "evicted", report.Evicted, "expired", report.Expired)
		}
	}

	duration := time.Since(start)
	if totalCleaned > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "cleaned", totalCleaned, "duration", duration)
	} else if w.config.VerboseReporting {
		w.logger.Cache().Debug("Cache cleanup completed with no expired items", "duration", duration)
	}
}
