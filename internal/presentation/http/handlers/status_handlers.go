package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
)

// StatusHandlers expose the read-only sync and cache status surface.
type StatusHandlers struct {
	statusService      *services.StatusService
	maintenanceService *services.MaintenanceService
	lifecycleService   *services.LifecycleService
	logger             *logging.ChanneledLogger
}

// NewStatusHandlers creates status handlers with injected dependencies
func NewStatusHandlers(statusService *services.StatusService, maintenanceService *services.MaintenanceService, lifecycleService *services.LifecycleService, logger *logging.ChanneledLogger) *StatusHandlers {
	return &StatusHandlers{
		statusService:      statusService,
		maintenanceService: maintenanceService,
		lifecycleService:   lifecycleService,
		logger:             logger,
	}
}

// GetStatus handles GET /sync/status
func (h *StatusHandlers) GetStatus(c *gin.Context) {
	snapshot, err := h.statusService.Snapshot()
	if err != nil {
		h.logger.Sync().Error("Status snapshot failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sync status"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetStats handles GET /sync/stats - per-partition cache statistics
func (h *StatusHandlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"partitions": h.maintenanceService.Stats()})
}

// GetVersion handles GET /sync/version
func (h *StatusHandlers) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": h.lifecycleService.Version(),
		"state":   string(h.lifecycleService.State()),
	})
}
