package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/domain/entities/messages"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/security"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// ControlHandlers implements the client message protocol. The message set
// is closed; anything outside the enum is rejected rather than ignored.
type ControlHandlers struct {
	lifecycleService   *services.LifecycleService
	refreshService     *services.RefreshService
	maintenanceService *services.MaintenanceService
	logger             *logging.ChanneledLogger
}

// NewControlHandlers creates control handlers with injected dependencies
func NewControlHandlers(lifecycleService *services.LifecycleService, refreshService *services.RefreshService, maintenanceService *services.MaintenanceService, logger *logging.ChanneledLogger) *ControlHandlers {
	return &ControlHandlers{
		lifecycleService:   lifecycleService,
		refreshService:     refreshService,
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// PostMessage handles POST /sync/message
func (h *ControlHandlers) PostMessage(c *gin.Context) {
	var envelope messages.Envelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message envelope"})
		return
	}
	if !envelope.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type", "type": string(envelope.Type)})
		return
	}

	h.logger.Sync().Debug("Client message received", "type", string(envelope.Type))

	switch envelope.Type {
	case messages.TypeSkipWaiting:
		if err := h.lifecycleService.SkipWaiting(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"activated": true, "version": h.lifecycleService.Version()})

	case messages.TypeGetVersion:
		c.JSON(http.StatusOK, gin.H{"version": h.lifecycleService.Version()})

	case messages.TypeTriggerCacheUpdate:
		payload, err := envelope.DecodeTriggerCacheUpdate()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		if err := h.refreshService.RefreshAll(c.Request.Context(), payload.IsPWA); err != nil {
			c.JSON(http.StatusOK, gin.H{"success": false, "partial": true, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	case messages.TypeClearCache:
		if !maintenanceAuthorized(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}
		if err := h.maintenanceService.ClearAll(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "cleared": true})

	case messages.TypeCacheMaintenance:
		if !maintenanceAuthorized(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
			return
		}
		report, err := h.maintenanceService.RunAll()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"evicted": report.Evicted,
			"expired": report.Expired,
			"total":   report.Total(),
		})

	}
}

// maintenanceAuthorized gates the destructive message types. With no JWT
// secret configured the surface stays open, which is the local-dev
// default.
func maintenanceAuthorized(c *gin.Context) bool {
	if config.JWTSecret == "" {
		return true
	}

	token, ok := security.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		return false
	}
	return security.ValidateAdminToken(token, config.JWTSecret) == nil
}
