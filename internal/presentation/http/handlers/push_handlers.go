package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
)

// PushHandlers receive push deliveries and click callbacks.
type PushHandlers struct {
	notificationService *services.NotificationService
	logger              *logging.ChanneledLogger
}

// NewPushHandlers creates push handlers with injected dependencies
func NewPushHandlers(notificationService *services.NotificationService, logger *logging.ChanneledLogger) *PushHandlers {
	return &PushHandlers{
		notificationService: notificationService,
		logger:              logger,
	}
}

// PostPush handles POST /push - accepts a raw push body in any of the
// supported shapes and broadcasts the rendered notification. The body is
// never rejected for being malformed; parsing degrades to defaults.
func (h *PushHandlers) PostPush(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read push body"})
		return
	}

	notification := h.notificationService.Present(raw, isIOSClient(c))
	c.JSON(http.StatusOK, gin.H{"presented": true, "notification": notification})
}

// ClickRequest represents a notification click callback
type ClickRequest struct {
	Action  string `json:"action"`
	EventID string `json:"eventId"`
	URL     string `json:"url"`
}

// PostClick handles POST /push/click
func (h *PushHandlers) PostClick(c *gin.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid click request"})
		return
	}

	h.notificationService.HandleClick(req.Action, req.EventID, req.URL)
	c.JSON(http.StatusOK, gin.H{"handled": true})
}

// isIOSClient sniffs the platform from an explicit hint header first,
// falling back to the user agent.
func isIOSClient(c *gin.Context) bool {
	if platform := c.GetHeader("X-Gathersync-Platform"); platform != "" {
		return strings.EqualFold(platform, "ios")
	}
	ua := c.GetHeader("User-Agent")
	return strings.Contains(ua, "iPhone") || strings.Contains(ua, "iPad")
}
