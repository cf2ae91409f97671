package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/services"
	syncentities "github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/network"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/queue"
)

// QueueHandlers exposes the offline mutation queue.
type QueueHandlers struct {
	queueRepo     *queue.Repository
	replayService *services.ReplayService
	monitor       *network.Monitor
	logger        *logging.ChanneledLogger
}

// NewQueueHandlers creates queue handlers with injected dependencies
func NewQueueHandlers(queueRepo *queue.Repository, replayService *services.ReplayService, monitor *network.Monitor, logger *logging.ChanneledLogger) *QueueHandlers {
	return &QueueHandlers{
		queueRepo:     queueRepo,
		replayService: replayService,
		monitor:       monitor,
		logger:        logger,
	}
}

// EnqueueRequest represents a deferred mutation submission
type EnqueueRequest struct {
	Kind       string          `json:"kind" binding:"required"`
	Collection string          `json:"collection" binding:"required"`
	RecordID   string          `json:"recordId"`
	Payload    json.RawMessage `json:"payload"`
}

// PostEnqueue handles POST /sync/queue - stores a mutation for later replay
func (h *QueueHandlers) PostEnqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid enqueue request"})
		return
	}

	kind := syncentities.Kind(req.Kind)
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown mutation kind", "kind": req.Kind})
		return
	}
	if kind != syncentities.KindCreate && req.RecordID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recordId required for " + req.Kind})
		return
	}

	mutation, err := h.queueRepo.Enqueue(kind, req.Collection, req.RecordID, req.Payload)
	if err != nil {
		h.logger.Queue().Error("Enqueue failed", "collection", req.Collection, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue mutation"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": mutation.ID, "status": string(mutation.Status)})
}

// GetQueue handles GET /sync/queue - lists pending and failed mutations
func (h *QueueHandlers) GetQueue(c *gin.Context) {
	pending, err := h.queueRepo.Pending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue"})
		return
	}
	failed, err := h.queueRepo.Failed()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending, "failed": failed})
}

// PostReplay handles POST /sync/queue/replay - drains the queue against
// the origin. Offline replays are rejected up front so mutations don't
// burn retries on a dead network.
func (h *QueueHandlers) PostReplay(c *gin.Context) {
	if !h.monitor.Online() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "offline, replay deferred"})
		return
	}

	result, err := h.replayService.Replay(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replayed": result.Replayed,
		"deferred": result.Deferred,
		"failed":   result.Failed,
	})
}
