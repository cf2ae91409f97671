package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
)

// WSHandlers upgrades clients onto the broadcast channel.
type WSHandlers struct {
	broadcaster *messaging.Broadcaster
	upgrader    websocket.Upgrader
	logger      *logging.ChanneledLogger
}

// NewWSHandlers creates websocket handlers with injected dependencies
func NewWSHandlers(broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *WSHandlers {
	return &WSHandlers{
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin upgrades are fine; the channel is broadcast-only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Connect handles GET /sync/ws - upgrades the connection and pumps
// broadcast events until the client goes away.
func (h *WSHandlers) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Server().Error("Websocket upgrade failed", "error", err)
		return
	}

	client := h.broadcaster.Register(conn)
	h.broadcaster.ReadLoop(client)
}
