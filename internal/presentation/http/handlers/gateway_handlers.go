// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/domain/entities/routing"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
)

// GatewayHandlers serves the proxy surface. Every request under /gateway
// is classified and fetched through the caching strategies.
type GatewayHandlers struct {
	fetchService *services.FetchService
	logger       *logging.ChanneledLogger
}

// NewGatewayHandlers creates gateway handlers with injected dependencies
func NewGatewayHandlers(fetchService *services.FetchService, logger *logging.ChanneledLogger) *GatewayHandlers {
	return &GatewayHandlers{
		fetchService: fetchService,
		logger:       logger,
	}
}

// Proxy handles ANY /gateway/*path. The upstream path and query are
// reconstructed from the wildcard, and browser fetch hints are mapped onto
// the classification request.
func (h *GatewayHandlers) Proxy(c *gin.Context) {
	upstreamPath := c.Param("path")
	if upstreamPath == "" {
		upstreamPath = "/"
	}

	req := &routing.Request{
		Method: c.Request.Method,
		URL: &url.URL{
			Path:     upstreamPath,
			RawQuery: c.Request.URL.RawQuery,
		},
		Navigate:    isNavigation(c),
		Destination: routing.Destination(c.GetHeader("X-Gathersync-Destination")),
	}

	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		body = data
	}

	entry, err := h.fetchService.Handle(c.Request.Context(), req, c.Request.Header.Clone(), body)
	if err != nil {
		h.logger.Routing().Error("Gateway fetch failed", "method", req.Method, "path", upstreamPath, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unreachable"})
		return
	}

	writeEntry(c, entry)
}

// writeEntry copies a cached entry onto the response, metadata headers
// included so clients can inspect entry age and version.
func writeEntry(c *gin.Context, entry *types.CachedEntry) {
	header := c.Writer.Header()
	for key, values := range entry.Headers {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	c.Status(entry.Status)
	if len(entry.Body) > 0 {
		c.Writer.Write(entry.Body) //nolint:errcheck
	}
}

// isNavigation reports whether the request is a top-level navigation. The
// Sec-Fetch-Mode header is authoritative when present; otherwise an HTML
// Accept header on an extensionless GET is treated as a navigation.
func isNavigation(c *gin.Context) bool {
	if mode := c.GetHeader("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	if c.Request.Method != http.MethodGet {
		return false
	}
	if !strings.Contains(c.GetHeader("Accept"), "text/html") {
		return false
	}
	return path.Ext(c.Param("path")) == ""
}
