// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/application/container"
	"github.com/GatherLoop/gathersync/internal/presentation/http/handlers"
	"github.com/GatherLoop/gathersync/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	gatewayHandlers := handlers.NewGatewayHandlers(container.FetchService, container.Logger)
	controlHandlers := handlers.NewControlHandlers(container.LifecycleService, container.RefreshService, container.MaintenanceService, container.Logger)
	queueHandlers := handlers.NewQueueHandlers(container.QueueRepo, container.ReplayService, container.Monitor, container.Logger)
	statusHandlers := handlers.NewStatusHandlers(container.StatusService, container.MaintenanceService, container.LifecycleService, container.Logger)
	pushHandlers := handlers.NewPushHandlers(container.NotificationService, container.Logger)
	wsHandlers := handlers.NewWSHandlers(container.Broadcaster, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.Logger)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": container.LifecycleService.Version()})
	})

	// Caching proxy surface. Everything under /gateway is classified and
	// served through a caching strategy.
	r.Any("/gateway/*path", gatewayHandlers.Proxy)

	// Sync control plane
	sync := r.Group("/sync")
	{
		sync.POST("/message", controlHandlers.PostMessage)
		sync.GET("/status", statusHandlers.GetStatus)
		sync.GET("/stats", statusHandlers.GetStats)
		sync.GET("/version", statusHandlers.GetVersion)
		sync.GET("/ws", wsHandlers.Connect)

		sync.POST("/queue", queueHandlers.PostEnqueue)
		sync.POST("/queue/replay", queueHandlers.PostReplay)
	}

	// Push delivery surface
	r.POST("/push", pushHandlers.PostPush)
	r.POST("/push/click", pushHandlers.PostClick)

	r.POST("/auth/login", authHandlers.PostLogin)

	// Admin endpoints require a bearer token
	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.GET("/queue", queueHandlers.GetQueue)
	}

	return r
}
