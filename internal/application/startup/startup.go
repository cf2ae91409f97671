// Package startup prepares the gateway for serving
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GatherLoop/gathersync/internal/application/container"
	"github.com/GatherLoop/gathersync/internal/domain/entities/messages"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/cleanup"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/presentation/http/server"
	"github.com/GatherLoop/gathersync/pkg/config"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence and blocks until
// shutdown.
func Initialize() error {
	gin.SetMode(gin.ReleaseMode)

	start := time.Now().UTC()
	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Step 1: Structured logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("gathersync starting", "origin", config.OriginURL, "port", config.ServerPort)

	// Step 2: Dependency injection container
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	defer appContainer.Close()
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 3: Lifecycle install + activate. Install pre-warms caches
	// best-effort; activation deletes stale-versioned partitions and
	// takes control of connected clients.
	if err := appContainer.LifecycleService.Install(ctx); err != nil {
		logger.Startup().Warn("Install pre-warming incomplete", "error", err.Error())
	}
	deleted, err := appContainer.LifecycleService.Activate(ctx)
	if err != nil {
		return fmt.Errorf("activation failed: %w", err)
	}
	logger.Startup().Info("Lifecycle active",
		"version", appContainer.LifecycleService.Version(), "stalePartitionsDeleted", len(deleted))

	// Step 4: Wire the network monitor's reconnect triggers to queue
	// replay and cache refresh. Connected clients hear the syncing
	// transitions over the websocket channel.
	broadcastSyncStatus := func() {
		snapshot, err := appContainer.StatusService.Snapshot()
		if err != nil {
			logger.Sync().Warn("Status snapshot failed", "error", err.Error())
			return
		}
		appContainer.Broadcaster.Broadcast(messages.ClientEvent{
			Type:    messages.TypeSyncStatus,
			Payload: snapshot,
		})
	}
	appContainer.Monitor.OnOnline(func(ctx context.Context) {
		appContainer.Monitor.SetSyncing(true)
		broadcastSyncStatus()
		defer func() {
			appContainer.Monitor.SetSyncing(false)
			broadcastSyncStatus()
		}()

		if _, err := appContainer.ReplayService.Replay(ctx); err != nil {
			logger.Queue().Error("Reconnect replay failed", "error", err.Error())
		}
		if err := appContainer.RefreshService.RefreshAll(ctx, false); err != nil {
			logger.Sync().Warn("Reconnect refresh incomplete", "error", err.Error())
		}
		appContainer.RefreshService.RefreshPages(ctx)
	})

	// Step 5: Background workers
	go appContainer.Monitor.Start(ctx)

	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, cleanup.NewConfigFromEnv(), logger)
	go cleanupWorker.Start(ctx)

	// Step 6: HTTP server
	httpServer := server.New(config.ServerPort, appContainer)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()
	logger.Startup().Info("Startup complete", "duration", time.Since(start))

	// Step 7: Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case sig := <-quit:
		logger.Shutdown().Info("Shutdown signal received", "signal", sig.String())
	}

	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
		return err
	}

	logger.Shutdown().Info("Server stopped cleanly")
	return nil
}
