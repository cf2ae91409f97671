// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"path/filepath"

	"github.com/GatherLoop/gathersync/internal/application/services"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/manager"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/stores"
	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/network"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/queue"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/status"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Core services (stateless singletons)
	ClassifierService   *services.ClassifierService
	FetchService        *services.FetchService
	LifecycleService    *services.LifecycleService
	RefreshService      *services.RefreshService
	ReplayService       *services.ReplayService
	NotificationService *services.NotificationService
	MaintenanceService  *services.MaintenanceService
	StatusService       *services.StatusService

	// Infrastructure dependencies
	Logger       *logging.ChanneledLogger
	CacheConfig  *config.CacheConfig
	RouteRules   *config.RouteRules
	CacheManager *manager.Manager
	Broadcaster  *messaging.Broadcaster
	Monitor      *network.Monitor
	Origin       *origin.Client
	DB           *database.DB
	QueueRepo    *queue.Repository
	StatusRepo   *status.Repository
}

// NewContainer creates and wires all singleton services.
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	cacheConfig := config.NewCacheConfig()

	rules, err := config.LoadRouteRules(filepath.Join(config.DataDir, "routes.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load route rules: %w", err)
	}

	store, err := newPartitionStore()
	if err != nil {
		return nil, err
	}
	cacheManager := manager.NewManager(store, cacheConfig, logger)

	db, err := database.NewConnectionWithLogger(filepath.Join(config.DataDir, "gathersync.db"), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	originClient, err := origin.NewClient(config.OriginURL, config.OriginHealthPath, config.OriginFetchTimeout)
	if err != nil {
		return nil, err
	}

	queueRepo := queue.NewRepository(db, logger)
	statusRepo := status.NewRepository(db)
	broadcaster := messaging.NewBroadcaster(logger)
	monitor := network.NewMonitor(originClient, config.NetworkProbeInterval, logger)

	classifier := services.NewClassifierService(rules)

	return &Container{
		ClassifierService:   classifier,
		FetchService:        services.NewFetchService(cacheManager, originClient, classifier, logger),
		LifecycleService:    services.NewLifecycleService(cacheManager, originClient, cacheConfig, rules, broadcaster, logger),
		RefreshService:      services.NewRefreshService(cacheManager, originClient, classifier, statusRepo, logger),
		ReplayService:       services.NewReplayService(queueRepo, originClient, config.ReplayMaxRetries, logger),
		NotificationService: services.NewNotificationService(broadcaster, logger),
		MaintenanceService:  services.NewMaintenanceService(cacheManager, logger),
		StatusService:       services.NewStatusService(statusRepo, queueRepo, monitor),

		Logger:       logger,
		CacheConfig:  cacheConfig,
		RouteRules:   rules,
		CacheManager: cacheManager,
		Broadcaster:  broadcaster,
		Monitor:      monitor,
		Origin:       originClient,
		DB:           db,
		QueueRepo:    queueRepo,
		StatusRepo:   statusRepo,
	}, nil
}

func newPartitionStore() (interfaces.PartitionStore, error) {
	switch config.CacheBackend {
	case "memory":
		return stores.NewMemoryStore(), nil
	default:
		durable, err := stores.NewLevelStore(filepath.Join(config.DataDir, "cache"))
		if err != nil {
			return nil, fmt.Errorf("failed to open cache store: %w", err)
		}
		// Hot entries are served from memory; the disk tier survives
		// restarts and backs enumeration.
		return stores.NewTieredStore(stores.NewMemoryStore(), durable), nil
	}
}

// Close releases the container's storage handles.
func (c *Container) Close() error {
	if err := c.CacheManager.Backing().Close(); err != nil {
		return err
	}
	return c.DB.Close()
}
