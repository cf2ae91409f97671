package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/GatherLoop/gathersync/internal/domain/entities/messages"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/interfaces"
	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// State is the lifecycle phase of the current deployment version.
type State string

const (
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActive     State = "active"
)

// LifecycleService governs install pre-warming, activation cleanup of
// stale-versioned partitions, and the update handshake with clients.
type LifecycleService struct {
	cache       interfaces.Cache
	origin      *origin.Client
	cacheConfig *config.CacheConfig
	rules       *config.RouteRules
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger

	mu    sync.RWMutex
	state State
}

// NewLifecycleService creates the lifecycle manager.
func NewLifecycleService(cache interfaces.Cache, originClient *origin.Client, cacheConfig *config.CacheConfig, rules *config.RouteRules, broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *LifecycleService {
	return &LifecycleService{
		cache:       cache,
		origin:      originClient,
		cacheConfig: cacheConfig,
		rules:       rules,
		broadcaster: broadcaster,
		logger:      logger,
		state:       StateInstalling,
	}
}

// State returns the current lifecycle phase.
func (s *LifecycleService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *LifecycleService) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Version returns the current deployment cache version string.
func (s *LifecycleService) Version() string {
	return fmt.Sprintf("v%d", s.cacheConfig.Version)
}

// Install pre-fetches the critical asset set into the static partition
// and best-effort pre-fetches the app shell. Individual shell failures
// never abort the install; a critical-asset failure only logs, since the
// gateway can still serve network-first until the cache warms.
func (s *LifecycleService) Install(ctx context.Context) error {
	s.setState(StateInstalling)
	s.logger.Startup().Info("Lifecycle install: pre-warming caches",
		"critical", len(s.rules.CriticalAssets), "shell", len(s.rules.ShellAssets))

	for _, asset := range s.rules.CriticalAssets {
		if err := s.prewarm(ctx, config.PartitionStatic, asset); err != nil {
			s.logger.Startup().Warn("Critical asset pre-fetch failed", "asset", asset, "error", err.Error())
		}
	}

	for _, asset := range s.rules.ShellAssets {
		if err := s.prewarm(ctx, config.PartitionShell, asset); err != nil {
			s.logger.Startup().Warn("App shell pre-fetch failed", "asset", asset, "error", err.Error())
		}
	}

	s.setState(StateInstalled)
	s.broadcaster.Broadcast(messages.ClientEvent{
		Type:    messages.TypeUpdateWaiting,
		Payload: map[string]string{"version": s.Version()},
	})
	return nil
}

func (s *LifecycleService) prewarm(ctx context.Context, class config.PartitionClass, asset string) error {
	entry, err := s.origin.Get(ctx, asset)
	if err != nil {
		return err
	}
	if entry.Status != http.StatusOK {
		return fmt.Errorf("unexpected status %d", entry.Status)
	}
	key := http.MethodGet + " " + asset
	return s.cache.StampAndStore(class, key, entry)
}

// Activate deletes every partition whose identity is not on the current
// version's allow-list, then announces the new version to connected
// clients. Returns the deleted partition names.
func (s *LifecycleService) Activate(ctx context.Context) ([]string, error) {
	s.setState(StateActivating)

	allowed := make(map[string]struct{})
	for _, name := range s.cacheConfig.CurrentNames() {
		allowed[name] = struct{}{}
	}

	// The manager only sees current-version names, so stale partitions are
	// enumerated and deleted through the backing store directly.
	type partitionLister interface {
		Backing() interfaces.PartitionStore
	}
	lister, ok := s.cache.(partitionLister)
	if !ok {
		s.setState(StateActive)
		return nil, nil
	}
	store := lister.Backing()

	existing, err := store.Partitions()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate partitions: %w", err)
	}

	var deleted []string
	for _, name := range existing {
		if _, ok := allowed[name]; ok {
			continue
		}
		if err := store.DeletePartition(name); err != nil {
			s.logger.Cache().Error("Failed to delete stale partition", "partition", name, "error", err.Error())
			continue
		}
		deleted = append(deleted, name)
	}

	if len(deleted) > 0 {
		s.logger.Cache().Info("Deleted stale-versioned partitions", "partitions", deleted)
	}

	s.setState(StateActive)
	s.broadcaster.Broadcast(messages.ClientEvent{
		Type:    messages.TypeVersionActivated,
		Payload: map[string]string{"version": s.Version()},
	})
	return deleted, nil
}

// SkipWaiting applies a pending update immediately: activation runs (it
// is idempotent) and clients are notified without waiting for them to
// reconnect.
func (s *LifecycleService) SkipWaiting(ctx context.Context) error {
	s.logger.System().Info("Skip-waiting requested, activating current version")
	_, err := s.Activate(ctx)
	return err
}
