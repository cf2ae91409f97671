package services

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/manager"
	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/stores"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/origin"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// testLogger builds a quiet channeled logger for tests.
func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToConsole: true,
		DefaultLevel:    slog.LevelError + 4,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

// testCache builds a memory-backed cache manager.
func testCache(t *testing.T) (*manager.Manager, *stores.MemoryStore, *config.CacheConfig) {
	t.Helper()
	store := stores.NewMemoryStore()
	cfg := config.NewCacheConfig()
	return manager.NewManager(store, cfg, testLogger(t)), store, cfg
}

// testOrigin wraps an httptest server in an origin client.
func testOrigin(t *testing.T, server *httptest.Server) *origin.Client {
	t.Helper()
	client, err := origin.NewClient(server.URL, "/api/health", 2*time.Second)
	require.NoError(t, err)
	return client
}

// deadOrigin returns a client pointed at an address nothing listens on.
func deadOrigin(t *testing.T) *origin.Client {
	t.Helper()
	server := httptest.NewServer(nil)
	server.Close()
	client, err := origin.NewClient(server.URL, "/api/health", 500*time.Millisecond)
	require.NoError(t, err)
	return client
}
