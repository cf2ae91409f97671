package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/infrastructure/caching/types"
	"github.com/GatherLoop/gathersync/internal/infrastructure/messaging"
	"github.com/GatherLoop/gathersync/pkg/config"
)

func TestInstallPrewarmsAssets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("asset:" + r.URL.Path))
	}))
	defer server.Close()

	cache, _, cfg := testCache(t)
	logger := testLogger(t)
	rules := config.DefaultRouteRules()
	rules.CriticalAssets = []string{"/offline.html", "/manifest.webmanifest"}
	rules.ShellAssets = []string{"/"}

	svc := NewLifecycleService(cache, testOrigin(t, server), cfg, rules, messaging.NewBroadcaster(logger), logger)
	require.Equal(t, StateInstalling, svc.State())

	require.NoError(t, svc.Install(context.Background()))
	require.Equal(t, StateInstalled, svc.State())

	for _, asset := range rules.CriticalAssets {
		entry, found := cache.Lookup(config.PartitionStatic, "GET "+asset)
		require.True(t, found, "critical asset %s should be pre-warmed", asset)
		require.Equal(t, []byte("asset:"+asset), entry.Body)
		require.NotEmpty(t, entry.Headers.Get(types.HeaderCachedAt))
	}

	_, found := cache.Lookup(config.PartitionShell, "GET /")
	require.True(t, found, "shell asset should be pre-warmed")
}

func TestInstallSurvivesOriginFailure(t *testing.T) {
	cache, _, cfg := testCache(t)
	logger := testLogger(t)
	rules := config.DefaultRouteRules()

	svc := NewLifecycleService(cache, deadOrigin(t), cfg, rules, messaging.NewBroadcaster(logger), logger)
	require.NoError(t, svc.Install(context.Background()), "pre-warm failures must not abort install")
	require.Equal(t, StateInstalled, svc.State())
}

func TestActivateDeletesStalePartitions(t *testing.T) {
	cache, store, cfg := testCache(t)
	logger := testLogger(t)

	entry := &types.CachedEntry{Status: http.StatusOK, Headers: make(http.Header), Body: []byte("x")}

	// One entry per current partition plus two stale-versioned leftovers.
	require.NoError(t, cache.Store(config.PartitionAPI, "k", entry))
	require.NoError(t, cache.Store(config.PartitionPages, "k", entry))
	stale := []string{
		fmt.Sprintf("gathersync-api-v%d", cfg.Version-1),
		fmt.Sprintf("gathersync-pages-v%d", cfg.Version-1),
	}
	for _, name := range stale {
		require.NoError(t, store.Put(name, "k", entry))
	}

	svc := NewLifecycleService(cache, deadOrigin(t), cfg, config.DefaultRouteRules(), messaging.NewBroadcaster(logger), logger)
	deleted, err := svc.Activate(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, stale, deleted)
	require.Equal(t, StateActive, svc.State())

	remaining, err := store.Partitions()
	require.NoError(t, err)
	for _, name := range remaining {
		_, ok := cfg.ClassOf(name)
		require.True(t, ok, "partition %s should be on the current allow-list", name)
	}

	_, found := cache.Lookup(config.PartitionAPI, "k")
	require.True(t, found, "current-version entries must survive activation")
}

func TestSkipWaitingActivates(t *testing.T) {
	cache, _, cfg := testCache(t)
	logger := testLogger(t)

	svc := NewLifecycleService(cache, deadOrigin(t), cfg, config.DefaultRouteRules(), messaging.NewBroadcaster(logger), logger)
	require.NoError(t, svc.SkipWaiting(context.Background()))
	require.Equal(t, StateActive, svc.State())
	require.Equal(t, fmt.Sprintf("v%d", cfg.Version), svc.Version())
}
