package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/status"
	"github.com/GatherLoop/gathersync/pkg/config"
)

func newStatusRepo(t *testing.T) *status.Repository {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return status.NewRepository(db)
}

func refreshOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/events/recent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"id":"e1"},{"id":"e2"}]}`))
	})
	mux.HandleFunc("/api/users/recent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"u1"}]`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRefreshAllFullModeWarmsDetailEndpoints(t *testing.T) {
	server := refreshOrigin(t)
	cache, _, _ := testCache(t)
	statusRepo := newStatusRepo(t)

	svc := NewRefreshService(cache, testOrigin(t, server), NewClassifierService(config.DefaultRouteRules()), statusRepo, testLogger(t))
	require.NoError(t, svc.RefreshAll(context.Background(), false))

	// Listings land in the api partition, detail warms in dynamic.
	_, found := cache.Lookup(config.PartitionAPI, "GET /api/events")
	require.True(t, found)
	for _, key := range []string{"GET /api/events/e1", "GET /api/events/e2", "GET /api/users/u1"} {
		_, found := cache.Lookup(config.PartitionDynamic, key)
		require.True(t, found, "detail endpoint %s should be warmed", key)
	}

	snapshot, err := statusRepo.Get()
	require.NoError(t, err)
	require.False(t, snapshot.InProgress)
	require.False(t, snapshot.LastFullSync.IsZero())
	require.Empty(t, snapshot.LastError)
}

func TestRefreshAllLiteModeSkipsDetailWalk(t *testing.T) {
	server := refreshOrigin(t)
	cache, _, _ := testCache(t)

	svc := NewRefreshService(cache, testOrigin(t, server), NewClassifierService(config.DefaultRouteRules()), newStatusRepo(t), testLogger(t))
	require.NoError(t, svc.RefreshAll(context.Background(), true))

	require.Empty(t, cache.Keys(config.PartitionDynamic), "lite mode never walks details")
	require.Len(t, cache.Keys(config.PartitionAPI), 2)
}

func TestRefreshAllUsesConfiguredEndpoints(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/venues/recent" {
			w.Write([]byte(`[{"id":"v1"}]`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	cache, _, _ := testCache(t)
	rules := config.DefaultRouteRules()
	rules.ImportantEndpoints = []string{"/api/venues/recent", "/api/tags"}

	svc := NewRefreshService(cache, testOrigin(t, server), NewClassifierService(rules), newStatusRepo(t), testLogger(t))
	require.NoError(t, svc.RefreshAll(context.Background(), false))

	require.Contains(t, paths, "/api/venues/recent")
	require.Contains(t, paths, "/api/tags")
	require.NotContains(t, paths, "/api/events", "overridden endpoint set fully replaces the defaults")

	_, found := cache.Lookup(config.PartitionAPI, "GET /api/tags")
	require.True(t, found)
	_, found = cache.Lookup(config.PartitionDynamic, "GET /api/venues/v1")
	require.True(t, found, "recent listings still get their detail walk")
}

func TestRefreshAllRecordsFirstError(t *testing.T) {
	cache, _, _ := testCache(t)
	statusRepo := newStatusRepo(t)

	svc := NewRefreshService(cache, deadOrigin(t), NewClassifierService(config.DefaultRouteRules()), statusRepo, testLogger(t))
	require.Error(t, svc.RefreshAll(context.Background(), true))

	snapshot, err := statusRepo.Get()
	require.NoError(t, err)
	require.NotEmpty(t, snapshot.LastError)
	require.True(t, snapshot.LastFullSync.IsZero(), "a failed refresh is not a full sync")
}

func TestRefreshPagesSkipsFreshCopies(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("<html>page</html>"))
	}))
	defer server.Close()

	cache, _, _ := testCache(t)
	classifier := NewClassifierService(config.DefaultRouteRules())
	svc := NewRefreshService(cache, testOrigin(t, server), classifier, newStatusRepo(t), testLogger(t))

	svc.RefreshPages(context.Background())
	require.Equal(t, len(classifier.OfflinePages()), hits)
	require.Len(t, cache.Keys(config.PartitionPages), len(classifier.OfflinePages()))

	// Everything is fresh now; an immediate second pass fetches nothing.
	svc.RefreshPages(context.Background())
	require.Equal(t, len(classifier.OfflinePages()), hits)
}
