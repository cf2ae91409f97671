package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	syncentities "github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/queue"
)

func newTestQueue(t *testing.T) *queue.Repository {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return queue.NewRepository(db, testLogger(t))
}

func TestReplayDrainsQueueInOrder(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newTestQueue(t)
	_, err := repo.Enqueue(syncentities.KindCreate, "events", "", []byte(`{"title":"a"}`))
	require.NoError(t, err)
	_, err = repo.Enqueue(syncentities.KindUpdate, "events", "e1", []byte(`{"title":"b"}`))
	require.NoError(t, err)
	_, err = repo.Enqueue(syncentities.KindDelete, "events", "e2", nil)
	require.NoError(t, err)

	svc := NewReplayService(repo, testOrigin(t, server), 5, testLogger(t))
	result, err := svc.Replay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.Replayed)
	require.Zero(t, result.Deferred)
	require.Zero(t, result.Failed)

	require.Equal(t, []string{
		"POST /api/events",
		"PUT /api/events/e1",
		"DELETE /api/events/e2",
	}, paths)

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestFailedMutationBlocksSameResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every write to events/e1 is rejected; everything else succeeds.
		if r.URL.Path == "/api/events/e1" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := newTestQueue(t)
	first, err := repo.Enqueue(syncentities.KindUpdate, "events", "e1", []byte(`{"v":1}`))
	require.NoError(t, err)
	_, err = repo.Enqueue(syncentities.KindUpdate, "events", "e1", []byte(`{"v":2}`))
	require.NoError(t, err)
	_, err = repo.Enqueue(syncentities.KindUpdate, "users", "u1", []byte(`{"v":3}`))
	require.NoError(t, err)

	svc := NewReplayService(repo, testOrigin(t, server), 5, testLogger(t))
	result, err := svc.Replay(context.Background())
	require.NoError(t, err)

	// The unrelated users write replays; both events/e1 writes stay queued,
	// the second deferred behind the first without burning a retry.
	require.Equal(t, 1, result.Replayed)
	require.Equal(t, 1, result.Deferred)
	require.Zero(t, result.Failed)

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID, "the failed mutation keeps its position")
	require.Equal(t, 1, pending[0].Retries)
	require.Zero(t, pending[1].Retries)
}

func TestReplayMovesExhaustedMutationToFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := newTestQueue(t)
	_, err := repo.Enqueue(syncentities.KindDelete, "events", "e1", nil)
	require.NoError(t, err)

	svc := NewReplayService(repo, testOrigin(t, server), 1, testLogger(t))
	result, err := svc.Replay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Empty(t, pending)

	failed, err := repo.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, syncentities.StatusFailed, failed[0].Status)
	require.Contains(t, failed[0].LastError, "500")
}

func TestReplayEmptyQueue(t *testing.T) {
	repo := newTestQueue(t)
	svc := NewReplayService(repo, deadOrigin(t), 5, testLogger(t))

	result, err := svc.Replay(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Replayed+result.Deferred+result.Failed)
}
