package queue

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewConnection(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return NewRepository(db, nil)
}

func TestEnqueuePreservesOrder(t *testing.T) {
	repo := newTestRepo(t)

	a, err := repo.Enqueue(sync.KindCreate, "events", "", []byte(`{"n":1}`))
	require.NoError(t, err)
	b, err := repo.Enqueue(sync.KindUpdate, "events", "e1", []byte(`{"n":2}`))
	require.NoError(t, err)
	c, err := repo.Enqueue(sync.KindDelete, "users", "u1", nil)
	require.NoError(t, err)

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	require.Equal(t, []string{a.ID, b.ID, c.ID},
		[]string{pending[0].ID, pending[1].ID, pending[2].ID})

	require.Equal(t, sync.KindUpdate, pending[1].Kind)
	require.Equal(t, "events", pending[1].Collection)
	require.Equal(t, "e1", pending[1].RecordID)
	require.JSONEq(t, `{"n":2}`, string(pending[1].Payload))
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Enqueue(sync.Kind("upsert"), "events", "e1", nil)
	require.Error(t, err)
}

func TestRecordFailureKeepsPendingUntilMaxRetries(t *testing.T) {
	repo := newTestRepo(t)
	m, err := repo.Enqueue(sync.KindUpdate, "events", "e1", nil)
	require.NoError(t, err)

	replayErr := errors.New("origin rejected mutation with status 409")

	status, err := repo.RecordFailure(m.ID, replayErr, 3)
	require.NoError(t, err)
	require.Equal(t, sync.StatusPending, status)

	status, err = repo.RecordFailure(m.ID, replayErr, 3)
	require.NoError(t, err)
	require.Equal(t, sync.StatusPending, status)

	status, err = repo.RecordFailure(m.ID, replayErr, 3)
	require.NoError(t, err)
	require.Equal(t, sync.StatusFailed, status)

	failed, err := repo.Failed()
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, 3, failed[0].Retries)
	require.Equal(t, replayErr.Error(), failed[0].LastError)

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestRemove(t *testing.T) {
	repo := newTestRepo(t)
	m, err := repo.Enqueue(sync.KindCreate, "events", "", []byte(`{}`))
	require.NoError(t, err)

	require.NoError(t, repo.Remove(m.ID))

	pending, err := repo.Pending()
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestCounts(t *testing.T) {
	repo := newTestRepo(t)

	pending, failed, err := repo.Counts()
	require.NoError(t, err)
	require.Zero(t, pending)
	require.Zero(t, failed)

	m, err := repo.Enqueue(sync.KindCreate, "events", "", nil)
	require.NoError(t, err)
	_, err = repo.Enqueue(sync.KindCreate, "users", "", nil)
	require.NoError(t, err)

	_, err = repo.RecordFailure(m.ID, errors.New("boom"), 1)
	require.NoError(t, err)

	pending, failed, err = repo.Counts()
	require.NoError(t, err)
	require.Equal(t, 1, pending)
	require.Equal(t, 1, failed)
}
