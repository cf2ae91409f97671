// Package queue provides the durable offline mutation queue repository.
package queue

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
	"github.com/oklog/ulid/v2"
)

// Repository persists queued mutations in SQLite. ULID ids are
// lexically time-ordered, so `ORDER BY id` is enqueue order.
type Repository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewRepository creates a queue repository over an open database.
func NewRepository(db *database.DB, logger *logging.ChanneledLogger) *Repository {
	return &Repository{db: db, logger: logger}
}

// Enqueue persists a new pending mutation and returns it with its
// assigned id. It never touches the network.
func (r *Repository) Enqueue(kind sync.Kind, collection, recordID string, payload []byte) (*sync.Mutation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown mutation kind %q", kind)
	}

	m := &sync.Mutation{
		ID:         ulid.Make().String(),
		Kind:       kind,
		Collection: collection,
		RecordID:   recordID,
		Payload:    payload,
		Status:     sync.StatusPending,
		EnqueuedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO mutations (id, kind, collection, record_id, payload, status, retries, last_error, enqueued_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, '', ?)`,
		m.ID, string(m.Kind), m.Collection, m.RecordID, string(m.Payload), string(m.Status), m.EnqueuedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue mutation: %w", err)
	}

	if r.logger != nil {
		r.logger.Queue().Info("Mutation enqueued",
			"id", m.ID, "kind", string(m.Kind), "collection", m.Collection, "recordId", m.RecordID)
	}
	return m, nil
}

// Pending returns all pending mutations in enqueue order.
func (r *Repository) Pending() ([]*sync.Mutation, error) {
	return r.byStatus(sync.StatusPending)
}

// Failed returns all terminally failed mutations in enqueue order.
func (r *Repository) Failed() ([]*sync.Mutation, error) {
	return r.byStatus(sync.StatusFailed)
}

func (r *Repository) byStatus(status sync.Status) ([]*sync.Mutation, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, collection, record_id, payload, status, retries, last_error, enqueued_at
		 FROM mutations WHERE status = ? ORDER BY id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s mutations: %w", status, err)
	}
	defer rows.Close()

	var mutations []*sync.Mutation
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}
	return mutations, rows.Err()
}

func scanMutation(rows *sql.Rows) (*sync.Mutation, error) {
	var m sync.Mutation
	var kind, status, payload string
	if err := rows.Scan(&m.ID, &kind, &m.Collection, &m.RecordID, &payload, &status, &m.Retries, &m.LastError, &m.EnqueuedAt); err != nil {
		return nil, fmt.Errorf("failed to scan mutation: %w", err)
	}
	m.Kind = sync.Kind(kind)
	m.Status = sync.Status(status)
	if payload != "" {
		m.Payload = []byte(payload)
	}
	return &m, nil
}

// Remove deletes a mutation after successful replay.
func (r *Repository) Remove(id string) error {
	_, err := r.db.Exec(`DELETE FROM mutations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove mutation %s: %w", id, err)
	}
	return nil
}

// RecordFailure increments the retry count and stores the error. The
// record stays pending, at its original position, until maxRetries is
// reached; then it moves to the terminal failed state.
func (r *Repository) RecordFailure(id string, replayErr error, maxRetries int) (sync.Status, error) {
	message := ""
	if replayErr != nil {
		message = replayErr.Error()
	}

	_, err := r.db.Exec(
		`UPDATE mutations SET retries = retries + 1, last_error = ? WHERE id = ?`, message, id)
	if err != nil {
		return "", fmt.Errorf("failed to record mutation failure: %w", err)
	}

	var retries int
	if err := r.db.QueryRow(`SELECT retries FROM mutations WHERE id = ?`, id).Scan(&retries); err != nil {
		return "", fmt.Errorf("failed to read mutation retries: %w", err)
	}

	if retries >= maxRetries {
		if _, err := r.db.Exec(
			`UPDATE mutations SET status = ? WHERE id = ?`, string(sync.StatusFailed), id); err != nil {
			return "", fmt.Errorf("failed to mark mutation failed: %w", err)
		}
		if r.logger != nil {
			r.logger.Queue().Warn("Mutation moved to terminal failed state",
				"id", id, "retries", retries, "error", message)
		}
		return sync.StatusFailed, nil
	}
	return sync.StatusPending, nil
}

// Counts returns the number of pending and failed mutations.
func (r *Repository) Counts() (pending, failed int, err error) {
	err = r.db.QueryRow(
		`SELECT
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
		 FROM mutations`).Scan(&pending, &failed)
	if err != nil {
		err = fmt.Errorf("failed to count mutations: %w", err)
	}
	return pending, failed, err
}
