// Package status persists the singleton sync status record.
package status

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/GatherLoop/gathersync/internal/domain/entities/sync"
	"github.com/GatherLoop/gathersync/internal/infrastructure/persistence/database"
)

// Repository reads and writes the single sync_status row.
type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the current sync status record.
func (r *Repository) Get() (*sync.SyncStatus, error) {
	var status sync.SyncStatus
	var lastFullSync sql.NullTime
	var inProgress int

	err := r.db.QueryRow(
		`SELECT last_full_sync, in_progress, last_error FROM sync_status WHERE id = 1`).
		Scan(&lastFullSync, &inProgress, &status.LastError)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync status: %w", err)
	}

	if lastFullSync.Valid {
		status.LastFullSync = lastFullSync.Time
	}
	status.InProgress = inProgress != 0
	return &status, nil
}

// SetInProgress flips the in-progress flag.
func (r *Repository) SetInProgress(inProgress bool) error {
	flag := 0
	if inProgress {
		flag = 1
	}
	_, err := r.db.Exec(`UPDATE sync_status SET in_progress = ? WHERE id = 1`, flag)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// RecordSuccess stores a completed full sync.
func (r *Repository) RecordSuccess(at time.Time) error {
	_, err := r.db.Exec(
		`UPDATE sync_status SET last_full_sync = ?, in_progress = 0, last_error = '' WHERE id = 1`, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record sync success: %w", err)
	}
	return nil
}

// RecordError stores the last sync error and clears the in-progress flag.
func (r *Repository) RecordError(syncErr error) error {
	message := ""
	if syncErr != nil {
		message = syncErr.Error()
	}
	_, err := r.db.Exec(
		`UPDATE sync_status SET in_progress = 0, last_error = ? WHERE id = 1`, message)
	if err != nil {
		return fmt.Errorf("failed to record sync error: %w", err)
	}
	return nil
}
