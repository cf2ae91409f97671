// Package database provides the core functionality for creating and
// managing the local SQLite connection in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/GatherLoop/gathersync/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewConnection establishes a new database connection.
func NewConnection(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// NewConnectionWithLogger establishes a new database connection with logging.
func NewConnectionWithLogger(dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "dataSource", dataSourceName)

	db, err := NewConnection(dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error())
		return nil, err
	}

	logger.Database().Info("Database connection established", "duration", time.Since(start))
	return db, nil
}

// Migrate creates the queue and sync-status tables if they do not exist.
func (db *DB) Migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS mutations (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			collection TEXT NOT NULL,
			record_id TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			retries INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			enqueued_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mutations_status ON mutations(status, id)`,
		`CREATE TABLE IF NOT EXISTS sync_status (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_full_sync DATETIME,
			in_progress INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		)`,
		`INSERT OR IGNORE INTO sync_status (id, in_progress, last_error) VALUES (1, 0, '')`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
