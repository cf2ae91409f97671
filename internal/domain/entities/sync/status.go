package sync

import "time"

// SyncStatus is the singleton staleness record the UI reads.
type SyncStatus struct {
	LastFullSync time.Time `json:"lastFullSync"`
	InProgress   bool      `json:"inProgress"`
	LastError    string    `json:"lastError,omitempty"`
}
