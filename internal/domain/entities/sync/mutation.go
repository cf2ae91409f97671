// Package sync defines the offline mutation queue and sync status entities.
package sync

import (
	"encoding/json"
	"time"
)

// Kind is the operation kind of a queued mutation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Valid reports whether the kind is one of the known operations.
func (k Kind) Valid() bool {
	switch k {
	case KindCreate, KindUpdate, KindDelete:
		return true
	}
	return false
}

// Status is the lifecycle state of a queued mutation. There is no
// "succeeded" state: successful replay removes the record.
type Status string

const (
	// StatusPending means the mutation awaits replay.
	StatusPending Status = "pending"
	// StatusFailed is terminal: the mutation exhausted its retries. It is
	// kept for inspection rather than silently dropped.
	StatusFailed Status = "failed"
)

// Mutation is one pending write operation destined for the origin API.
type Mutation struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Collection string          `json:"collection"`
	RecordID   string          `json:"recordId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Status     Status          `json:"status"`
	Retries    int             `json:"retries"`
	LastError  string          `json:"lastError,omitempty"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// ResourceKey identifies the logical resource a mutation targets. Replay
// never runs a mutation ahead of an earlier failed one for the same key.
func (m *Mutation) ResourceKey() string {
	return m.Collection + "/" + m.RecordID
}
