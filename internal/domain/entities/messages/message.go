// Package messages defines the closed client-to-worker message protocol.
package messages

import (
	"encoding/json"
	"fmt"
)

// Type enumerates every message the control plane accepts. The dispatcher
// switches exhaustively over these; an unknown type is a protocol error,
// not a silent no-op.
type Type string

const (
	TypeSkipWaiting        Type = "SKIP_WAITING"
	TypeGetVersion         Type = "GET_VERSION"
	TypeTriggerCacheUpdate Type = "TRIGGER_CACHE_UPDATE"
	TypeClearCache         Type = "CLEAR_CACHE"
	TypeCacheMaintenance   Type = "CACHE_MAINTENANCE"
)

// All returns every known message type.
func All() []Type {
	return []Type{
		TypeSkipWaiting, TypeGetVersion, TypeTriggerCacheUpdate,
		TypeClearCache, TypeCacheMaintenance,
	}
}

// Valid reports whether t is a known message type.
func (t Type) Valid() bool {
	switch t {
	case TypeSkipWaiting, TypeGetVersion, TypeTriggerCacheUpdate,
		TypeClearCache, TypeCacheMaintenance:
		return true
	}
	return false
}

// Envelope is the wire shape of a control message.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TriggerCacheUpdatePayload selects the refresh mode.
type TriggerCacheUpdatePayload struct {
	IsPWA bool `json:"isPWA"`
}

// DecodeTriggerCacheUpdate parses the TRIGGER_CACHE_UPDATE payload. An
// absent payload defaults to full browser mode.
func (e *Envelope) DecodeTriggerCacheUpdate() (TriggerCacheUpdatePayload, error) {
	var payload TriggerCacheUpdatePayload
	if len(e.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return payload, fmt.Errorf("invalid %s payload: %w", TypeTriggerCacheUpdate, err)
	}
	return payload, nil
}

// Worker-to-client message types delivered over the websocket channel.
const (
	TypeNotification      Type = "NOTIFICATION"
	TypeNotificationClick Type = "NOTIFICATION_CLICK"
	TypeVersionActivated  Type = "VERSION_ACTIVATED"
	TypeUpdateWaiting     Type = "UPDATE_WAITING"
	TypeSyncStatus        Type = "SYNC_STATUS"
)

// ClientEvent is a message pushed to connected clients.
type ClientEvent struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload,omitempty"`
}
