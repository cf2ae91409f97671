package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidCoversExactlyTheControlSet(t *testing.T) {
	for _, typ := range All() {
		require.True(t, typ.Valid(), "%s should be valid", typ)
	}

	for _, typ := range []Type{"", "UNKNOWN", "skip_waiting", TypeNotification, TypeSyncStatus} {
		require.False(t, typ.Valid(), "%s should be rejected", typ)
	}
}

func TestEnvelopeDecoding(t *testing.T) {
	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"type":"TRIGGER_CACHE_UPDATE","payload":{"isPWA":true}}`), &envelope))
	require.Equal(t, TypeTriggerCacheUpdate, envelope.Type)

	payload, err := envelope.DecodeTriggerCacheUpdate()
	require.NoError(t, err)
	require.True(t, payload.IsPWA)
}

func TestDecodeTriggerCacheUpdateDefaults(t *testing.T) {
	// No payload means full browser-mode refresh.
	envelope := Envelope{Type: TypeTriggerCacheUpdate}
	payload, err := envelope.DecodeTriggerCacheUpdate()
	require.NoError(t, err)
	require.False(t, payload.IsPWA)
}

func TestDecodeTriggerCacheUpdateRejectsGarbage(t *testing.T) {
	envelope := Envelope{Type: TypeTriggerCacheUpdate, Payload: json.RawMessage(`"not an object"`)}
	_, err := envelope.DecodeTriggerCacheUpdate()
	require.Error(t, err)
}

func TestClientEventSerialization(t *testing.T) {
	event := ClientEvent{Type: TypeVersionActivated, Payload: map[string]string{"version": "v3"}}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"VERSION_ACTIVATED","payload":{"version":"v3"}}`, string(data))
}
