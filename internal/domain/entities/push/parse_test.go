package push

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJSONObject(t *testing.T) {
	payload := Parse([]byte(`{"title":"New Event","body":"Jazz night","eventId":"e42","url":"/events/e42"}`))

	require.Equal(t, "New Event", payload.Title)
	require.Equal(t, "Jazz night", payload.Body)
	require.Equal(t, "e42", payload.EventID)
	require.Equal(t, "/events/e42", payload.URL)
}

func TestParseNestedDataNormalized(t *testing.T) {
	// eventId and url may arrive nested under data; top-level wins when both
	// are present.
	payload := Parse([]byte(`{"title":"T","body":"B","data":{"eventId":"nested","url":"/n"}}`))
	require.Equal(t, "nested", payload.EventID)
	require.Equal(t, "/n", payload.URL)

	payload = Parse([]byte(`{"title":"T","body":"B","eventId":"top","data":{"eventId":"nested"}}`))
	require.Equal(t, "top", payload.EventID)
}

func TestParseJSONEncodedString(t *testing.T) {
	// Some push paths double-encode: a JSON string whose content is JSON.
	payload := Parse([]byte(`"{\"title\":\"Wrapped\",\"body\":\"inner\"}"`))
	require.Equal(t, "Wrapped", payload.Title)
	require.Equal(t, "inner", payload.Body)
}

func TestParsePlainText(t *testing.T) {
	payload := Parse([]byte("New event!"))
	require.Equal(t, DefaultTitle, payload.Title)
	require.Equal(t, "New event!", payload.Body)
}

func TestParseJSONStringOfPlainText(t *testing.T) {
	payload := Parse([]byte(`"just words"`))
	require.Equal(t, DefaultTitle, payload.Title)
	require.Equal(t, "just words", payload.Body)
}

func TestParseEmptyAndGarbage(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("   "), []byte("{broken")} {
		payload := Parse(raw)
		require.Equal(t, DefaultTitle, payload.Title, "raw=%q", raw)
		require.NotEmpty(t, payload.Body, "raw=%q", raw)
	}
}

func TestParseFillsDefaultsForEmptyFields(t *testing.T) {
	payload := Parse([]byte(`{"eventId":"e1"}`))
	require.Equal(t, DefaultTitle, payload.Title)
	require.Equal(t, DefaultBody, payload.Body)
	require.Equal(t, "e1", payload.EventID)
}
