package push

import (
	"encoding/json"
	"strings"
)

// DefaultTitle and DefaultBody back notifications whose payloads carry no
// usable fields.
const (
	DefaultTitle = "GatherLoop"
	DefaultBody  = "Something new is happening!"
)

// Parse turns a raw push body into a canonical Payload using a three-tier
// fallback: JSON object parse, then JSON-encoded-string-of-JSON parse,
// then the raw text as the notification body. A notification is always
// producible; a malformed payload is never dropped.
func Parse(raw []byte) Payload {
	text := strings.TrimSpace(string(raw))

	var wire wirePayload
	if err := json.Unmarshal([]byte(text), &wire); err == nil {
		return withDefaults(wire.normalize())
	}

	var inner string
	if err := json.Unmarshal([]byte(text), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &wire); err == nil {
			return withDefaults(wire.normalize())
		}
		text = inner
	}

	payload := Payload{Body: text}
	return withDefaults(payload)
}

func withDefaults(p Payload) Payload {
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	if p.Body == "" {
		p.Body = DefaultBody
	}
	return p
}
