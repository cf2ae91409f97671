// Package push defines push payload and notification entities.
package push

// Payload is the canonical, normalized push payload. The wire shape is
// duck-typed (eventId and url may arrive at top level or nested under
// data); normalization happens once at the parse boundary and the rest of
// the notification logic only ever sees this struct.
type Payload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	EventID    string `json:"eventId,omitempty"`
	URL        string `json:"url,omitempty"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// wirePayload is the raw JSON shape accepted from the push origin.
type wirePayload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	EventID    string `json:"eventId"`
	URL        string `json:"url"`
	PrimaryKey string `json:"primaryKey"`
	Data       struct {
		EventID string `json:"eventId"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (w *wirePayload) normalize() Payload {
	p := Payload{
		Title:      w.Title,
		Body:       w.Body,
		EventID:    w.EventID,
		URL:        w.URL,
		PrimaryKey: w.PrimaryKey,
	}
	if p.EventID == "" {
		p.EventID = w.Data.EventID
	}
	if p.URL == "" {
		p.URL = w.Data.URL
	}
	return p
}

// Action is one of the two actions attached to every notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is the rendered platform notification.
type Notification struct {
	Title              string   `json:"title"`
	Body               string   `json:"body"`
	Icon               string   `json:"icon,omitempty"`
	Badge              string   `json:"badge,omitempty"`
	Tag                string   `json:"tag"`
	RequireInteraction bool     `json:"requireInteraction"`
	Actions            []Action `json:"actions"`
	EventID            string   `json:"eventId,omitempty"`
	URL                string   `json:"url,omitempty"`
	PrimaryKey         string   `json:"primaryKey,omitempty"`
}
