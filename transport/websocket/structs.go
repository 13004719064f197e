package websocket

import "encoding/json"

// Message is the wire envelope for both directions: an event name and an
// optional payload.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
