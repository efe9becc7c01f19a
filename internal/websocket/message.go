package websocket

import (
	"encoding/json"
	"time"
)

// Message is the envelope for everything sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ToJSON serializes the message, stamping the timestamp if unset.
func (m Message) ToJSON() []byte {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"type":"error","data":"failed to encode message"}`)
	}
	return data
}
