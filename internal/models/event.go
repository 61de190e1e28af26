package models

import (
	"encoding/json"
	"time"
)

// EventEnvelope is the unit the hub routes. Payload is opaque to the hub
// and the sync log; it is only decoded at the transport boundary.
type EventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type EventLogEntry struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Envelope re-wraps a log entry for the sync response.
func (e *EventLogEntry) Envelope() EventEnvelope {
	return EventEnvelope{
		Type:      e.EventType,
		Payload:   e.Payload,
		Timestamp: e.CreatedAt,
	}
}
