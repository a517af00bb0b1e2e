package models

import "time"

// EventType names what happened. Values are part of the push channel contract.
type EventType string

const (
	EventMatchFormed     EventType = "match_formed"
	EventMessageReceived EventType = "message_received"
	EventQuotaExhausted  EventType = "quota_exhausted"
	EventTypingChanged   EventType = "typing_changed"
)

// Event is one push notification addressed to a single user.
type Event struct {
	Type       EventType      `json:"type"`
	UserID     string         `json:"userId"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurredAt"`
}
