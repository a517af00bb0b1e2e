package models

import "time"

// TypingState is an ephemeral "is typing" marker, cleared after its TTL.
type TypingState struct {
	MatchID   string    `json:"matchId"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
