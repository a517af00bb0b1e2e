package models

import (
	"slices"
	"time"
)

// Message is one entry of a match thread
type Message struct {
	ID        string    `dynamodbav:"messageId" json:"messageId"`
	MatchID   string    `dynamodbav:"matchId" json:"matchId"`
	SenderID  string    `dynamodbav:"senderId" json:"senderId"`
	Text      string    `dynamodbav:"text" json:"text"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
	ReadBy    []string  `dynamodbav:"readBy" json:"readBy"` // kept sorted, no duplicates

	// Store version, filled on read so read receipts can compare-and-set.
	Version int64 `dynamodbav:"version" json:"-"`
}

// IsReadBy reports whether userID has read the message.
func (m *Message) IsReadBy(userID string) bool {
	return slices.Contains(m.ReadBy, userID)
}

// MarkReadBy adds userID to ReadBy. It returns false when nothing changed.
func (m *Message) MarkReadBy(userID string) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, userID)
	slices.Sort(m.ReadBy)
	return true
}

// QuotaSlot records that a sender used one message of their allowance.
type QuotaSlot struct {
	MatchID   string    `dynamodbav:"matchId" json:"matchId"`
	SenderID  string    `dynamodbav:"senderId" json:"senderId"`
	Slot      int       `dynamodbav:"slot" json:"slot"`
	MessageID string    `dynamodbav:"messageId" json:"messageId"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// SendDecision is the gate's verdict for one sender in one match.
type SendDecision struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}
