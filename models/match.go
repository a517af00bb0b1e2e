package models

import "time"

// ContactInfo is out-of-band contact data exchanged inside a Match.
type ContactInfo struct {
	Kind     string    `dynamodbav:"kind" json:"kind"`
	Value    string    `dynamodbav:"value" json:"value"`
	SharedBy string    `dynamodbav:"sharedBy" json:"sharedBy"`
	SharedAt time.Time `dynamodbav:"sharedAt" json:"sharedAt"`
}

// Match is the conversation unit between two users. UserIDA < UserIDB always.
type Match struct {
	ID              string       `dynamodbav:"matchId" json:"matchId"`
	UserIDA         string       `dynamodbav:"userIdA" json:"userIdA"`
	UserIDB         string       `dynamodbav:"userIdB" json:"userIdB"`
	VenueID         string       `dynamodbav:"venueId" json:"venueId"`
	CreatedAt       time.Time    `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt       time.Time    `dynamodbav:"expiresAt" json:"expiresAt"`
	Status          MatchStatus  `dynamodbav:"status" json:"status"`
	ContactInfo     *ContactInfo `dynamodbav:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	ContactSharedAt *time.Time   `dynamodbav:"contactSharedAt,omitempty" json:"contactSharedAt,omitempty"`
	RematchedFromID string       `dynamodbav:"rematchedFromId,omitempty" json:"rematchedFromId,omitempty"`

	// Derived at read time, never stored
	IsExpired bool `dynamodbav:"-" json:"isExpired"`
}

// PairKey returns the canonical pair key of the match.
func (m *Match) PairKey() string { return PairKey(m.UserIDA, m.UserIDB) }

// HasParty reports whether userID is one of the two users.
func (m *Match) HasParty(userID string) bool {
	return userID != "" && (userID == m.UserIDA || userID == m.UserIDB)
}

// OtherParty returns the counterpart of userID, or "" when userID is not a party.
func (m *Match) OtherParty(userID string) string {
	switch userID {
	case m.UserIDA:
		return m.UserIDB
	case m.UserIDB:
		return m.UserIDA
	}
	return ""
}

// Expired compares now against ExpiresAt. Stored status is not consulted.
func (m *Match) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// EffectiveStatus is the status as a reader should see it at now.
func (m *Match) EffectiveStatus(now time.Time) MatchStatus {
	if m.Expired(now) {
		return MatchStatusExpired
	}
	return m.Status
}

// ContactShared reports whether contact info has been exchanged.
func (m *Match) ContactShared() bool {
	return m.Status == MatchStatusContactShared && m.ContactSharedAt != nil
}

// Annotate fills the derived fields for now.
func (m *Match) Annotate(now time.Time) *Match {
	m.IsExpired = m.Expired(now)
	return m
}

// UserMatchLink indexes a match under one of its users.
type UserMatchLink struct {
	UserID    string    `dynamodbav:"userId" json:"userId"`
	MatchID   string    `dynamodbav:"matchId" json:"matchId"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
}
