package models

import "time"

// CheckIn is a user's current venue presence as reported by the check-in provider.
type CheckIn struct {
	UserID  string    `json:"userId"`
	VenueID string    `json:"venueId"`
	Since   time.Time `json:"since"`

	// ExpiresAt is zero when the check-in never lapses on its own.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Lapsed reports whether the check-in no longer counts at now.
func (c *CheckIn) Lapsed(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
