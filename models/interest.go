package models

import "time"

// Interest is a one-way like from one user to another at a venue.
type Interest struct {
	ID         string    `dynamodbav:"id" json:"id"`
	FromUserID string    `dynamodbav:"fromUserId" json:"fromUserId"`
	ToUserID   string    `dynamodbav:"toUserId" json:"toUserId"`
	VenueID    string    `dynamodbav:"venueId" json:"venueId"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt  time.Time `dynamodbav:"expiresAt" json:"expiresAt"`
	Active     bool      `dynamodbav:"active" json:"active"`
	MatchID    string    `dynamodbav:"matchId,omitempty" json:"matchId,omitempty"` // set when consumed into a Match
}

// IsLive reports whether the interest still counts toward a mutual pair.
func (i *Interest) IsLive(now time.Time) bool {
	return i != nil && i.Active && now.Before(i.ExpiresAt)
}

// InterestResult is what RecordInterest hands back to the caller
type InterestResult struct {
	Status  InterestStatus `json:"status"`
	MatchID string         `json:"matchId,omitempty"`
}
