package models

import "time"

// PairState is the per-pair pointer at the latest Match plus the rematch ledger.
// Every change to it is a compare-and-set on its version.
type PairState struct {
	PairKey          string    `dynamodbav:"pairKey" json:"pairKey"`
	CurrentMatchID   string    `dynamodbav:"currentMatchId,omitempty" json:"currentMatchId,omitempty"`
	CurrentExpiresAt time.Time `dynamodbav:"currentExpiresAt" json:"currentExpiresAt"`
	MatchCount       int       `dynamodbav:"matchCount" json:"matchCount"`
	RematchedMatchID string    `dynamodbav:"rematchedMatchId,omitempty" json:"rematchedMatchId,omitempty"` // the Match a rematch was spent on
	RematchedAt      time.Time `dynamodbav:"rematchedAt,omitempty" json:"rematchedAt,omitempty"`
	UpdatedAt        time.Time `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HasLiveMatch reports whether the pair's latest match is still within its window.
func (p *PairState) HasLiveMatch(now time.Time) bool {
	return p != nil && p.CurrentMatchID != "" && !now.After(p.CurrentExpiresAt)
}

// RematchUsed reports whether the one-shot rematch has been spent.
func (p *PairState) RematchUsed() bool {
	return p != nil && p.RematchedMatchID != ""
}
