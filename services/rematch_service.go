package services

import (
	"context"
	"errors"
	"fmt"

	"venuematch_server/models"
	"venuematch_server/store"
)

// RematchService revives an expired Match once per pair by creating a new
// Match that points back at it.
type RematchService struct {
	Matches  *MatchService
	CheckIns *CheckInGate
	Clock    Clock
}

func NewRematchService(matches *MatchService, checkIns *CheckInGate, clock Clock) *RematchService {
	return &RematchService{Matches: matches, CheckIns: checkIns, Clock: clock}
}

// CanRematch reports whether the pair has an expired latest Match and has
// not rematched before.
func (s *RematchService) CanRematch(ctx context.Context, pairKey string) (bool, error) {
	a, b, ok := models.SplitPairKey(pairKey)
	if !ok || a == b || models.PairKey(a, b) != pairKey {
		return false, fmt.Errorf("invalid pair key %q: %w", pairKey, ErrValidationFailed)
	}
	pair, err := s.Matches.loadPair(ctx, pairKey)
	if err != nil {
		return false, err
	}
	state := pair.State
	return state.CurrentMatchID != "" && !state.RematchUsed() && !state.HasLiveMatch(s.Clock.Now()), nil
}

// Rematch creates the successor of an expired Match. Both users must be
// checked in at the same venue, which becomes the new Match's venue.
func (s *RematchService) Rematch(ctx context.Context, matchID, userID string) (*models.Match, error) {
	source, err := s.Matches.getForParty(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if source.RematchedFromID != "" {
		return nil, fmt.Errorf("match %s is already a rematch: %w", matchID, ErrAlreadyRematched)
	}
	pairKey := source.PairKey()
	venueID := ""

	for attempt := 0; attempt < maxAttempts; attempt++ {
		pair, err := s.Matches.loadPair(ctx, pairKey)
		if err != nil {
			return nil, err
		}
		// Only the pair's first Match can be rematched, so a newer current
		// Match means the rematch was spent.
		if pair.State.RematchUsed() || pair.State.CurrentMatchID != source.ID {
			return nil, fmt.Errorf("pair %s: %w", pairKey, ErrAlreadyRematched)
		}
		now := s.Clock.Now()
		if !source.Expired(now) || pair.State.HasLiveMatch(now) {
			return nil, fmt.Errorf("match %s expires at %s: %w", matchID, source.ExpiresAt, ErrNotExpired)
		}

		if venueID == "" {
			if venueID, err = s.sharedVenue(ctx, userID, source.OtherParty(userID)); err != nil {
				return nil, err
			}
		}

		match := s.Matches.newMatch(pair, venueID)
		err = s.Matches.commitMatch(ctx, pair, match)
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to rematch %s: %w", matchID, err)
		}
		return match.Annotate(now), nil
	}
	return nil, fmt.Errorf("rematch %s: %w", matchID, ErrConflict)
}

// sharedVenue returns the requester's venue once the other user is confirmed there too.
func (s *RematchService) sharedVenue(ctx context.Context, requester, other string) (string, error) {
	checkIn, err := s.CheckIns.Current(ctx, requester)
	if err != nil {
		return "", err
	}
	if checkIn == nil {
		return "", fmt.Errorf("user %s: %w", requester, ErrNotCheckedIn)
	}
	if err := s.CheckIns.RequireAt(ctx, checkIn.VenueID, other); err != nil {
		return "", err
	}
	return checkIn.VenueID, nil
}
