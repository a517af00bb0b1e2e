package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"venuematch_server/models"
	"venuematch_server/store"

	"github.com/google/uuid"
)

// InteractionService is the interest ledger: one-way likes and the
// mutual-interest check that turns them into a Match.
type InteractionService struct {
	Store       store.Store
	Matches     *MatchService
	CheckIns    *CheckInGate
	Clock       Clock
	InterestTTL time.Duration
}

func NewInteractionService(s store.Store, matches *MatchService, checkIns *CheckInGate, clock Clock, ttl time.Duration) *InteractionService {
	return &InteractionService{Store: s, Matches: matches, CheckIns: checkIns, Clock: clock, InterestTTL: ttl}
}

// interestSnapshot is an Interest slot as read. Interest is nil when the slot is empty.
type interestSnapshot struct {
	Key      store.Key
	Interest *models.Interest
	Version  int64
}

func interestKey(from, to, venueID string) store.Key {
	return store.Key{PK: models.InterestPK(from), SK: models.InterestSK(to, venueID)}
}

func readInterest(ctx context.Context, s store.Store, from, to, venueID string) (*interestSnapshot, error) {
	snap := &interestSnapshot{Key: interestKey(from, to, venueID)}
	var interest models.Interest
	version, err := s.Get(ctx, snap.Key, &interest)
	if errors.Is(err, store.ErrNotFound) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read interest %s: %w", snap.Key, err)
	}
	snap.Interest = &interest
	snap.Version = version
	return snap, nil
}

// consume deactivates the interest into matchID, guarded by the version read.
func (i *interestSnapshot) consume(matchID string) store.Write {
	interest := *i.Interest
	interest.Active = false
	interest.MatchID = matchID
	return store.PutIfVersion(i.Key, interest, i.Version)
}

// RecordInterest stores a like from one user to another at a venue. When the
// reciprocal like is live both are consumed into a single Match.
func (s *InteractionService) RecordInterest(ctx context.Context, from, to, venueID string) (*models.InterestResult, error) {
	if err := validatePair(from, to, venueID); err != nil {
		return nil, err
	}
	if err := s.CheckIns.RequireAt(ctx, venueID, from, to); err != nil {
		return nil, err
	}
	pairKey := models.PairKey(from, to)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		// Every interest write also bumps the pair version, so the reads
		// below are valid for exactly as long as the pair is unchanged.
		pair, err := s.Matches.loadPair(ctx, pairKey)
		if err != nil {
			return nil, err
		}
		now := s.Clock.Now()
		if pair.State.HasLiveMatch(now) {
			return &models.InterestResult{Status: models.InterestStatusMatched, MatchID: pair.State.CurrentMatchID}, nil
		}
		if err := successorCheck(pair); err != nil {
			return nil, err
		}

		own, err := readInterest(ctx, s.Store, from, to, venueID)
		if err != nil {
			return nil, err
		}
		reciprocal, err := readInterest(ctx, s.Store, to, from, venueID)
		if err != nil {
			return nil, err
		}

		if reciprocal.Interest.IsLive(now) {
			match := s.Matches.newMatch(pair, venueID)
			if !own.Interest.IsLive(now) {
				own.Interest = s.newInterest(from, to, venueID, now)
			}
			err = s.Matches.commitMatch(ctx, pair, match, own.consume(match.ID), reciprocal.consume(match.ID))
			if errors.Is(err, store.ErrConditionFailed) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to form match for %s: %w", pairKey, err)
			}
			return &models.InterestResult{Status: models.InterestStatusMatched, MatchID: match.ID}, nil
		}

		if own.Interest.IsLive(now) {
			return &models.InterestResult{Status: models.InterestStatusPending}, nil
		}

		interest := s.newInterest(from, to, venueID, now)
		err = s.Store.Write(ctx, pair.touch(now), store.PutIfVersion(own.Key, interest, own.Version))
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to record interest %s: %w", own.Key, err)
		}
		log.Printf("💘 %s likes %s at %s", from, to, venueID)
		return &models.InterestResult{Status: models.InterestStatusPending}, nil
	}
	return nil, fmt.Errorf("record interest for %s: %w", pairKey, ErrConflict)
}

func (s *InteractionService) newInterest(from, to, venueID string, now time.Time) *models.Interest {
	return &models.Interest{
		ID:         uuid.New().String(),
		FromUserID: from,
		ToUserID:   to,
		VenueID:    venueID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.InterestTTL),
		Active:     true,
	}
}

// HasMutualInterest reports whether both users hold a live interest in each
// other at the same venue.
func (s *InteractionService) HasMutualInterest(ctx context.Context, userA, userB string) (bool, error) {
	if err := validateUserID(userA); err != nil {
		return false, err
	}
	if err := validateUserID(userB); err != nil {
		return false, err
	}
	if userA == userB {
		return false, nil
	}

	now := s.Clock.Now()
	liveVenues := func(from, to string) (map[string]bool, error) {
		var interests []models.Interest
		if err := s.Store.Query(ctx, models.InterestPK(from), models.InterestSKPrefix(to), &interests); err != nil {
			return nil, fmt.Errorf("failed to list interests from %s: %w", from, err)
		}
		venues := make(map[string]bool)
		for i := range interests {
			if interests[i].IsLive(now) {
				venues[interests[i].VenueID] = true
			}
		}
		return venues, nil
	}

	ab, err := liveVenues(userA, userB)
	if err != nil {
		return false, err
	}
	ba, err := liveVenues(userB, userA)
	if err != nil {
		return false, err
	}
	for venueID := range ab {
		if ba[venueID] {
			return true, nil
		}
	}
	return false, nil
}
