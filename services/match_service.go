package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"venuematch_server/metrics"
	"venuematch_server/models"
	"venuematch_server/store"

	"github.com/google/uuid"
)

// maxAttempts bounds every compare-and-set retry loop.
const maxAttempts = 5

// MatchService owns Match records and the per-pair state that serializes
// their creation.
type MatchService struct {
	Store  store.Store
	Clock  Clock
	Notify *NotificationService
	Window time.Duration
}

func NewMatchService(s store.Store, clock Clock, notify *NotificationService, window time.Duration) *MatchService {
	return &MatchService{Store: s, Clock: clock, Notify: notify, Window: window}
}

// pairSnapshot is a PairState as read, with the version to compare against.
type pairSnapshot struct {
	Key     string
	State   models.PairState
	Version int64
}

func pairStateKey(pairKey string) store.Key {
	return store.Key{PK: models.PairPK(pairKey), SK: models.StateSK}
}

func matchKey(matchID string) store.Key {
	return store.Key{PK: models.MatchPK(matchID), SK: models.MetaSK}
}

func (s *MatchService) loadPair(ctx context.Context, pairKey string) (*pairSnapshot, error) {
	snap := &pairSnapshot{Key: pairKey}
	version, err := s.Store.Get(ctx, pairStateKey(pairKey), &snap.State)
	if errors.Is(err, store.ErrNotFound) {
		snap.State = models.PairState{PairKey: pairKey}
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pair %s: %w", pairKey, err)
	}
	snap.Version = version
	return snap, nil
}

// touch bumps the pair version so that concurrent writers on the same pair
// serialize even when they change nothing else.
func (p *pairSnapshot) touch(now time.Time) store.Write {
	state := p.State
	state.UpdatedAt = now
	return store.PutIfVersion(pairStateKey(p.Key), state, p.Version)
}

// successorCheck rejects a new match for a pair whose one rematch is spent.
func successorCheck(pair *pairSnapshot) error {
	if pair.State.RematchUsed() {
		return fmt.Errorf("pair %s: %w", pair.Key, ErrAlreadyRematched)
	}
	return nil
}

// newMatch builds the next Match for the pair. A pair that matched before
// always chains to its latest Match.
func (s *MatchService) newMatch(pair *pairSnapshot, venueID string) *models.Match {
	now := s.Clock.Now()
	a, b, _ := models.SplitPairKey(pair.Key)
	return &models.Match{
		ID:              uuid.New().String(),
		UserIDA:         a,
		UserIDB:         b,
		VenueID:         venueID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.Window),
		Status:          models.MatchStatusActive,
		RematchedFromID: pair.State.CurrentMatchID,
	}
}

// commitMatch inserts match with both user links and the updated pair state,
// together with extra, in one all-or-nothing batch.
func (s *MatchService) commitMatch(ctx context.Context, pair *pairSnapshot, match *models.Match, extra ...store.Write) error {
	state := pair.State
	state.CurrentMatchID = match.ID
	state.CurrentExpiresAt = match.ExpiresAt
	state.MatchCount++
	state.UpdatedAt = match.CreatedAt
	if match.RematchedFromID != "" {
		state.RematchedMatchID = match.RematchedFromID
		state.RematchedAt = match.CreatedAt
	}

	writes := []store.Write{
		store.PutIfVersion(pairStateKey(pair.Key), state, pair.Version),
		store.PutIfAbsent(matchKey(match.ID), match),
	}
	for _, userID := range []string{match.UserIDA, match.UserIDB} {
		link := models.UserMatchLink{UserID: userID, MatchID: match.ID, CreatedAt: match.CreatedAt}
		writes = append(writes, store.PutIfAbsent(store.Key{PK: models.UserPK(userID), SK: models.UserMatchSK(match.CreatedAt, match.ID)}, link))
	}
	writes = append(writes, extra...)

	if err := s.Store.Write(ctx, writes...); err != nil {
		return err
	}

	origin := models.MatchOriginOrganic
	if match.RematchedFromID != "" {
		origin = models.MatchOriginRematch
	}
	metrics.MatchesCreated.WithLabelValues(origin).Inc()
	log.Printf("✅ Match %s created for %s (%s)", match.ID, pair.Key, origin)
	s.Notify.MatchFormed(ctx, match, origin)
	return nil
}

// CreateMatch forms the Match for a pair with mutual interest at venueID. When
// the pair already has a live Match that Match is returned instead.
func (s *MatchService) CreateMatch(ctx context.Context, userA, userB, venueID string) (*models.Match, error) {
	if err := validatePair(userA, userB, venueID); err != nil {
		return nil, err
	}
	pairKey := models.PairKey(userA, userB)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		pair, err := s.loadPair(ctx, pairKey)
		if err != nil {
			return nil, err
		}
		now := s.Clock.Now()
		if pair.State.HasLiveMatch(now) {
			return s.GetMatch(ctx, pair.State.CurrentMatchID)
		}
		if err := successorCheck(pair); err != nil {
			return nil, err
		}

		ab, err := readInterest(ctx, s.Store, userA, userB, venueID)
		if err != nil {
			return nil, err
		}
		ba, err := readInterest(ctx, s.Store, userB, userA, venueID)
		if err != nil {
			return nil, err
		}
		if !ab.Interest.IsLive(now) || !ba.Interest.IsLive(now) {
			return nil, fmt.Errorf("no mutual interest between %s at %s: %w", pairKey, venueID, ErrForbidden)
		}

		match := s.newMatch(pair, venueID)
		err = s.commitMatch(ctx, pair, match, ab.consume(match.ID), ba.consume(match.ID))
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create match for %s: %w", pairKey, err)
		}
		return match.Annotate(now), nil
	}
	return nil, fmt.Errorf("create match for %s: %w", pairKey, ErrConflict)
}

// GetMatch returns the Match annotated for the current time.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, _, err := s.getVersioned(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return match.Annotate(s.Clock.Now()), nil
}

func (s *MatchService) getVersioned(ctx context.Context, matchID string) (*models.Match, int64, error) {
	if matchID == "" || strings.Contains(matchID, "#") {
		return nil, 0, fmt.Errorf("match %q: %w", matchID, ErrNotFound)
	}
	var match models.Match
	version, err := s.Store.Get(ctx, matchKey(matchID), &match)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read match %s: %w", matchID, err)
	}
	return &match, version, nil
}

// getForParty loads a Match and checks that userID belongs to it.
func (s *MatchService) getForParty(ctx context.Context, matchID, userID string) (*models.Match, error) {
	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParty(userID) {
		return nil, fmt.Errorf("user %s is not part of match %s: %w", userID, matchID, ErrForbidden)
	}
	return match, nil
}

// ListMatchesFor returns every Match involving userID, newest first.
func (s *MatchService) ListMatchesFor(ctx context.Context, userID string) ([]*models.Match, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var links []models.UserMatchLink
	if err := s.Store.Query(ctx, models.UserPK(userID), models.MatchPrefix, &links); err != nil {
		return nil, fmt.Errorf("failed to list matches for %s: %w", userID, err)
	}

	now := s.Clock.Now()
	matches := make([]*models.Match, 0, len(links))
	for _, link := range links {
		match, _, err := s.getVersioned(ctx, link.MatchID)
		if errors.Is(err, ErrNotFound) {
			log.Printf("⚠️ Dangling match link %s for %s", link.MatchID, userID)
			continue
		}
		if err != nil {
			return nil, err
		}
		matches = append(matches, match.Annotate(now))
	}
	slices.Reverse(matches)
	return matches, nil
}

var contactKinds = []string{
	models.ContactKindPhone,
	models.ContactKindEmail,
	models.ContactKindInstagram,
	models.ContactKindOther,
}

// ShareContact attaches contact info to a live Match and marks it contact
// shared. The first share time is kept on later shares.
func (s *MatchService) ShareContact(ctx context.Context, matchID, userID string, info models.ContactInfo) (*models.Match, error) {
	info.Kind = strings.ToLower(strings.TrimSpace(info.Kind))
	info.Value = strings.TrimSpace(info.Value)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		match, version, err := s.getVersioned(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if !match.HasParty(userID) {
			return nil, fmt.Errorf("user %s is not part of match %s: %w", userID, matchID, ErrForbidden)
		}
		now := s.Clock.Now()
		if match.Expired(now) {
			return nil, fmt.Errorf("match %s expired at %s: %w", matchID, match.ExpiresAt.Format(time.RFC3339), ErrExpired)
		}
		if !slices.Contains(contactKinds, info.Kind) {
			return nil, fmt.Errorf("unknown contact kind %q: %w", info.Kind, ErrValidationFailed)
		}
		if info.Value == "" {
			return nil, fmt.Errorf("contact value is empty: %w", ErrValidationFailed)
		}

		match.ContactInfo = &models.ContactInfo{Kind: info.Kind, Value: info.Value, SharedBy: userID, SharedAt: now}
		if match.ContactSharedAt == nil {
			match.ContactSharedAt = &now
		}
		match.Status = models.MatchStatusContactShared

		err = s.Store.Write(ctx, store.PutIfVersion(matchKey(matchID), match, version))
		if errors.Is(err, store.ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to share contact on match %s: %w", matchID, err)
		}
		log.Printf("📇 %s shared contact on match %s", userID, matchID)
		return match.Annotate(now), nil
	}
	return nil, fmt.Errorf("share contact on match %s: %w", matchID, ErrConflict)
}

func validateUserID(userID string) error {
	if userID == "" || strings.Contains(userID, "#") {
		return fmt.Errorf("invalid user id %q: %w", userID, ErrValidationFailed)
	}
	return nil
}

func validatePair(userA, userB, venueID string) error {
	if err := validateUserID(userA); err != nil {
		return err
	}
	if err := validateUserID(userB); err != nil {
		return err
	}
	if userA == userB {
		return fmt.Errorf("user %s: %w", userA, ErrSelfInterest)
	}
	if venueID == "" || strings.Contains(venueID, "#") {
		return fmt.Errorf("invalid venue id %q: %w", venueID, ErrValidationFailed)
	}
	return nil
}
