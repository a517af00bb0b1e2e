package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"venuematch_server/models"
	"venuematch_server/redis"
)

// CheckInProvider reports a user's current venue check-in, or nil when the
// user is not checked in anywhere.
type CheckInProvider interface {
	IsCheckedIn(ctx context.Context, userID string) (*models.CheckIn, error)
}

// CheckInRecorder is implemented by providers that also accept check-ins.
type CheckInRecorder interface {
	CheckIn(ctx context.Context, userID, venueID string) (*models.CheckIn, error)
	CheckOut(ctx context.Context, userID string) error
}

// CheckInGate wraps a provider with a timeout and maps its failures to
// ErrDependencyUnavailable.
type CheckInGate struct {
	Provider CheckInProvider
	Timeout  time.Duration
}

// Current returns the user's check-in, nil when not checked in.
func (g *CheckInGate) Current(ctx context.Context, userID string) (*models.CheckIn, error) {
	ctx, cancel := withTimeout(ctx, g.Timeout)
	defer cancel()

	checkIn, err := g.Provider.IsCheckedIn(ctx, userID)
	if err != nil {
		log.Printf("❌ Check-in lookup failed for %s: %v", userID, err)
		return nil, unavailable("check-in provider", err)
	}
	return checkIn, nil
}

// RequireAt fails with ErrNotCheckedIn unless every user is checked in at venueID.
func (g *CheckInGate) RequireAt(ctx context.Context, venueID string, userIDs ...string) error {
	for _, userID := range userIDs {
		checkIn, err := g.Current(ctx, userID)
		if err != nil {
			return err
		}
		if checkIn == nil || checkIn.VenueID != venueID {
			return fmt.Errorf("user %s at venue %s: %w", userID, venueID, ErrNotCheckedIn)
		}
	}
	return nil
}

// MemoryCheckIns is an in-process provider for tests and local runs.
// Check-ins lapse after ttl; a ttl of zero keeps them until check-out.
type MemoryCheckIns struct {
	mu       sync.RWMutex
	checkIns map[string]models.CheckIn
	clock    Clock
	ttl      time.Duration
}

func NewMemoryCheckIns(clock Clock, ttl time.Duration) *MemoryCheckIns {
	return &MemoryCheckIns{checkIns: make(map[string]models.CheckIn), clock: clock, ttl: ttl}
}

func (m *MemoryCheckIns) IsCheckedIn(ctx context.Context, userID string) (*models.CheckIn, error) {
	now := m.clock.Now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	checkIn, ok := m.checkIns[userID]
	if !ok || checkIn.Lapsed(now) {
		return nil, nil
	}
	return &checkIn, nil
}

func (m *MemoryCheckIns) CheckIn(ctx context.Context, userID, venueID string) (*models.CheckIn, error) {
	checkIn := newCheckIn(userID, venueID, m.clock.Now(), m.ttl)
	m.mu.Lock()
	m.checkIns[userID] = checkIn
	m.mu.Unlock()
	return &checkIn, nil
}

func (m *MemoryCheckIns) CheckOut(ctx context.Context, userID string) error {
	m.mu.Lock()
	delete(m.checkIns, userID)
	m.mu.Unlock()
	return nil
}

// RedisCheckIns keeps check-ins as JSON values that expire after TTL.
type RedisCheckIns struct {
	Redis *redis.Service
	TTL   time.Duration
	Clock Clock
}

func checkInKey(userID string) string { return "checkin:" + userID }

func (r *RedisCheckIns) IsCheckedIn(ctx context.Context, userID string) (*models.CheckIn, error) {
	var checkIn models.CheckIn
	err := r.Redis.GetJSON(ctx, checkInKey(userID), &checkIn)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &checkIn, nil
}

func (r *RedisCheckIns) CheckIn(ctx context.Context, userID, venueID string) (*models.CheckIn, error) {
	checkIn := newCheckIn(userID, venueID, r.Clock.Now(), r.TTL)
	if err := r.Redis.SetJSON(ctx, checkInKey(userID), checkIn, r.TTL); err != nil {
		return nil, err
	}
	log.Printf("📍 %s checked in at %s", userID, venueID)
	return &checkIn, nil
}

func (r *RedisCheckIns) CheckOut(ctx context.Context, userID string) error {
	return r.Redis.Delete(ctx, checkInKey(userID))
}

func newCheckIn(userID, venueID string, now time.Time, ttl time.Duration) models.CheckIn {
	checkIn := models.CheckIn{UserID: userID, VenueID: venueID, Since: now}
	if ttl > 0 {
		checkIn.ExpiresAt = now.Add(ttl)
	}
	return checkIn
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
