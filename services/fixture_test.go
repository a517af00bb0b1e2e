package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"venuematch_server/models"
	"venuematch_server/store"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(ctx context.Context, event models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) ofType(eventType models.EventType) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type failingCheckIns struct{}

func (failingCheckIns) IsCheckedIn(ctx context.Context, userID string) (*models.CheckIn, error) {
	return nil, errors.New("connection refused")
}

type fixture struct {
	ctx      context.Context
	clock    *FixedClock
	store    *store.MemoryStore
	checkIns *MemoryCheckIns
	blocks   *MemoryBlockList
	events   *recorder
	engine   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := NewFixedClock(baseTime)
	f := &fixture{
		ctx:      context.Background(),
		clock:    clock,
		store:    store.NewMemoryStore(),
		checkIns: NewMemoryCheckIns(clock, 6*time.Hour),
		blocks:   NewMemoryBlockList(),
		events:   &recorder{},
	}
	f.engine = NewEngine(Dependencies{
		Store:      f.store,
		CheckIns:   f.checkIns,
		Blocks:     f.blocks,
		Typing:     NewMemoryTypingStore(clock),
		Validator:  BasicTextValidator{MaxLength: 200},
		Publishers: []Publisher{f.events},
		Clock:      clock,
	}, Settings{
		MatchWindow:       3 * time.Hour,
		InterestTTL:       24 * time.Hour,
		MessageCap:        3,
		TypingTTL:         4 * time.Second,
		DependencyTimeout: time.Second,
	})
	return f
}

func (f *fixture) checkIn(t *testing.T, venueID string, users ...string) {
	t.Helper()
	for _, u := range users {
		_, err := f.checkIns.CheckIn(f.ctx, u, venueID)
		require.NoError(t, err)
	}
}

// match checks both users in at venueID and forms a Match between them.
func (f *fixture) match(t *testing.T, a, b, venueID string) *models.Match {
	t.Helper()
	f.checkIn(t, venueID, a, b)
	_, err := f.engine.Interactions.RecordInterest(f.ctx, a, b, venueID)
	require.NoError(t, err)
	res, err := f.engine.Interactions.RecordInterest(f.ctx, b, a, venueID)
	require.NoError(t, err)
	require.Equal(t, models.InterestStatusMatched, res.Status)
	m, err := f.engine.Matches.GetMatch(f.ctx, res.MatchID)
	require.NoError(t, err)
	return m
}
