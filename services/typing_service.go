package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"venuematch_server/models"
	"venuematch_server/redis"
)

// TypingStore keeps ephemeral typing markers. Expired markers are never returned.
type TypingStore interface {
	SetTyping(ctx context.Context, state models.TypingState) error
	ClearTyping(ctx context.Context, matchID, userID string) error
	ListTyping(ctx context.Context, matchID string) ([]models.TypingState, error)
}

// MemoryTypingStore holds markers in process and filters them by the clock.
type MemoryTypingStore struct {
	mu     sync.Mutex
	states map[string]map[string]models.TypingState
	clock  Clock
}

func NewMemoryTypingStore(clock Clock) *MemoryTypingStore {
	return &MemoryTypingStore{states: make(map[string]map[string]models.TypingState), clock: clock}
}

func (s *MemoryTypingStore) SetTyping(ctx context.Context, state models.TypingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.states[state.MatchID]
	if !ok {
		users = make(map[string]models.TypingState)
		s.states[state.MatchID] = users
	}
	users[state.UserID] = state
	return nil
}

func (s *MemoryTypingStore) ClearTyping(ctx context.Context, matchID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states[matchID], userID)
	return nil
}

func (s *MemoryTypingStore) ListTyping(ctx context.Context, matchID string) ([]models.TypingState, error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.TypingState
	for userID, state := range s.states[matchID] {
		if !now.Before(state.ExpiresAt) {
			delete(s.states[matchID], userID)
			continue
		}
		out = append(out, state)
	}
	sortTyping(out)
	return out, nil
}

// RedisTypingStore writes typing:<match>:<user> keys that Redis expires on its own.
type RedisTypingStore struct {
	Redis *redis.Service
	Clock Clock
}

func typingKey(matchID, userID string) string { return "typing:" + matchID + ":" + userID }

func (s *RedisTypingStore) SetTyping(ctx context.Context, state models.TypingState) error {
	ttl := state.ExpiresAt.Sub(s.Clock.Now())
	if ttl <= 0 {
		return s.ClearTyping(ctx, state.MatchID, state.UserID)
	}
	return s.Redis.SetJSON(ctx, typingKey(state.MatchID, state.UserID), state, ttl)
}

func (s *RedisTypingStore) ClearTyping(ctx context.Context, matchID, userID string) error {
	return s.Redis.Delete(ctx, typingKey(matchID, userID))
}

func (s *RedisTypingStore) ListTyping(ctx context.Context, matchID string) ([]models.TypingState, error) {
	keys, err := s.Redis.ScanKeys(ctx, typingKey(matchID, "*"))
	if err != nil {
		return nil, err
	}
	var out []models.TypingState
	for _, key := range keys {
		var state models.TypingState
		if err := s.Redis.GetJSON(ctx, key, &state); err != nil {
			if errors.Is(err, redis.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, state)
	}
	sortTyping(out)
	return out, nil
}

func sortTyping(states []models.TypingState) {
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
}
