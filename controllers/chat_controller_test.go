package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"venuematch_server/services"
	"venuematch_server/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiredMatch(t *testing.T) (*ChatController, string) {
	t.Helper()
	ctx := context.Background()
	clock := services.NewFixedClock(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	checkIns := services.NewMemoryCheckIns(clock, 6*time.Hour)
	engine := services.NewEngine(services.Dependencies{
		Store:    store.NewMemoryStore(),
		CheckIns: checkIns,
		Blocks:   services.NewMemoryBlockList(),
		Typing:   services.NewMemoryTypingStore(clock),
		Clock:    clock,
	}, services.Settings{
		MatchWindow: 3 * time.Hour,
		InterestTTL: 24 * time.Hour,
		MessageCap:  3,
		TypingTTL:   4 * time.Second,
	})

	for _, u := range []string{"alice", "bob"} {
		_, err := checkIns.CheckIn(ctx, u, "v1")
		require.NoError(t, err)
	}
	_, err := engine.Interactions.RecordInterest(ctx, "alice", "bob", "v1")
	require.NoError(t, err)
	res, err := engine.Interactions.RecordInterest(ctx, "bob", "alice", "v1")
	require.NoError(t, err)
	clock.Advance(4 * time.Hour)

	return NewChatController(engine.Chat, engine.Rematch, time.Second), res.MatchID
}

func gateBody(t *testing.T, c *ChatController, ctx context.Context, matchID string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	c.writeGateError(ctx, rec, matchID, fmt.Errorf("send: %w", services.ErrExpired))
	assert.Equal(t, 410, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteGateError_ReportsRematch(t *testing.T) {
	c, matchID := expiredMatch(t)
	body := gateBody(t, c, context.Background(), matchID)
	assert.Equal(t, "Expired", body["kind"])
	assert.Equal(t, true, body["rematchAvailable"])
}

func TestWriteGateError_LookupsUseRequestContext(t *testing.T) {
	c, matchID := expiredMatch(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := gateBody(t, c, ctx, matchID)
	assert.Equal(t, "Expired", body["kind"])
	assert.Equal(t, false, body["rematchAvailable"], "an exhausted request context skips the rematch lookup")
}
