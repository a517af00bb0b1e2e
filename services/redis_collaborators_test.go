package services

import (
	"context"
	"os"
	"testing"
	"time"

	"venuematch_server/models"
	"venuematch_server/redis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Redis when REDIS_TEST_ADDR is set, e.g. localhost:6379.
func redisForTest(t *testing.T) *redis.Service {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := redis.NewService(redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()))
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisCheckIns(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()
	checkIns := &RedisCheckIns{Redis: rdb, TTL: time.Minute, Clock: SystemClock{}}
	user := "user-" + uuid.NewString()

	got, err := checkIns.IsCheckedIn(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = checkIns.CheckIn(ctx, user, "v1")
	require.NoError(t, err)
	got, err = checkIns.IsCheckedIn(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.VenueID)

	require.NoError(t, checkIns.CheckOut(ctx, user))
	got, err = checkIns.IsCheckedIn(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisBlockList(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()
	blocks := &RedisBlockList{Redis: rdb}
	a, b := "user-"+uuid.NewString(), "user-"+uuid.NewString()

	blocked, err := blocks.IsBlocked(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, blocks.Block(ctx, b, a))
	t.Cleanup(func() { rdb.Delete(context.Background(), blocksKey(b)) })

	blocked, err = blocks.IsBlocked(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestRedisTypingStore(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()
	typing := &RedisTypingStore{Redis: rdb, Clock: SystemClock{}}
	matchID := uuid.NewString()

	require.NoError(t, typing.SetTyping(ctx, models.TypingState{MatchID: matchID, UserID: "bob", ExpiresAt: time.Now().Add(time.Minute)}))
	require.NoError(t, typing.SetTyping(ctx, models.TypingState{MatchID: matchID, UserID: "alice", ExpiresAt: time.Now().Add(time.Minute)}))

	states, err := typing.ListTyping(ctx, matchID)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "alice", states[0].UserID)

	require.NoError(t, typing.ClearTyping(ctx, matchID, "alice"))
	require.NoError(t, typing.ClearTyping(ctx, matchID, "bob"))
	states, err = typing.ListTyping(ctx, matchID)
	require.NoError(t, err)
	assert.Empty(t, states)
}
