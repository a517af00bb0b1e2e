package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string    `dynamodbav:"name"`
	Count int       `dynamodbav:"count"`
	At    time.Time `dynamodbav:"at"`
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	var r record
	_, err := s.Get(context.Background(), Key{PK: "A", SK: "1"}, &r)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{PK: "A", SK: "1"}

	require.NoError(t, s.Write(ctx, PutIfAbsent(key, record{Name: "first"})))
	err := s.Write(ctx, PutIfAbsent(key, record{Name: "second"}))
	assert.ErrorIs(t, err, ErrConditionFailed)

	var got record
	version, err := s.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, int64(1), version)
}

func TestMemoryStore_IfVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{PK: "A", SK: "1"}

	require.NoError(t, s.Write(ctx, PutIfVersion(key, record{Count: 1}, 0)))
	assert.ErrorIs(t, s.Write(ctx, PutIfVersion(key, record{Count: 2}, 0)), ErrConditionFailed)
	require.NoError(t, s.Write(ctx, PutIfVersion(key, record{Count: 2}, 1)))
	assert.ErrorIs(t, s.Write(ctx, PutIfVersion(key, record{Count: 3}, 1)), ErrConditionFailed)

	var got record
	version, err := s.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, int64(2), version)
}

func TestMemoryStore_BatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	taken := Key{PK: "A", SK: "taken"}
	require.NoError(t, s.Write(ctx, PutIfAbsent(taken, record{Name: "x"})))

	err := s.Write(ctx,
		PutIfAbsent(Key{PK: "A", SK: "new"}, record{Name: "y"}),
		PutIfAbsent(taken, record{Name: "z"}),
	)
	assert.ErrorIs(t, err, ErrConditionFailed)

	var r record
	_, err = s.Get(ctx, Key{PK: "A", SK: "new"}, &r)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_RejectsBadBatches(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{PK: "A", SK: "1"}

	assert.Error(t, s.Write(ctx))
	assert.Error(t, s.Write(ctx, Put(Key{PK: "A"}, record{})))
	assert.Error(t, s.Write(ctx, Put(key, record{}), Put(key, record{})))
}

func TestMemoryStore_QueryPrefixOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, sk := range []string{"MSG#3", "MSG#1", "QUOTA#a", "MSG#2"} {
		require.NoError(t, s.Write(ctx, Put(Key{PK: "M", SK: sk}, record{Name: sk})))
	}
	require.NoError(t, s.Write(ctx, Put(Key{PK: "OTHER", SK: "MSG#0"}, record{Name: "other"})))

	var got []record
	require.NoError(t, s.Query(ctx, "M", "MSG#", &got))
	require.Len(t, got, 3)
	assert.Equal(t, "MSG#1", got[0].Name)
	assert.Equal(t, "MSG#2", got[1].Name)
	assert.Equal(t, "MSG#3", got[2].Name)

	var all []record
	require.NoError(t, s.Query(ctx, "M", "", &all))
	assert.Len(t, all, 4)
}

func TestMemoryStore_RoundTripsTime(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2026, 3, 1, 20, 15, 0, 123, time.UTC)
	key := Key{PK: "A", SK: "t"}
	require.NoError(t, s.Write(ctx, Put(key, record{At: at})))

	var got record
	_, err := s.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, at.Equal(got.At))
}

func TestMemoryStore_ConcurrentPutIfAbsentHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := Key{PK: "CLAIM", SK: "pair"}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Write(ctx, PutIfAbsent(key, record{Count: i})); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStore_HonoursCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Write(ctx, Put(Key{PK: "A", SK: "1"}, record{})), context.Canceled)
}
