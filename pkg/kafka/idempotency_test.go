package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// MemoryIdempotencyStore
// ---------------------------------------------------------------------------

func TestMemoryIdempotencyStore_AddAndContains(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt-1"))
	now = now.Add(2 * time.Minute)

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, 0, store.Len())
}

// ---------------------------------------------------------------------------
// RedisIdempotencyStore
// ---------------------------------------------------------------------------

func TestRedisIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "idem:score-refresh", time.Hour)
	ctx := context.Background()

	seen, err := store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.Add(ctx, "evt-1"))
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.True(t, mr.Exists("idem:score-refresh:evt-1"))

	mr.FastForward(2 * time.Hour)
	seen, err = store.Contains(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestRedisIdempotencyStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := NewRedisIdempotencyStore(client, "idem", time.Hour)
	mr.Close()

	_, err := store.Contains(context.Background(), "evt-1")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// IdempotentHandler
// ---------------------------------------------------------------------------

type failingStore struct{}

func (failingStore) Contains(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) Add(context.Context, string) error { return errors.New("store down") }

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	var calls int
	h := IdempotentHandler(store, func(context.Context, *Event) error { calls++; return nil }, testLogger())

	event := &Event{EventID: "evt-1", EventType: "review.created"}
	require.NoError(t, h(context.Background(), event))
	require.NoError(t, h(context.Background(), event))
	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailureNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Minute)
	var calls int
	h := IdempotentHandler(store, func(context.Context, *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, testLogger())

	event := &Event{EventID: "evt-2", EventType: "review.created"}
	require.Error(t, h(context.Background(), event))
	require.NoError(t, h(context.Background(), event))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_NoEventIDPassesThrough(t *testing.T) {
	var calls int
	h := IdempotentHandler(NewMemoryIdempotencyStore(time.Minute),
		func(context.Context, *Event) error { calls++; return nil }, testLogger())

	require.NoError(t, h(context.Background(), &Event{}))
	require.NoError(t, h(context.Background(), &Event{}))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_StoreErrorStillProcesses(t *testing.T) {
	var calls int
	h := IdempotentHandler(failingStore{}, func(context.Context, *Event) error { calls++; return nil }, testLogger())

	require.NoError(t, h(context.Background(), &Event{EventID: "evt-3"}))
	assert.Equal(t, 1, calls)
}
