package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/drink-counter/internal/config"
)

func newStore(t *testing.T, ttl time.Duration) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStateStore(client, ttl), mr
}

func TestStateStore_IssueConsume(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	state, err := store.Issue(ctx, "discord")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.True(t, mr.Exists(stateKeyPrefix+state))

	require.NoError(t, store.Consume(ctx, state, "discord"))

	// Single use.
	assert.ErrorIs(t, store.Consume(ctx, state, "discord"), ErrInvalidState)
	assert.False(t, mr.Exists(stateKeyPrefix+state))
}

func TestStateStore_Expires(t *testing.T) {
	store, mr := newStore(t, 10*time.Minute)
	ctx := context.Background()

	state, err := store.Issue(ctx, "discord")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL(stateKeyPrefix+state))

	mr.FastForward(11 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, state, "discord"), ErrInvalidState)
}

func TestStateStore_ProviderMismatch(t *testing.T) {
	store, _ := newStore(t, time.Minute)
	ctx := context.Background()

	state, err := store.Issue(ctx, "discord")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Consume(ctx, state, "google"), ErrInvalidState)
	// The mismatched attempt still burns the state.
	assert.ErrorIs(t, store.Consume(ctx, state, "discord"), ErrInvalidState)
}

func TestStateStore_EmptyAndUnknown(t *testing.T) {
	store, _ := newStore(t, time.Minute)
	ctx := context.Background()

	assert.ErrorIs(t, store.Consume(ctx, "", "discord"), ErrInvalidState)
	assert.ErrorIs(t, store.Consume(ctx, "never-issued", "discord"), ErrInvalidState)
}

func TestStateStore_DefaultTTL(t *testing.T) {
	store, mr := newStore(t, 0)
	state, err := store.Issue(context.Background(), "discord")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL(stateKeyPrefix+state))
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := NewRedis(&config.Config{RedisAddr: addr})
	require.NoError(t, err)
	defer client.Close()

	store := NewStateStore(client, time.Minute)
	assert.NoError(t, store.Ping(context.Background()))

	mr.Close()
	_, err = NewRedis(&config.Config{RedisAddr: addr})
	assert.Error(t, err)
}
