package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logsvc "github.com/trezcool/fyp/services/logger"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	val, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))

	val, _ = c.Get(ctx, "a")
	assert.Equal(t, []byte("1"), val)

	now = now.Add(time.Minute)
	val, _ = c.Get(ctx, "a")
	assert.Nil(t, val, "expired")
	val, _ = c.Get(ctx, "b")
	assert.Equal(t, []byte("2"), val, "no ttl")

	require.NoError(t, c.Delete(ctx, "b"))
	val, _ = c.Get(ctx, "b")
	assert.Nil(t, val)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	store := NewSessionStore(mem)

	revoked, err := store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "sess-1", time.Hour))
	revoked, err = store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "sess-2")
	assert.False(t, revoked)

	// expired sessions need not be remembered
	require.NoError(t, store.Revoke(ctx, "sess-3", -time.Second))
	revoked, _ = store.IsRevoked(ctx, "sess-3")
	assert.False(t, revoked)
}

func TestSessionStore_redisDown(t *testing.T) {
	ctx := context.Background()
	rds := NewRedis("127.0.0.1:1", "", 0, logsvc.NewDiscardLogger()) // nothing listens there
	t.Cleanup(func() { _ = rds.Close() })
	store := NewSessionStore(rds)

	assert.Error(t, store.Revoke(ctx, "sess-1", time.Hour))

	revoked, err := store.IsRevoked(ctx, "sess-1")
	assert.Error(t, err)
	assert.False(t, revoked)
}
