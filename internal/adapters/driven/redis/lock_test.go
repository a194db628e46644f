package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestLock_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	a := NewLock(client)
	b := NewLock(client)
	require.NotEqual(t, a.OwnerID(), b.OwnerID())

	ok, err := a.Acquire(ctx, "ensure-collection", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx, "ensure-collection", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second owner must not acquire a held lock")

	// Foreign release leaves it held
	require.NoError(t, b.Release(ctx, "ensure-collection"))
	assert.True(t, mr.Exists(lockPrefix+"ensure-collection"))

	require.NoError(t, a.Release(ctx, "ensure-collection"))
	assert.False(t, mr.Exists(lockPrefix+"ensure-collection"))

	ok, err = b.Acquire(ctx, "ensure-collection", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Expires(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	a := NewLock(client)
	b := NewLock(client)

	ok, _ := a.Acquire(ctx, "x", time.Second)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err := b.Acquire(ctx, "x", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Extend(t *testing.T) {
	ctx := context.Background()
	mr, client := setupTestRedis(t)

	a := NewLock(client)
	b := NewLock(client)

	assert.Error(t, a.Extend(ctx, "x", time.Minute), "extending an unheld lock fails")

	ok, _ := a.Acquire(ctx, "x", time.Second)
	require.True(t, ok)

	require.NoError(t, a.Extend(ctx, "x", time.Hour))
	assert.Greater(t, mr.TTL(lockPrefix+"x"), time.Minute)

	assert.Error(t, b.Extend(ctx, "x", time.Hour))
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	assert.NoError(t, lock.Ping(context.Background()))

	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}
