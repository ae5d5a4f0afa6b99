package distlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "campaign:1", time.Minute)
	b := NewRedisLock(client, "campaign:1", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b is not the owner, release is a no-op
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists("lock:campaign:1"))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists("lock:campaign:1"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "sweep", time.Second)
	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = NewRedisLock(client, "sweep", time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithLock(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()

	var ran int
	err := WithLock(ctx, client, "run-campaigns", time.Minute, func(ctx context.Context) error {
		ran++
		// nested attempt on the same key is rejected
		inner := WithLock(ctx, client, "run-campaigns", time.Minute, func(context.Context) error {
			ran++
			return nil
		})
		assert.ErrorIs(t, inner, ErrNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.False(t, mr.Exists("lock:run-campaigns"))

	boom := errors.New("boom")
	err = WithLock(ctx, client, "run-campaigns", time.Minute, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:run-campaigns"))
}
