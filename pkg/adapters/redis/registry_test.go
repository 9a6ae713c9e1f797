package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/grove/pkg/adapters/redis"
	"github.com/aretw0/grove/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisRegistry_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunInstanceRegistryContract(t, redis.NewFromClient(client))
}

func TestRedisRegistry_Keys(t *testing.T) {
	mr, client := newClient(t)
	reg := redis.NewFromClient(client, redis.WithPrefix("test:"))

	require.NoError(t, reg.Stamp(context.Background(), "script-1", 42))
	val, err := mr.Get("test:instance:script-1")
	require.NoError(t, err)
	assert.Equal(t, "42", val)
}

func TestRedisRegistry_TTL(t *testing.T) {
	mr, client := newClient(t)
	reg := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, reg.Stamp(ctx, "script-1", 7))
	mr.FastForward(2 * time.Second)

	_, ok, err := reg.Lookup(ctx, "script-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRegistry_CorruptStamp(t *testing.T) {
	mr, client := newClient(t)
	reg := redis.NewFromClient(client)

	require.NoError(t, mr.Set("grove:instance:script-1", "id: 7"))
	_, _, err := reg.Lookup(context.Background(), "script-1")
	assert.Error(t, err)
}

func TestLocker(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sweep", time.Minute)
	require.NoError(t, err)

	// A second holder blocks until its context gives up.
	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "sweep", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}
