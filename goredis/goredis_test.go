package goredis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratelimit "github.com/toggio/SimpleRateLimiter"
)

// newTestStore connects to a local Redis, skipping the test when none is
// reachable.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	store, err := New(client)
	if err != nil {
		client.Close()
		t.Skipf("skipping integration test: redis not available (%v)", err)
	}
	t.Cleanup(func() { client.Close() })
	return store
}

func testKey(part string) string {
	return ratelimit.DeriveKey("goredis-test", part, uuid.NewString())
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	_, err := New(client, WithTimeout(100*time.Millisecond))
	require.Error(t, err)
}

func TestStoreCounterOps(t *testing.T) {
	store := newTestStore(t)
	key := testKey("counters")

	exists, err := store.Exists(key)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Set(key, 3, 5*time.Second))

	exists, err = store.Exists(key)
	require.NoError(t, err)
	assert.True(t, exists)

	v, err := store.Decr(key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = store.Incr(key)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestStoreGetAbsentReadsZero(t *testing.T) {
	store := newTestStore(t)

	v, err := store.Get(testKey("absent"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestLimiterOverGoRedis(t *testing.T) {
	store := newTestStore(t)
	key := testKey("limiter")

	cfg := ratelimit.DefaultConfig()
	cfg.MaxTokens = 2
	cfg.TTL = 5 * time.Second
	cfg.UseDelay = false

	l, err := ratelimit.New(store, key, cfg)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := l.Acquire()
		require.NoError(t, err)
		require.True(t, ok, "acquire %d", i+1)
	}
	ok, err := l.Acquire()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Release())
	ok, err = l.Acquire()
	require.NoError(t, err)
	assert.True(t, ok)
}
