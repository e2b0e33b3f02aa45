// Package goredis adapts a go-redis client to the root package's Store
// interface, for applications that already carry the
// github.com/redis/go-redis client rather than radix.
package goredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	simpleratelimiter "github.com/toggio/SimpleRateLimiter"
)

const defaultTimeout = 5 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithTimeout sets the per-operation timeout. The default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// Store implements the root package's Store over any go-redis client
// (single node, cluster or ring). The Store contract has no contexts, so
// every operation runs under its own timeout context.
type Store struct {
	client  redis.UniversalClient
	timeout time.Duration
}

var _ simpleratelimiter.Store = (*Store)(nil)

// New wraps client, verifying connectivity with a PING so an unreachable
// server surfaces at construction. Closing the client stays with the
// caller who created it.
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	s := &Store{client: client, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}
	ctx, cancel := s.opCtx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return s, nil
}

func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Exists reports whether key holds a value.
func (s *Store) Exists(key string) (bool, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Set writes value and starts the expiration countdown.
func (s *Store) Set(key string, value int64, ttl time.Duration) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.client.Set(ctx, key, value, ttlSeconds(ttl)).Err()
}

// Expire resets the expiration countdown without touching the value.
func (s *Store) Expire(key string, ttl time.Duration) error {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.client.Expire(ctx, key, ttlSeconds(ttl)).Err()
}

// Decr atomically decrements key by 1 and returns the new value.
func (s *Store) Decr(key string) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.client.Decr(ctx, key).Result()
}

// Incr atomically increments key by 1 and returns the new value.
func (s *Store) Incr(key string) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	return s.client.Incr(ctx, key).Result()
}

// Get reads the current value; an absent key reads as 0.
func (s *Store) Get(key string) (int64, error) {
	ctx, cancel := s.opCtx()
	defer cancel()
	v, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ttlSeconds normalizes a duration to the whole seconds Redis expirations
// use, rounding up to at least one second.
func ttlSeconds(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl.Truncate(time.Second)
}
