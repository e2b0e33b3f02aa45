package simpleratelimiter

import (
	"time"

	"github.com/mediocregopher/radix/v3"
)

// RadixStore implements Store over a radix Redis client (pool, cluster or
// sentinel). Every Store operation maps to a single Redis command, so the
// atomicity the limiter needs comes directly from DECR and INCR.
type RadixStore struct {
	client radix.Client
}

var _ Store = (*RadixStore)(nil)

// NewRadixStore dials a connection pool to the given address. A failure to
// connect surfaces here, not on the first operation.
func NewRadixStore(network, addr string, size int, opts ...radix.PoolOpt) (*RadixStore, error) {
	pool, err := radix.NewPool(network, addr, size, opts...)
	if err != nil {
		return nil, err
	}
	return &RadixStore{client: pool}, nil
}

// NewRadixStoreWithClient wraps an existing radix client. Close then closes
// that client.
func NewRadixStoreWithClient(client radix.Client) *RadixStore {
	return &RadixStore{client: client}
}

// Exists reports whether key holds a value.
func (s *RadixStore) Exists(key string) (bool, error) {
	var n int
	if err := s.client.Do(radix.Cmd(&n, "EXISTS", key)); err != nil {
		return false, err
	}
	return n == 1, nil
}

// Set writes value and starts the expiration countdown.
func (s *RadixStore) Set(key string, value int64, ttl time.Duration) error {
	return s.client.Do(radix.FlatCmd(nil, "SET", key, value, "EX", ttlSeconds(ttl)))
}

// Expire resets the expiration countdown without touching the value.
func (s *RadixStore) Expire(key string, ttl time.Duration) error {
	return s.client.Do(radix.FlatCmd(nil, "EXPIRE", key, ttlSeconds(ttl)))
}

// Decr atomically decrements key by 1 and returns the new value.
func (s *RadixStore) Decr(key string) (int64, error) {
	var v int64
	if err := s.client.Do(radix.Cmd(&v, "DECR", key)); err != nil {
		return 0, err
	}
	return v, nil
}

// Incr atomically increments key by 1 and returns the new value.
func (s *RadixStore) Incr(key string) (int64, error) {
	var v int64
	if err := s.client.Do(radix.Cmd(&v, "INCR", key)); err != nil {
		return 0, err
	}
	return v, nil
}

// Get reads the current value; an absent key reads as 0.
func (s *RadixStore) Get(key string) (int64, error) {
	var v int64
	mn := radix.MaybeNil{Rcv: &v}
	if err := s.client.Do(radix.Cmd(&mn, "GET", key)); err != nil {
		return 0, err
	}
	if mn.Nil {
		return 0, nil
	}
	return v, nil
}

// Close shuts down the underlying client.
func (s *RadixStore) Close() error {
	return s.client.Close()
}

// ttlSeconds converts a duration to the whole seconds Redis expirations
// use, rounding up to at least one second.
func ttlSeconds(ttl time.Duration) int64 {
	s := int64(ttl / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
