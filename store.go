package simpleratelimiter

import (
	"time"
)

// Store is the atomic counter backend a bucket lives in. Implementations
// must provide linearizable per-key increment and decrement; that is the
// only synchronization the limiter relies on. Redis satisfies the contract
// (see RadixStore and the goredis subpackage), and MemoryStore implements
// it in-process.
type Store interface {
	// Exists reports whether the key currently holds a value.
	Exists(key string) (bool, error)

	// Set unconditionally writes value and starts the expiration countdown.
	// TTLs are applied with second granularity.
	Set(key string, value int64, ttl time.Duration) error

	// Expire resets the expiration countdown without touching the value.
	// Expiring an absent key is a no-op.
	Expire(key string, ttl time.Duration) error

	// Decr atomically decrements the value by 1 and returns the new value.
	// An absent key counts down from zero.
	Decr(key string) (int64, error)

	// Incr atomically increments the value by 1 and returns the new value.
	// An absent key counts up from zero.
	Incr(key string) (int64, error)

	// Get reads the current value with no side effects. An absent key
	// reads as 0.
	Get(key string) (int64, error)
}
