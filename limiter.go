package simpleratelimiter

import (
	"errors"
	"fmt"
	"time"
)

// Limiter grants and returns permits from a shared bucket.
type Limiter interface {
	// Acquire takes one token. False means the bucket is out of capacity;
	// an error is returned only for store failures, never for denial.
	Acquire() (bool, error)
	// Release returns one token.
	Release() error
}

// Config describes a bucket's capacity, lifetime and throttling behavior.
type Config struct {
	// MaxTokens is the bucket capacity, the number of permits that can be
	// held at once across every process sharing the key.
	MaxTokens int64

	// TTL is the inactivity window after which the store forgets the
	// bucket. Only construction refreshes it; Acquire and Release do not.
	// Applied with second granularity.
	TTL time.Duration

	// UseDelay enables the proportional throttling sleep inside Acquire.
	UseDelay bool

	// MinDelay and MaxDelay bound the throttling sleep. A full bucket
	// delays callers by MinDelay, an empty or overdrawn one by MaxDelay.
	MinDelay time.Duration
	MaxDelay time.Duration

	// ClampRelease undoes increments that would push the counter above
	// MaxTokens. Off by default: unmatched or double releases overfilling
	// the bucket are the caller's responsibility.
	ClampRelease bool
}

// DefaultConfig returns the standard configuration: 10 tokens, a one
// minute bucket lifetime, and throttling delays between 0 and 500ms.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 10,
		TTL:       time.Minute,
		UseDelay:  true,
		MinDelay:  0,
		MaxDelay:  500 * time.Millisecond,
	}
}

// TokenBucketLimiter is an admission-control primitive shared by any
// number of processes: the bucket is a single integer counter in the
// store, decremented on Acquire and incremented on Release. Instances are
// immutable after construction and safe for concurrent use; all
// synchronization happens through the store's atomic counter ops.
type TokenBucketLimiter struct {
	store Store
	key   string

	maxTokens    int64
	useDelay     bool
	clampRelease bool

	// Delay bounds are kept in integer microseconds so the per-call delay
	// computation never touches floating point.
	minDelayMicros int64
	maxDelayMicros int64

	sleep func(time.Duration)
}

var _ Limiter = (*TokenBucketLimiter)(nil)

// New connects a limiter to its bucket, creating the bucket at full
// capacity when absent and refreshing its expiration when already present.
// The stored value is never reset: the counter is shared state co-managed
// by every instance pointing at the same key. Store failures here are
// construction errors, not rate-limit decisions.
func New(store Store, key string, cfg Config) (*TokenBucketLimiter, error) {
	if store == nil {
		return nil, errors.New("nil store")
	}
	if key == "" {
		return nil, errors.New("empty bucket key")
	}
	if cfg.MaxTokens < 1 {
		return nil, fmt.Errorf("invalid max tokens: %d; must be >= 1", cfg.MaxTokens)
	}
	if cfg.TTL < time.Second {
		return nil, fmt.Errorf("invalid ttl: %s; must be >= 1s", cfg.TTL)
	}
	if cfg.MinDelay < 0 {
		return nil, fmt.Errorf("invalid min delay: %s; must be >= 0", cfg.MinDelay)
	}
	if cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("invalid max delay: %s; must be >= min delay (%s)", cfg.MaxDelay, cfg.MinDelay)
	}

	l := &TokenBucketLimiter{
		store:          store,
		key:            key,
		maxTokens:      cfg.MaxTokens,
		useDelay:       cfg.UseDelay,
		clampRelease:   cfg.ClampRelease,
		minDelayMicros: cfg.MinDelay.Microseconds(),
		maxDelayMicros: cfg.MaxDelay.Microseconds(),
		sleep:          time.Sleep,
	}
	if err := l.initBucket(cfg.TTL); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *TokenBucketLimiter) initBucket(ttl time.Duration) error {
	exists, err := l.store.Exists(l.key)
	if err != nil {
		return fmt.Errorf("init bucket %q: %w", l.key, err)
	}
	if !exists {
		// Two cold-start instances can both land here; both write the same
		// full-capacity value, so the check-then-act race is harmless.
		if err := l.store.Set(l.key, l.maxTokens, ttl); err != nil {
			return fmt.Errorf("init bucket %q: %w", l.key, err)
		}
		return nil
	}
	if err := l.store.Expire(l.key, ttl); err != nil {
		return fmt.Errorf("init bucket %q: %w", l.key, err)
	}
	return nil
}

// Acquire takes one token from the bucket. It returns false when the
// bucket is empty, restoring the counter before returning so a denied
// caller never shrinks capacity. With UseDelay the caller is first slept
// for a duration proportional to how much of the bucket is consumed; the
// denied path sleeps the full MaxDelay.
func (l *TokenBucketLimiter) Acquire() (bool, error) {
	v, err := l.store.Decr(l.key)
	if err != nil {
		return false, fmt.Errorf("acquire %q: %w", l.key, err)
	}
	if l.useDelay {
		// v is a momentary snapshot; under concurrent traffic the delay is
		// a best-effort throttle, not an exact occupancy function.
		l.sleep(l.delayFor(v))
	}
	if v < 0 {
		if _, err := l.store.Incr(l.key); err != nil {
			return false, fmt.Errorf("acquire %q: restore token: %w", l.key, err)
		}
		return false, nil
	}
	return true, nil
}

// delayFor maps the post-decrement counter value to a sleep duration,
// scaling linearly from MinDelay at a full bucket to MaxDelay at an empty
// one. The proportion is clamped at 1 but has no lower clamp: a counter
// pushed above capacity by unmatched releases yields a delay below
// MinDelay, possibly negative, which sleeps zero time.
func (l *TokenBucketLimiter) delayFor(v int64) time.Duration {
	consumed := l.maxTokens - v - 1
	micros := l.maxDelayMicros
	if l.maxTokens > 1 && consumed < l.maxTokens-1 {
		micros = l.minDelayMicros + (l.maxDelayMicros-l.minDelayMicros)*consumed/(l.maxTokens-1)
	}
	return time.Duration(micros) * time.Microsecond
}

// Release returns one token to the bucket. Nothing pairs releases with
// acquisitions: without ClampRelease an unmatched Release pushes the
// counter above MaxTokens.
func (l *TokenBucketLimiter) Release() error {
	v, err := l.store.Incr(l.key)
	if err != nil {
		return fmt.Errorf("release %q: %w", l.key, err)
	}
	if l.clampRelease && v > l.maxTokens {
		if _, err := l.store.Decr(l.key); err != nil {
			return fmt.Errorf("release %q: clamp: %w", l.key, err)
		}
	}
	return nil
}

// FreeTokens reads the raw counter value for diagnostics. No clamping is
// applied: under concurrent traffic the value can be transiently negative
// or, with unmatched releases, above MaxTokens.
func (l *TokenBucketLimiter) FreeTokens() (int64, error) {
	v, err := l.store.Get(l.key)
	if err != nil {
		return 0, fmt.Errorf("free tokens %q: %w", l.key, err)
	}
	return v, nil
}
