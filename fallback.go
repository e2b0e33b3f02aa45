package simpleratelimiter

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FallbackLimiter keeps admitting traffic when the shared store is down.
// Verdicts from the primary limiter pass through untouched; only a store
// ERROR (never a denial) reroutes the decision to a process-local
// rate.Limiter, so an outage degrades to per-process limiting instead of
// failing every caller. Local limits are approximate by nature: with R
// replicas the effective limit during an outage is R times the local one.
type FallbackLimiter struct {
	primary Limiter
	local   *rate.Limiter
	logger  *zap.Logger
}

// NewFallbackLimiter wraps primary with the given local fallback. A nil
// logger disables logging.
func NewFallbackLimiter(primary Limiter, local *rate.Limiter, logger *zap.Logger) *FallbackLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackLimiter{primary: primary, local: local, logger: logger}
}

// Acquire reports whether the caller may proceed. On success it returns a
// release function that must be called exactly once when the work is done;
// the function pairs with whichever limiter granted the permit. On denial
// the release function is nil.
func (f *FallbackLimiter) Acquire() (release func(), ok bool) {
	granted, err := f.primary.Acquire()
	if err == nil {
		if !granted {
			return nil, false
		}
		return f.releasePrimary, true
	}

	f.logger.Warn("shared limiter unavailable, using local fallback", zap.Error(err))
	if !f.local.Allow() {
		return nil, false
	}
	// Local tokens refill on their own; there is nothing to return.
	return func() {}, true
}

func (f *FallbackLimiter) releasePrimary() {
	if err := f.primary.Release(); err != nil {
		f.logger.Error("token release failed", zap.Error(err))
	}
}
