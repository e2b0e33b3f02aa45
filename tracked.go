package simpleratelimiter

import (
	"time"

	"go.uber.org/atomic"
)

// Metric names forwarded to a Recorder.
const (
	metricAcquireGranted = "ratelimit_acquire_granted"
	metricAcquireDenied  = "ratelimit_acquire_denied"
	metricAcquireErrors  = "ratelimit_acquire_errors"
	metricAcquireSeconds = "ratelimit_acquire_seconds"
	metricReleases       = "ratelimit_releases"
	metricReleaseErrors  = "ratelimit_release_errors"
)

// Recorder receives counter increments and latency observations from a
// TrackedLimiter. Implementations adapt it to whatever metrics system the
// application runs.
type Recorder interface {
	Add(name string, value float64)
	Observe(name string, seconds float64)
}

// NopRecorder discards all observations, so the hot path never has to
// check for a missing recorder.
type NopRecorder struct{}

func (NopRecorder) Add(string, float64)     {}
func (NopRecorder) Observe(string, float64) {}

// TrackedCounts is a point-in-time snapshot of a TrackedLimiter.
type TrackedCounts struct {
	Granted       int64
	Denied        int64
	AcquireErrors int64
	Releases      int64
	ReleaseErrors int64
}

// TrackedLimiter wraps a Limiter and counts its outcomes: grants, denials
// and store errors on the acquire side, successes and errors on the
// release side. Counts are always kept internally for Snapshot; pass a
// Recorder to forward them to a metrics system as well.
type TrackedLimiter struct {
	wrapped  Limiter
	recorder Recorder

	granted       atomic.Int64
	denied        atomic.Int64
	acquireErrors atomic.Int64
	releases      atomic.Int64
	releaseErrors atomic.Int64
}

var _ Limiter = (*TrackedLimiter)(nil)

// NewTrackedLimiter wraps limiter. A nil recorder keeps counting internal.
func NewTrackedLimiter(limiter Limiter, recorder Recorder) *TrackedLimiter {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &TrackedLimiter{wrapped: limiter, recorder: recorder}
}

// Acquire delegates to the wrapped limiter and records the outcome and
// the call latency, which includes any throttling sleep.
func (t *TrackedLimiter) Acquire() (bool, error) {
	start := time.Now()
	ok, err := t.wrapped.Acquire()
	t.recorder.Observe(metricAcquireSeconds, time.Since(start).Seconds())
	switch {
	case err != nil:
		t.acquireErrors.Inc()
		t.recorder.Add(metricAcquireErrors, 1)
	case ok:
		t.granted.Inc()
		t.recorder.Add(metricAcquireGranted, 1)
	default:
		t.denied.Inc()
		t.recorder.Add(metricAcquireDenied, 1)
	}
	return ok, err
}

// Release delegates to the wrapped limiter and records the outcome.
func (t *TrackedLimiter) Release() error {
	err := t.wrapped.Release()
	if err != nil {
		t.releaseErrors.Inc()
		t.recorder.Add(metricReleaseErrors, 1)
		return err
	}
	t.releases.Inc()
	t.recorder.Add(metricReleases, 1)
	return nil
}

// Snapshot returns the current counts.
func (t *TrackedLimiter) Snapshot() TrackedCounts {
	return TrackedCounts{
		Granted:       t.granted.Load(),
		Denied:        t.denied.Load(),
		AcquireErrors: t.acquireErrors.Load(),
		Releases:      t.releases.Load(),
		ReleaseErrors: t.releaseErrors.Load(),
	}
}
