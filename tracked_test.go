package simpleratelimiter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecorder remembers every observation it receives.
type testRecorder struct {
	mu       sync.Mutex
	adds     map[string]float64
	observed []float64
}

func newTestRecorder() *testRecorder {
	return &testRecorder{adds: make(map[string]float64)}
}

func (r *testRecorder) Add(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adds[name] += value
}

func (r *testRecorder) Observe(name string, seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, seconds)
}

func (r *testRecorder) added(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adds[name]
}

func TestTrackedLimiterCountsOutcomes(t *testing.T) {
	store := NewMemoryStore()
	inner := newTestLimiter(t, store, "tracked:counts", noDelayConfig(2))
	rec := newTestRecorder()
	tl := NewTrackedLimiter(inner, rec)

	for i := 0; i < 2; i++ {
		ok, err := tl.Acquire()
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := tl.Acquire()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tl.Release())

	counts := tl.Snapshot()
	assert.Equal(t, int64(2), counts.Granted)
	assert.Equal(t, int64(1), counts.Denied)
	assert.Equal(t, int64(0), counts.AcquireErrors)
	assert.Equal(t, int64(1), counts.Releases)
	assert.Equal(t, int64(0), counts.ReleaseErrors)

	assert.Equal(t, float64(2), rec.added(metricAcquireGranted))
	assert.Equal(t, float64(1), rec.added(metricAcquireDenied))
	assert.Equal(t, float64(1), rec.added(metricReleases))
	assert.Len(t, rec.observed, 3)
}

func TestTrackedLimiterCountsErrors(t *testing.T) {
	inner := NewMemoryStore()
	l := newTestLimiter(t, inner, "tracked:errors", noDelayConfig(2))
	l.store = &failStore{inner: inner, failOn: "decr"}

	rec := newTestRecorder()
	tl := NewTrackedLimiter(l, rec)

	_, err := tl.Acquire()
	require.Error(t, err)

	l.store = &failStore{inner: inner, failOn: "incr"}
	require.Error(t, tl.Release())

	counts := tl.Snapshot()
	assert.Equal(t, int64(1), counts.AcquireErrors)
	assert.Equal(t, int64(1), counts.ReleaseErrors)
	assert.Equal(t, int64(0), counts.Granted)
	assert.Equal(t, int64(0), counts.Releases)
	assert.Equal(t, float64(1), rec.added(metricAcquireErrors))
	assert.Equal(t, float64(1), rec.added(metricReleaseErrors))
}

func TestTrackedLimiterNilRecorder(t *testing.T) {
	store := NewMemoryStore()
	inner := newTestLimiter(t, store, "tracked:nil", noDelayConfig(1))
	tl := NewTrackedLimiter(inner, nil)

	ok, err := tl.Acquire()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, int64(1), tl.Snapshot().Granted)
}
