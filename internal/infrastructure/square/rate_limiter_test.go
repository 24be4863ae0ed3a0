package square

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perSecond, perMinute int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl, err := NewRateLimiter(perSecond, perMinute)
	require.NoError(t, err)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestNewRateLimiterRejectsInvalidCeilings(t *testing.T) {
	_, err := NewRateLimiter(0, 60)
	assert.Error(t, err)
	_, err = NewRateLimiter(10, -1)
	assert.Error(t, err)
}

func TestRateLimiterPerSecondCeiling(t *testing.T) {
	rl, now := newTestLimiter(t, 2, 100)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "third call inside the same second must be denied")

	status := rl.CanProceed()
	assert.False(t, status.Allowed)
	assert.Equal(t, 2, status.RequestsInLastSecond)
	assert.Equal(t, 2, status.RequestsInLastMinute)

	// The second window slides.
	*now = now.Add(1100 * time.Millisecond)
	status = rl.CanProceed()
	assert.True(t, status.Allowed)
	assert.Equal(t, 0, status.RequestsInLastSecond)
	assert.Equal(t, 2, status.RequestsInLastMinute)
}

func TestRateLimiterPerMinuteCeiling(t *testing.T) {
	rl, now := newTestLimiter(t, 10, 5)

	// Spread calls so the per-second ceiling never trips.
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow())
		*now = now.Add(2 * time.Second)
	}
	assert.False(t, rl.Allow(), "sixth call inside the minute must be denied")

	// Oldest call falls out of the minute window.
	*now = now.Add(51 * time.Second)
	assert.True(t, rl.Allow())
}

func TestRateLimiterWindowNeverExceedsCeilings(t *testing.T) {
	rl, now := newTestLimiter(t, 3, 20)

	// Hammer the limiter over a simulated two minutes and assert the
	// window counts never exceed either ceiling at any observation point.
	for step := 0; step < 600; step++ {
		rl.Allow()
		status := rl.CanProceed()
		assert.LessOrEqual(t, status.RequestsInLastSecond, 3)
		assert.LessOrEqual(t, status.RequestsInLastMinute, 20)
		*now = now.Add(200 * time.Millisecond)
	}
}

func TestRateLimiterRecordCallCountsAgainstWindow(t *testing.T) {
	rl, _ := newTestLimiter(t, 5, 100)

	rl.RecordCall()
	rl.RecordCall()

	status := rl.CanProceed()
	assert.True(t, status.Allowed)
	assert.Equal(t, 2, status.RequestsInLastSecond)
	assert.Equal(t, 2, status.RequestsInLastMinute)
}
