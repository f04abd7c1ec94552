package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rps float64, burst int) (*MemoryRateLimiter, *time.Time) {
	rl := NewMemoryRateLimiter(&Config{RPS: rps, Burst: burst, IdleTTL: time.Minute, CleanupPeriod: time.Hour})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestAllowConsumesBurstThenRefills(t *testing.T) {
	rl, clock := newTestLimiter(1, 2)
	defer rl.Close()

	ok, info := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	assert.Equal(t, 2, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, info = rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Second, info.RetryAfter)

	// other clients have their own bucket
	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)

	*clock = clock.Add(time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
}

func TestNewMemoryRateLimiterLeavesConfigUntouched(t *testing.T) {
	cfg := &Config{}
	rl := NewMemoryRateLimiter(cfg)
	defer rl.Close()

	assert.Equal(t, Config{}, *cfg)
	allowed, info := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Limit)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(1, 1)
	defer rl.Close()

	rl.Allow("a")
	*clock = clock.Add(30 * time.Second)
	rl.Allow("b")
	*clock = clock.Add(45 * time.Second)

	rl.cleanup()
	assert.Equal(t, 1, rl.Size())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.3")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}
