package http

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/complaint-intake/internal/infra/config"
)

func TestRateLimiterSweepsIdleCallersOncePerTTL(t *testing.T) {
	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	now := start
	limiter := newRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 5})
	limiter.now = func() time.Time { return now }

	at := func(offset time.Duration, key string) {
		now = start.Add(offset)
		allowed, _ := limiter.allow(key)
		require.True(t, allowed, key)
	}

	at(0, "ip:x")
	at(4*time.Minute, "ip:a")
	at(5*time.Minute, "ip:b")

	// x and a are idle past the ttl, but the last sweep was under a ttl ago.
	at(9*time.Minute+30*time.Second, "ip:c")
	require.Equal(t, []string{"ip:a", "ip:b", "ip:c", "ip:x"}, callerKeys(limiter))
	require.Equal(t, start.Add(5*time.Minute), limiter.lastSweep)

	at(10*time.Minute, "ip:d")
	require.Equal(t, []string{"ip:b", "ip:c", "ip:d"}, callerKeys(limiter))
	require.Equal(t, start.Add(10*time.Minute), limiter.lastSweep)
}

func TestRateLimiterReportsWaitWhenEmpty(t *testing.T) {
	now := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 30, Burst: 1})
	limiter.now = func() time.Time { return now }

	allowed, _ := limiter.allow("jwt:svc")
	require.True(t, allowed)
	allowed, wait := limiter.allow("jwt:svc")
	require.False(t, allowed)
	require.InDelta(t, float64(2*time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(3 * time.Second)
	allowed, _ = limiter.allow("jwt:svc")
	require.True(t, allowed)
}

func callerKeys(l *rateLimiter) []string {
	keys := make([]string, 0, len(l.callers))
	for key := range l.callers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
