package resilience_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-engine/internal/resilience"
)

func TestBreakerTransitions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	breaker := resilience.NewBreaker("test-transitions", 2, 0.5, time.Minute).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("test-transitions")))

	now = now.Add(time.Minute)
	require.True(t, breaker.Allow(ctx), "breaker should admit a probe after cool off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
	require.True(t, breaker.Allow(ctx))
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	breaker := resilience.NewBreaker("test-probe", 1, 1, time.Second).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())

	now = now.Add(time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerRejectedTotal.WithLabelValues("test-probe")))
}

func TestNilBreakerAllows(t *testing.T) {
	var breaker *resilience.Breaker
	require.True(t, breaker.Allow(context.Background()))
	breaker.Report(context.Background(), false)
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, base*4, resilience.Backoff(base, 3, 0))

	d := resilience.Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-(base*2/5))
	require.LessOrEqual(t, d, base*2+(base*2/5))
}
