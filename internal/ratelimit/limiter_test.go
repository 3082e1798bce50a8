package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_SerializesAtConfiguredRate(t *testing.T) {
	l := New(10) // 10 rps -> 100ms between admissions
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	start := time.Now()
	require.NoError(t, l.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestLimiter_AcquireBounded_Throttles(t *testing.T) {
	l := New(1) // 1 rps
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	err := l.AcquireBounded(ctx, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrThrottled)
}

func TestLimiter_AcquireBounded_SucceedsWithinWindow(t *testing.T) {
	l := New(1000) // effectively 1ms between admissions
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	err := l.AcquireBounded(ctx, 50*time.Millisecond)
	assert.NoError(t, err)
}

func TestManager_UnknownSourceUnthrottled(t *testing.T) {
	m := NewManager(map[string]float64{"arxiv": 1})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Acquire(ctx, "unregistered-source"))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
