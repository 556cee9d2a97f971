package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	release, err := l.Acquire(ctx, "user:1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "user:1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := l.Acquire(ctx, "user:2", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.Acquire(ctx, "user:1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestMemoryLockerExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	l := NewMemoryLocker()
	l.now = func() time.Time { return now }

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// The expired holder must not free the new lease.
	stale()
	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrLockHeld)
	fresh()
}
