package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDisabledCoordinatorIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := NewService("", false, 2, time.Millisecond, testLogger())

	coord, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer coord.Stop()

	require.NoError(t, coord.Acquire(ctx, "project-1"))
	require.NoError(t, coord.Acquire(ctx, "project-1"), "disabled locks never contend")
	assert.True(t, coord.Release(ctx, "project-1"))
	assert.True(t, coord.Release(ctx, "never-acquired"))
}

func TestMalformedRedisURLFailsFast(t *testing.T) {
	t.Parallel()

	service := NewService("not-a-redis-url", true, 2, time.Millisecond, testLogger())

	_, err := service.NewCoordinator(context.Background())
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestUnreachableBackendFailsFast(t *testing.T) {
	t.Parallel()

	// Port 1 is reserved and nothing listens there.
	service := NewService("redis://127.0.0.1:1/0", true, 2, time.Millisecond, testLogger())

	_, err := service.NewCoordinator(context.Background())
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.False(t, IsAcquireError(err), "backend outage is not lock contention")
}

func TestIsAcquireError(t *testing.T) {
	t.Parallel()

	err := &AcquireError{Name: "project-1"}
	assert.True(t, IsAcquireError(err))
	assert.Contains(t, err.Error(), "project-1")

	wrapped := errors.Join(errors.New("submit failed"), err)
	assert.True(t, IsAcquireError(wrapped))

	assert.False(t, IsAcquireError(errors.New("something else")))
	assert.False(t, IsAcquireError(ErrBackendUnavailable))
}
