package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var redisContainer *tcredis.RedisContainer

// setupLockService starts a shared redis container and returns an enabled
// service pointed at it. Retries are tuned down so contention tests finish
// quickly.
func setupLockService(t *testing.T) (*Service, context.Context) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	t.Cleanup(cancel)

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error

		redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
		require.NoError(t, err)
	}

	redisURL, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	return NewService(redisURL, true, 1, 20*time.Millisecond, testLogger()), ctx
}

func TestMutualExclusionUnderContention(t *testing.T) {
	service, ctx := setupLockService(t)

	first, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer first.Stop()

	second, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer second.Stop()

	lockName := "project-contention-" + t.Name()

	require.NoError(t, first.Acquire(ctx, lockName))

	err = second.Acquire(ctx, lockName)
	require.Error(t, err)
	assert.True(t, IsAcquireError(err), "a held lock surfaces as contention, not a backend failure")

	assert.True(t, first.Release(ctx, lockName))
	require.NoError(t, second.Acquire(ctx, lockName), "a released lock is immediately acquirable")
	assert.True(t, second.Release(ctx, lockName))
}

func TestReleaseOnlyByOwner(t *testing.T) {
	service, ctx := setupLockService(t)

	owner, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer owner.Stop()

	other, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer other.Stop()

	lockName := "project-ownership-" + t.Name()

	require.NoError(t, owner.Acquire(ctx, lockName))

	// A coordinator that does not hold the lock cannot free it.
	assert.False(t, other.Release(ctx, lockName))
	assert.True(t, IsAcquireError(other.Acquire(ctx, lockName)), "lock survives a foreign release attempt")

	assert.True(t, owner.Release(ctx, lockName))
	assert.False(t, owner.Release(ctx, lockName), "second release of the same lock reports not held")
}

func TestHeartbeatOutlivesTTL(t *testing.T) {
	service, ctx := setupLockService(t)
	service.ttl = 500 * time.Millisecond

	holder, err := service.NewCoordinator(ctx)
	require.NoError(t, err)

	contender, err := service.NewCoordinator(ctx)
	require.NoError(t, err)
	defer contender.Stop()

	lockName := "project-heartbeat-" + t.Name()

	require.NoError(t, holder.Acquire(ctx, lockName))

	// Well past the TTL the heartbeat must still be keeping the lock alive.
	time.Sleep(3 * service.ttl)
	assert.True(t, IsAcquireError(contender.Acquire(ctx, lockName)),
		"lock held across multiple TTL windows while the holder runs")

	// Once the holder stops without releasing, the TTL reclaims the lock.
	holder.Stop()
	time.Sleep(2 * service.ttl)
	require.NoError(t, contender.Acquire(ctx, lockName))
	assert.True(t, contender.Release(ctx, lockName))
}
