// Package lock provides the project-scoped distributed mutex serializing
// conflicting flows across the whole deployment. Locks are held in the
// redis coordination backend and kept alive by a coordinator heartbeat.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "zoneflow:lock:"
	defaultTTL = 30 * time.Second
)

// ErrBackendUnavailable indicates the coordination backend could not be
// reached at coordinator construction time. This is a hard submission
// failure, distinct from lock contention.
var ErrBackendUnavailable = errors.New("lock coordination backend unavailable")

// AcquireError indicates the lock was still held after exhausting retries.
// Callers may retry the whole submission later.
type AcquireError struct {
	Name string
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("failed to acquire project lock %q", e.Name)
}

// IsAcquireError reports whether err is a lock contention failure.
func IsAcquireError(err error) bool {
	var acquireErr *AcquireError

	return errors.As(err, &acquireErr)
}

// Service builds per-submission coordinators. When locking is disabled by
// configuration, coordinators are no-ops that always succeed.
type Service struct {
	redisURL      string
	enabled       bool
	retryCount    int
	retryInterval time.Duration
	ttl           time.Duration
	logger        *slog.Logger
}

func NewService(redisURL string, enabled bool, retryCount int, retryInterval time.Duration, logger *slog.Logger) *Service {
	return &Service{
		redisURL:      redisURL,
		enabled:       enabled,
		retryCount:    retryCount,
		retryInterval: retryInterval,
		ttl:           defaultTTL,
		logger:        logger.With("module", "lock"),
	}
}

// NewCoordinator obtains a handle to the coordination backend with a fresh
// member id and starts the keepalive heartbeat. The caller must call Stop
// after use. Construction fails fast if the backend is unreachable.
func (s *Service) NewCoordinator(ctx context.Context) (*Coordinator, error) {
	coord := &Coordinator{
		memberID:      uuid.New().String(),
		enabled:       s.enabled,
		retryCount:    s.retryCount,
		retryInterval: s.retryInterval,
		ttl:           s.ttl,
		logger:        s.logger,
		held:          make(map[string]struct{}),
		stopCh:        make(chan struct{}),
	}

	if !s.enabled {
		return coord, nil
	}

	opts, err := redis.ParseURL(s.redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Error("Coordination backend unreachable", "error", err)
		_ = client.Close()

		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	coord.client = client
	coord.wg.Add(1)

	go coord.heartbeat()

	return coord, nil
}

// releaseScript deletes the lock key only if this coordinator still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Coordinator holds locks for a single submission.
type Coordinator struct {
	client        redis.UniversalClient
	memberID      string
	enabled       bool
	retryCount    int
	retryInterval time.Duration
	ttl           time.Duration
	logger        *slog.Logger

	mu   sync.Mutex
	held map[string]struct{}

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Acquire attempts a non-blocking lock grab, retrying up to the configured
// retry count with the configured sleep between attempts. It returns an
// AcquireError when the lock is still held by another member afterwards.
func (c *Coordinator) Acquire(ctx context.Context, name string) error {
	if !c.enabled {
		return nil
	}

	key := keyPrefix + name

	for attempt := 0; ; attempt++ {
		ok, err := c.client.SetNX(ctx, key, c.memberID, c.ttl).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}

		if ok {
			c.mu.Lock()
			c.held[key] = struct{}{}
			c.mu.Unlock()
			c.logger.Debug("Acquired project lock", "lock", name, "member", c.memberID)

			return nil
		}

		if attempt >= c.retryCount {
			return &AcquireError{Name: name}
		}

		select {
		case <-ctx.Done():
			return &AcquireError{Name: name}
		case <-time.After(c.retryInterval):
		}
	}
}

// Release gives the lock back best-effort. It returns false and logs on
// failure, never an error.
func (c *Coordinator) Release(ctx context.Context, name string) bool {
	if !c.enabled {
		return true
	}

	key := keyPrefix + name

	c.mu.Lock()
	delete(c.held, key)
	c.mu.Unlock()

	deleted, err := releaseScript.Run(ctx, c.client, []string{key}, c.memberID).Int()
	if err != nil {
		c.logger.Error("Failed to release project lock", "lock", name, "error", err)

		return false
	}

	if deleted == 0 {
		c.logger.Warn("Project lock was not held by this member on release", "lock", name)

		return false
	}

	c.logger.Debug("Released project lock", "lock", name, "member", c.memberID)

	return true
}

// Stop halts the heartbeat and closes the backend connection. Held locks
// expire via their TTL if Release was skipped.
func (c *Coordinator) Stop() {
	if !c.enabled {
		return
	}

	close(c.stopCh)
	c.wg.Wait()

	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close coordination backend connection", "error", err)
	}
}

func (c *Coordinator) heartbeat() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			keys := make([]string, 0, len(c.held))
			for key := range c.held {
				keys = append(keys, key)
			}
			c.mu.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), c.ttl/3)
			for _, key := range keys {
				if err := c.client.PExpire(ctx, key, c.ttl).Err(); err != nil {
					c.logger.Warn("Lock heartbeat failed", "key", key, "error", err)
				}
			}
			cancel()
		}
	}
}
