// Package notify dispatches zone status transitions to notification hooks.
// Hooks are side channels (in-app alerts, bus events); a hook failure is
// logged and never propagates into the transition that triggered it.
package notify

import (
	"context"
	"log/slog"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// StatusChange describes one persisted zone status transition.
type StatusChange struct {
	Zone     *models.LandingZone
	Project  *models.Project
	Prev     models.ZoneStatus
	FlowName string
	// Extra carries flow-specific context such as file_count and
	// user_message from a completed move.
	Extra map[string]any
}

// OwnerRelevant reports whether the transition ends an operation the zone
// owner is waiting on. It keys on the transition target: any arrival in a
// non-busy status is an outcome, including a failure before the first task
// ran. Transitions out of CREATING are excluded since zone creation reports
// its outcome directly to the caller.
func (c StatusChange) OwnerRelevant() bool {
	return !c.Zone.Status.Busy() && c.Prev != models.ZoneStatusCreating
}

// FileCount returns the moved file count from the extra context.
func (c StatusChange) FileCount() int {
	switch v := c.Extra["file_count"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Hook receives status changes. Implementations decide relevance themselves
// and must tolerate being called for every transition.
type Hook interface {
	Name() string
	Notify(ctx context.Context, change StatusChange) error
}

// Dispatcher fans a status change out to every registered hook. Each hook
// runs inside its own error and panic boundary.
type Dispatcher struct {
	hooks  []Hook
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger, hooks ...Hook) *Dispatcher {
	return &Dispatcher{
		hooks:  hooks,
		logger: logger.With("module", "notify"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, change StatusChange) {
	for _, hook := range d.hooks {
		d.run(ctx, hook, change)
	}
}

func (d *Dispatcher) run(ctx context.Context, hook Hook, change StatusChange) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Notification hook panicked",
				"hook", hook.Name(), "zone", change.Zone.UUID, "panic", r)
		}
	}()

	if err := hook.Notify(ctx, change); err != nil {
		d.logger.Error("Notification hook failed",
			"hook", hook.Name(), "zone", change.Zone.UUID, "error", err)
	}
}
