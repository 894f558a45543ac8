// Package taskflow implements the flow task primitive and the linear flow
// engine moving landing zones through their lifecycle as saga transactions
// against the storage backend.
package taskflow

import (
	"context"
	"errors"
	"log/slog"
)

// ErrForceFail is returned by a task whose ForceFail flag is set. Used by
// tests to inject faults at arbitrary positions in a flow.
var ErrForceFail = errors.New("task force_fail flag set")

// Task is one reversible unit of storage backend mutation within a flow.
//
// Run performs the external mutation at most once per flow run; its result
// value is available to the caller through the flow result. Revert is the
// best-effort compensating action: it must be safe to call even if Run
// partially failed, and it must not propagate errors (failures are logged,
// never raised, so they cannot mask the original error).
type Task interface {
	Name() string
	Run(ctx context.Context) (any, error)
	Revert(ctx context.Context)
}

// BaseTask carries the pieces every task shares. Concrete tasks embed it
// and implement Run (and Revert where a compensating action exists).
type BaseTask struct {
	TaskName  string
	ForceFail bool
	Logger    *slog.Logger
}

func (t *BaseTask) Name() string {
	return t.TaskName
}

// Precheck returns ErrForceFail when fault injection is requested. Every
// Run implementation calls it first.
func (t *BaseTask) Precheck() error {
	if t.ForceFail {
		return ErrForceFail
	}

	return nil
}

// Revert is a no-op for tasks without external side effects.
func (t *BaseTask) Revert(_ context.Context) {}
