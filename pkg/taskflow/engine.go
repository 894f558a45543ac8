package taskflow

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/otelhelper"
)

// SubmitRequest carries one flow submission into the engine.
type SubmitRequest struct {
	FlowName string
	Project  *models.Project
	FlowData map[string]any
	Mode     Mode
	// LockOverride forces locking on or off for this submission. Nil
	// defers to the flow's own RequireLock.
	LockOverride *bool
}

// Engine validates, locks, builds and runs flows. It holds no per-flow
// state; a single engine serves all submissions concurrently.
type Engine struct {
	registry *Registry
	locks    *lock.Service
	tracer   trace.Tracer
	logger   *slog.Logger
}

func NewEngine(registry *Registry, locks *lock.Service, logger *slog.Logger) *Engine {
	return &Engine{
		registry: registry,
		locks:    locks,
		tracer:   otel.Tracer("zoneflow.taskflow"),
		logger:   logger.With("module", "taskflow"),
	}
}

// Registry exposes the flow registry, for listing available flows.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Submit runs one flow submission end to end.
//
// Validation failures surface before any side effect. When the flow asks
// for locking, the project lock is acquired before Build and released after
// Run, success or not; a lock that cannot be obtained marks the flow failed
// without running any task. Build and Run failures are wrapped in a
// SubmitError after the flow has compensated its applied tasks.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (any, error) {
	ctx, span := e.tracer.Start(ctx, "taskflow.submit",
		trace.WithAttributes(
			attribute.String(otelhelper.FlowNameKey, req.FlowName),
			attribute.String(otelhelper.FlowModeKey, string(req.Mode)),
		))
	defer span.End()

	flow, err := e.registry.Create(req.FlowName, req.Project, req.FlowData)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := flow.Validate(req.Mode); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	requireLock := flow.RequireLock()
	if req.LockOverride != nil {
		requireLock = *req.LockOverride
	}

	if requireLock {
		release, err := e.acquireLock(ctx, flow, req.Project.UUID)
		if err != nil {
			otelhelper.SetError(span, err, attribute.String(otelhelper.ProjectIDKey, req.Project.UUID))

			return nil, err
		}
		defer release()
	}

	if err := flow.Build(ctx); err != nil {
		e.logger.Error("Flow build failed", "flow", req.FlowName, "error", err)
		flow.MarkFailed(ctx, fmt.Sprintf("Failed to build flow: %v", err))
		otelhelper.SetError(span, err)

		return nil, &SubmitError{FlowName: req.FlowName, Err: err}
	}

	result, err := flow.Run(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, &SubmitError{FlowName: req.FlowName, Err: err}
	}

	e.logger.Info("Flow completed", "flow", req.FlowName, "project", req.Project.UUID)

	return result, nil
}

// acquireLock obtains the project lock for the duration of the flow. Both
// failure modes (backend down, lock contention) mark the flow failed since
// no task will run.
func (e *Engine) acquireLock(ctx context.Context, flow Flow, projectUUID string) (func(), error) {
	coord, err := e.locks.NewCoordinator(ctx)
	if err != nil {
		flow.MarkFailed(ctx, fmt.Sprintf("Failed to reach lock coordination backend: %v", err))

		return nil, err
	}

	if err := coord.Acquire(ctx, projectUUID); err != nil {
		flow.MarkFailed(ctx, fmt.Sprintf("Failed to acquire project lock: %v", err))
		coord.Stop()

		return nil, err
	}

	release := func() {
		coord.Release(context.WithoutCancel(ctx), projectUUID)
		coord.Stop()
	}

	return release, nil
}
