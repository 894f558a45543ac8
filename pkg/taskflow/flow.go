package taskflow

import (
	"context"
	"fmt"
	"log/slog"
)

// Mode selects the execution context of a submission.
type Mode string

const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// Flow is a named, ordered sequence of tasks executed as one logical saga
// transaction. Flows are constructed per submission and never persisted.
type Flow interface {
	Name() string
	RequireLock() bool
	// Validate checks required flow data fields and mode support. Called
	// before any side effect.
	Validate(mode Mode) error
	// Build populates the task list. It may read external state and fail.
	Build(ctx context.Context) error
	// Run executes tasks strictly in order, compensating applied tasks in
	// reverse order on failure.
	Run(ctx context.Context) (any, error)
	// MarkFailed moves the flow's landing zone (if any) into its
	// failure-appropriate status with the given reason. Called by the
	// engine when Build or lock acquisition fails before any task ran.
	MarkFailed(ctx context.Context, reason string)
}

// BaseFlow implements the ordered task list and the saga compensation
// stack shared by every named flow.
type BaseFlow struct {
	FlowName string
	FlowData map[string]any
	Required []string
	Modes    []Mode
	Lock     bool
	Logger   *slog.Logger

	tasks   []Task
	applied []Task
	result  any
	lastErr error
}

func (f *BaseFlow) Name() string {
	return f.FlowName
}

func (f *BaseFlow) RequireLock() bool {
	return f.Lock
}

// Validate checks that every required field is present in the flow data
// and that the requested mode is supported.
func (f *BaseFlow) Validate(mode Mode) error {
	for _, field := range f.Required {
		if _, ok := f.FlowData[field]; !ok {
			return fmt.Errorf("%w: %q in flow %q", ErrMissingField, field, f.FlowName)
		}
	}

	for _, m := range f.Modes {
		if m == mode {
			return nil
		}
	}

	return fmt.Errorf("%w: %q for flow %q", ErrUnsupportedMode, mode, f.FlowName)
}

// AddTask appends a task; tasks execute strictly in insertion order.
func (f *BaseFlow) AddTask(task Task) {
	f.tasks = append(f.tasks, task)
}

// TaskCount reports the number of built tasks.
func (f *BaseFlow) TaskCount() int {
	return len(f.tasks)
}

// Run executes every task in order, stopping at the first failure. Each
// task that returns successfully is pushed onto the compensation stack; on
// failure the stack is popped and reverted in exact reverse order, then the
// original error is returned. The failing task itself is never reverted.
func (f *BaseFlow) Run(ctx context.Context) (any, error) {
	for _, task := range f.tasks {
		f.Logger.Debug("Running flow task", "flow", f.FlowName, "task", task.Name())

		result, err := task.Run(ctx)
		if err != nil {
			f.Logger.Error("Flow task failed, reverting applied tasks",
				"flow", f.FlowName, "task", task.Name(), "error", err)
			f.lastErr = err
			f.revert(ctx)

			return nil, fmt.Errorf("task %q failed: %w", task.Name(), err)
		}

		f.applied = append(f.applied, task)

		if result != nil {
			f.result = result
		}
	}

	return f.result, nil
}

// revert pops the compensation stack, swallowing (and logging) anything a
// Revert implementation lets escape so the original error is preserved.
func (f *BaseFlow) revert(ctx context.Context) {
	for i := len(f.applied) - 1; i >= 0; i-- {
		task := f.applied[i]

		func() {
			defer func() {
				if r := recover(); r != nil {
					f.Logger.Error("Panic during task revert",
						"flow", f.FlowName, "task", task.Name(), "panic", r)
				}
			}()

			f.Logger.Debug("Reverting flow task", "flow", f.FlowName, "task", task.Name())
			task.Revert(ctx)
		}()
	}

	f.applied = nil
}

// SetResult fixes the value Run returns on success. A task returning a
// non-nil result later overrides it.
func (f *BaseFlow) SetResult(result any) {
	f.result = result
}

// LastError returns the error of the most recent failed run, for revert
// tasks that record the failure reason.
func (f *BaseFlow) LastError() error {
	return f.lastErr
}

// StringData returns a string field from the flow data.
func (f *BaseFlow) StringData(key string) string {
	value, _ := f.FlowData[key].(string)

	return value
}

// BoolData returns a boolean field from the flow data.
func (f *BaseFlow) BoolData(key string) bool {
	value, _ := f.FlowData[key].(bool)

	return value
}

// StringSliceData returns a string list field from the flow data. JSON
// decoding yields []any, which is converted element-wise.
func (f *BaseFlow) StringSliceData(key string) []string {
	switch value := f.FlowData[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
