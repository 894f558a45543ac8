package flows

import (
	"context"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/taskflow/tasks"
)

// deleteFlow removes the zone's collection tree and marks the zone
// DELETED. Removal of an already absent collection counts as success, so
// deletes are idempotent after partial failures. Deletion does not take the
// project lock: the zone is being removed from visibility and deletion must
// stay available while another flow holds the lock for a move.
type deleteFlow struct {
	zoneFlow

	mode taskflow.Mode
}

func newDeleteFlow(deps Deps, project *models.Project, flowData map[string]any) *deleteFlow {
	return &deleteFlow{zoneFlow: zoneFlow{
		BaseFlow: taskflow.BaseFlow{
			FlowName: FlowDelete,
			FlowData: flowData,
			Required: []string{"zone_uuid"},
			Modes:    []taskflow.Mode{taskflow.ModeSync, taskflow.ModeAsync},
			Lock:     false,
			Logger:   deps.Logger.With("flow", FlowDelete),
		},
		deps:       deps,
		project:    project,
		failStatus: models.ZoneStatusFailed,
	}}
}

// Validate records the execution mode; async runs register the failure
// revert task since no caller is waiting to observe the error directly.
func (f *deleteFlow) Validate(mode taskflow.Mode) error {
	if err := f.BaseFlow.Validate(mode); err != nil {
		return err
	}
	f.mode = mode

	return nil
}

func (f *deleteFlow) Build(ctx context.Context) error {
	if err := f.loadZone(ctx); err != nil {
		return err
	}

	zonePath := f.deps.Paths.ZonePath(f.zone)

	if f.mode == taskflow.ModeAsync {
		f.AddTask(&tasks.RevertZoneFailTask{
			BaseTask:   f.task("revert_zone_fail"),
			Zones:      f.deps.Zones,
			Zone:       f.zone,
			FailStatus: models.ZoneStatusFailed,
			FlowName:   FlowDelete,
			Reason:     f.LastError,
		})
	}

	if f.deps.Extensions != nil {
		ext, err := f.deps.Extensions.Get(f.zone.Configuration)
		if err != nil {
			return err
		}
		if ext != nil {
			f.AddTask(&extensionCleanupTask{
				BaseTask: f.task("extension_cleanup"),
				ext:      ext,
				zone:     f.zone,
			})
		}
	}

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask: f.task("set_zone_deleting"),
		Zones:    f.deps.Zones,
		Zone:     f.zone,
		Status:   models.ZoneStatusDeleting,
		FlowName: FlowDelete,
	})

	f.AddTask(&tasks.RemoveCollectionTask{
		BaseTask: f.task("remove_zone_collection"),
		Client:   f.deps.Storage,
		Path:     zonePath,
	})

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask: f.task("set_zone_deleted"),
		Zones:    f.deps.Zones,
		Zone:     f.zone,
		Status:   models.ZoneStatusDeleted,
		FlowName: FlowDelete,
	})

	f.SetResult(true)

	return nil
}
