// Package flows defines the named landing zone flows and their task
// orderings. The ordering within each flow is safety-critical: access is
// revoked only after data has moved, status transitions bracket every
// externally visible phase, and the first registered task turns any later
// failure into the flow's failure status.
package flows

import (
	"context"
	"log/slog"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

// The closed registry of flow names callers may submit.
const (
	FlowCreate = "landing_zone_create"
	FlowMove   = "landing_zone_move"
	FlowDelete = "landing_zone_delete"
)

// Config carries the deployment-level knobs the flows consume.
type Config struct {
	ChecksumScheme irods.ChecksumScheme
	// AdminUser is the backend rodsadmin account re-granted ownership
	// during moves. Empty skips the grant.
	AdminUser string
	// ScriptUser optionally receives write access on new zones for
	// automated uploads.
	ScriptUser         string
	ProhibitedSuffixes []string
}

// Deps bundles what every flow constructor needs. Nothing here is global;
// the assembling binary owns all lifecycles.
type Deps struct {
	Storage    irods.Client
	Zones      *zones.Service
	Store      persistence.Persistence
	Paths      *irods.PathBuilder
	Extensions *zonecfg.Registry
	Config     Config
	Logger     *slog.Logger
}

// Register installs the three landing zone flows into the engine registry.
func Register(registry *taskflow.Registry, deps Deps) {
	registry.Register(FlowCreate, func(project *models.Project, flowData map[string]any) (taskflow.Flow, error) {
		return newCreateFlow(deps, project, flowData), nil
	})
	registry.Register(FlowMove, func(project *models.Project, flowData map[string]any) (taskflow.Flow, error) {
		return newMoveFlow(deps, project, flowData), nil
	})
	registry.Register(FlowDelete, func(project *models.Project, flowData map[string]any) (taskflow.Flow, error) {
		return newDeleteFlow(deps, project, flowData), nil
	})
}

// zoneFlow is the base of all three flows: lazy zone loading, failure
// marking and extension data merging.
type zoneFlow struct {
	taskflow.BaseFlow

	deps       Deps
	project    *models.Project
	zone       *models.LandingZone
	failStatus models.ZoneStatus
}

func (f *zoneFlow) task(name string) taskflow.BaseTask {
	return taskflow.BaseTask{TaskName: name, Logger: f.Logger}
}

// loadZone fetches the zone aggregate on first use. MarkFailed may run
// before Build, so both paths load through here.
func (f *zoneFlow) loadZone(ctx context.Context) error {
	if f.zone != nil {
		return nil
	}

	zone, err := f.deps.Zones.Get(ctx, f.StringData("zone_uuid"))
	if err != nil {
		return err
	}
	f.zone = zone

	return nil
}

// MarkFailed moves the zone into the flow's failure status. Called by the
// engine when the lock cannot be obtained or Build fails, before any task
// has run.
func (f *zoneFlow) MarkFailed(ctx context.Context, reason string) {
	if err := f.loadZone(ctx); err != nil {
		f.Logger.Error("Cannot mark zone failed, zone not loadable",
			"zone_uuid", f.StringData("zone_uuid"), "error", err)

		return
	}

	if err := f.deps.Zones.SetStatus(ctx, f.zone, f.failStatus, reason, f.FlowName, nil); err != nil {
		f.Logger.Error("Failed to set zone failure status",
			"zone", f.zone.UUID, "status", f.failStatus, "error", err)
	}
}

// mergeExtensionData folds the configuration extension's extra flow data
// into the submission. Explicit flow data wins over extension defaults.
func (f *zoneFlow) mergeExtensionData(flowName string) error {
	if f.deps.Extensions == nil {
		return nil
	}

	ext, err := f.deps.Extensions.Get(f.zone.Configuration)
	if err != nil {
		return err
	}
	if ext == nil {
		return nil
	}

	for key, value := range ext.ExtraFlowData(f.zone, flowName) {
		if _, ok := f.FlowData[key]; !ok {
			f.FlowData[key] = value
		}
	}

	return nil
}

// extensionCleanupTask runs the configuration extension's cleanup during
// zone deletion. Cleanup failures abort the delete before the collection is
// removed so extension state never outlives its data silently.
type extensionCleanupTask struct {
	taskflow.BaseTask

	ext  zonecfg.Extension
	zone *models.LandingZone
}

func (t *extensionCleanupTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	return nil, t.ext.Cleanup(ctx, t.zone)
}
