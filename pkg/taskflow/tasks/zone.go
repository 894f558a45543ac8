// Package tasks provides the concrete flow tasks: storage backend mutations
// and the dedicated zone status transitions.
package tasks

import (
	"context"
	"fmt"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

// SetZoneStatusTask moves the zone into the given status through the zones
// service, the only sanctioned status mutation path.
type SetZoneStatusTask struct {
	taskflow.BaseTask

	Zones      *zones.Service
	Zone       *models.LandingZone
	Status     models.ZoneStatus
	StatusInfo string
	FlowName   string
	// Extra is forwarded to the notification hooks, e.g. file_count after
	// a completed move.
	Extra map[string]any
}

func (t *SetZoneStatusTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if err := t.Zones.SetStatus(ctx, t.Zone, t.Status, t.StatusInfo, t.FlowName, t.Extra); err != nil {
		return nil, err
	}

	return nil, nil
}

// RevertZoneFailTask is registered as the first task of a flow. Running it
// does nothing; its Revert fires when any later task fails and moves the
// zone into the flow's failure status carrying the failure reason.
type RevertZoneFailTask struct {
	taskflow.BaseTask

	Zones      *zones.Service
	Zone       *models.LandingZone
	FailStatus models.ZoneStatus
	FlowName   string
	// Reason supplies the failure text at revert time, typically bound to
	// the owning flow's LastError.
	Reason func() error
}

func (t *RevertZoneFailTask) Run(_ context.Context) (any, error) {
	return nil, t.Precheck()
}

func (t *RevertZoneFailTask) Revert(ctx context.Context) {
	info := ""
	if t.Reason != nil {
		if err := t.Reason(); err != nil {
			info = fmt.Sprintf("Failed: %v", err)
		}
	}

	if err := t.Zones.SetStatus(ctx, t.Zone, t.FailStatus, info, t.FlowName, nil); err != nil {
		t.Logger.Error("Failed to set zone failure status",
			"zone", t.Zone.UUID, "status", t.FailStatus, "error", err)
	}
}
