// Package persistence provides the data storage abstraction for zones,
// projects, assays and alerts.
package persistence

import (
	"context"

	"github.com/zoneflow/zoneflow/pkg/models"
)

type Persistence interface {
	Zones() ZoneRepository
	Projects() ProjectRepository
	Assays() AssayRepository
	Alerts() AlertRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ZoneRepository stores the LandingZone aggregate. Zones are never hard
// deleted; terminal statuses keep the row for auditing.
type ZoneRepository interface {
	Save(ctx context.Context, zone *models.LandingZone) error
	GetByUUID(ctx context.Context, uuid string) (*models.LandingZone, error)
	ListByProject(ctx context.Context, projectUUID string) ([]*models.LandingZone, error)
	// CountByProjectStatus counts zones of the project currently in any of
	// the given statuses. Used for validate-concurrency admission control.
	CountByProjectStatus(ctx context.Context, projectUUID string, statuses []models.ZoneStatus) (int, error)
	// ListByStatus returns all zones currently in any of the given
	// statuses, across projects. Used by the janitor sweep.
	ListByStatus(ctx context.Context, statuses []models.ZoneStatus) ([]*models.LandingZone, error)
}

type ProjectRepository interface {
	Save(ctx context.Context, project *models.Project) error
	GetByUUID(ctx context.Context, uuid string) (*models.Project, error)
}

type AssayRepository interface {
	Save(ctx context.Context, assay *models.Assay) error
	GetByUUID(ctx context.Context, uuid string) (*models.Assay, error)
}

type AlertRepository interface {
	Save(ctx context.Context, alert *models.Alert) error
	ListByUser(ctx context.Context, userName string) ([]*models.Alert, error)
}
