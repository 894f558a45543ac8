// Package janitor periodically fails zones stuck in a busy status. A flow
// that dies without reverting (worker crash, lost connection) leaves its
// zone busy forever; the sweep moves such zones to FAILED once they exceed
// the configured age so their owners can retry.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

// busyStatuses are the sweep candidates. CREATING is included: a crashed
// create flow leaves the zone there.
var busyStatuses = []models.ZoneStatus{
	models.ZoneStatusCreating,
	models.ZoneStatusPreparing,
	models.ZoneStatusValidating,
	models.ZoneStatusMoving,
	models.ZoneStatusDeleting,
}

type Janitor struct {
	zones  *zones.Service
	maxAge time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

func New(zoneService *zones.Service, maxAge time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		zones:  zoneService,
		maxAge: maxAge,
		cron:   cron.New(),
		logger: logger.With("module", "janitor"),
	}
}

// Start schedules the sweep with a cron expression and runs until Stop.
func (j *Janitor) Start(ctx context.Context, schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if err := j.Sweep(ctx); err != nil {
			j.logger.Error("Zone sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule janitor sweep: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Janitor started", "schedule", schedule, "max_age", j.maxAge)

	return nil
}

func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep fails every busy zone whose last modification is older than the
// configured age and logs per-project busy counts.
func (j *Janitor) Sweep(ctx context.Context) error {
	busy, err := j.zones.ListBusy(ctx, busyStatuses)
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().Add(-j.maxAge)
	perProject := make(map[string]int)
	failed := 0

	for _, zone := range busy {
		perProject[zone.ProjectUUID]++

		if zone.DateModified.After(cutoff) {
			continue
		}

		info := fmt.Sprintf("Operation stuck in %s for over %s, marked failed", zone.Status, j.maxAge)
		if err := j.zones.SetStatus(ctx, zone, models.ZoneStatusFailed, info, "janitor", nil); err != nil {
			j.logger.Error("Failed to fail stuck zone", "zone", zone.UUID, "error", err)

			continue
		}

		failed++
		j.logger.Warn("Failed stuck zone", "zone", zone.UUID, "project", zone.ProjectUUID)
	}

	for project, count := range perProject {
		j.logger.Info("Busy zone count", "project", project, "zones", count)
	}

	j.logger.Info("Zone sweep completed", "busy", len(busy), "failed", failed)

	return nil
}
