package file

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

const (
	projectUUID = "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9"
	assayUUID   = "11111111-2222-4333-8444-555555555555"
)

func newZone(uuid, title, user string, status models.ZoneStatus, created time.Time) *models.LandingZone {
	return &models.LandingZone{
		UUID:         uuid,
		Title:        title,
		ProjectUUID:  projectUUID,
		UserName:     user,
		AssayUUID:    assayUUID,
		Status:       status,
		StatusInfo:   status.DefaultInfo(),
		DateCreated:  created,
		DateModified: created,
	}
}

func TestZoneSaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	zone := newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusActive, time.Now().UTC())
	require.NoError(t, store.Zones().Save(ctx, zone))

	got, err := store.Zones().GetByUUID(ctx, "zone-1")
	require.NoError(t, err)
	assert.Equal(t, zone.Title, got.Title)
	assert.Equal(t, zone.Status, got.Status)

	_, err = store.Zones().GetByUUID(ctx, "no-such-zone")
	assert.True(t, persistence.IsZoneNotFound(err))
}

func TestZoneTitleUniqueness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusActive, now)))

	// Same title and user collides.
	err := store.Zones().Save(ctx,
		newZone("zone-2", "20260829_120000", "alice", models.ZoneStatusCreating, now))
	assert.True(t, persistence.IsZoneTitleTaken(err))

	// A different user may reuse the title.
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-3", "20260829_120000", "bob", models.ZoneStatusCreating, now)))

	// Re-saving the same zone does not collide with itself.
	zone, err := store.Zones().GetByUUID(ctx, "zone-1")
	require.NoError(t, err)
	require.NoError(t, zone.SetStatus(models.ZoneStatusValidating, ""))
	require.NoError(t, store.Zones().Save(ctx, zone))
}

func TestZoneListByProject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	base := time.Now().UTC()

	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-b", "20260829_120001", "alice", models.ZoneStatusActive, base.Add(time.Minute))))
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-a", "20260829_120000", "alice", models.ZoneStatusActive, base)))

	other := newZone("zone-other", "20260829_120000", "alice", models.ZoneStatusActive, base)
	other.ProjectUUID = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	require.NoError(t, store.Zones().Save(ctx, other))

	zones, err := store.Zones().ListByProject(ctx, projectUUID)
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "zone-a", zones[0].UUID, "ordered by creation time")
	assert.Equal(t, "zone-b", zones[1].UUID)
}

func TestZoneListByStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusMoving, now)))
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-2", "20260829_120001", "alice", models.ZoneStatusActive, now)))
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-3", "20260829_120002", "bob", models.ZoneStatusValidating, now)))

	zones, err := store.Zones().ListByStatus(ctx,
		[]models.ZoneStatus{models.ZoneStatusMoving, models.ZoneStatusValidating})
	require.NoError(t, err)
	require.Len(t, zones, 2)

	uuids := []string{zones[0].UUID, zones[1].UUID}
	assert.Contains(t, uuids, "zone-1")
	assert.Contains(t, uuids, "zone-3")
}

func TestZoneCountByProjectStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusValidating, now)))
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-2", "20260829_120001", "alice", models.ZoneStatusPreparing, now)))
	require.NoError(t, store.Zones().Save(ctx,
		newZone("zone-3", "20260829_120002", "alice", models.ZoneStatusActive, now)))

	count, err := store.Zones().CountByProjectStatus(ctx, projectUUID,
		[]models.ZoneStatus{models.ZoneStatusPreparing, models.ZoneStatusValidating})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProjectAndAssayNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	_, err := store.Projects().GetByUUID(ctx, "missing")
	assert.True(t, persistence.IsProjectNotFound(err))

	_, err = store.Assays().GetByUUID(ctx, "missing")
	assert.True(t, persistence.IsAssayNotFound(err))

	require.NoError(t, store.Projects().Save(ctx, &models.Project{UUID: projectUUID, Title: "P"}))
	project, err := store.Projects().GetByUUID(ctx, projectUUID)
	require.NoError(t, err)
	assert.Equal(t, "P", project.Title)
}

func TestAlertListByUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	require.NoError(t, store.Alerts().Save(ctx, &models.Alert{
		UUID: "alert-2", UserName: "alice", Level: models.AlertLevelDanger,
		Message: "Landing zone failed", CreatedAt: now.Add(time.Minute),
	}))
	require.NoError(t, store.Alerts().Save(ctx, &models.Alert{
		UUID: "alert-1", UserName: "alice", Level: models.AlertLevelSuccess,
		Message: "Landing zone moved", CreatedAt: now,
	}))
	require.NoError(t, store.Alerts().Save(ctx, &models.Alert{
		UUID: "alert-3", UserName: "bob", Level: models.AlertLevelSuccess,
		Message: "Landing zone moved", CreatedAt: now,
	}))

	alerts, err := store.Alerts().ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "alert-1", alerts[0].UUID, "ordered by creation time")
	assert.Equal(t, "alert-2", alerts[1].UUID)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	store := NewPersistence(t.TempDir())
	assert.NoError(t, store.HealthCheck(context.Background()))
}

func TestConcurrentSaveAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	zone := newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusCreating, now)
	require.NoError(t, store.Zones().Save(ctx, zone))

	// Writers rewrite the document while readers poll it; a reader must
	// always see a complete document, never a torn one.
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func(worker int) {
			defer wg.Done()

			for j := 0; j < 25; j++ {
				update := newZone("zone-1", "20260829_120000", "alice", models.ZoneStatusValidating, now)
				update.StatusInfo = fmt.Sprintf("Validating batch %d from worker %d", j, worker)
				assert.NoError(t, store.Zones().Save(ctx, update))
			}
		}(i)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 25; j++ {
				got, err := store.Zones().GetByUUID(ctx, "zone-1")
				if assert.NoError(t, err) {
					assert.Equal(t, "20260829_120000", got.Title)
				}
			}
		}()
	}

	wg.Wait()
}
