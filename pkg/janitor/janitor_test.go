package janitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence/file"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepFailsStuckZones(t *testing.T) {
	ctx := context.Background()
	store := file.NewPersistence(t.TempDir())

	require.NoError(t, store.Projects().Save(ctx, &models.Project{
		UUID:  "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9",
		Title: "Test Project",
	}))

	stuck := &models.LandingZone{
		UUID:         "stuck-zone",
		Title:        "20260829_080000",
		ProjectUUID:  "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9",
		UserName:     "alice",
		AssayUUID:    "11111111-2222-4333-8444-555555555555",
		Status:       models.ZoneStatusMoving,
		DateCreated:  time.Now().UTC().Add(-3 * time.Hour),
		DateModified: time.Now().UTC().Add(-3 * time.Hour),
	}
	require.NoError(t, store.Zones().Save(ctx, stuck))

	fresh := &models.LandingZone{
		UUID:         "fresh-zone",
		Title:        "20260829_110000",
		ProjectUUID:  "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9",
		UserName:     "bob",
		AssayUUID:    "11111111-2222-4333-8444-555555555555",
		Status:       models.ZoneStatusValidating,
		DateCreated:  time.Now().UTC(),
		DateModified: time.Now().UTC(),
	}
	require.NoError(t, store.Zones().Save(ctx, fresh))

	active := &models.LandingZone{
		UUID:         "active-zone",
		Title:        "20260829_070000",
		ProjectUUID:  "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9",
		UserName:     "carol",
		AssayUUID:    "11111111-2222-4333-8444-555555555555",
		Status:       models.ZoneStatusActive,
		DateCreated:  time.Now().UTC().Add(-5 * time.Hour),
		DateModified: time.Now().UTC().Add(-5 * time.Hour),
	}
	require.NoError(t, store.Zones().Save(ctx, active))

	service := zones.NewService(store, notify.NewDispatcher(testLogger()), 4, testLogger())
	j := New(service, time.Hour, testLogger())

	require.NoError(t, j.Sweep(ctx))

	reloaded, err := store.Zones().GetByUUID(ctx, "stuck-zone")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusFailed, reloaded.Status)
	assert.Contains(t, reloaded.StatusInfo, "MOVING")

	reloaded, err = store.Zones().GetByUUID(ctx, "fresh-zone")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusValidating, reloaded.Status, "recent busy zones are left alone")

	reloaded, err = store.Zones().GetByUUID(ctx, "active-zone")
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusActive, reloaded.Status, "non-busy zones are never swept")
}
