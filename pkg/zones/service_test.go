package zones

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/persistence/file"
)

const (
	testProjectUUID = "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9"
	testAssayUUID   = "11111111-2222-4333-8444-555555555555"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, validateLimit int) (*Service, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	ctx := context.Background()
	require.NoError(t, store.Projects().Save(ctx, &models.Project{
		UUID:  testProjectUUID,
		Title: "Test Project",
	}))
	require.NoError(t, store.Assays().Save(ctx, &models.Assay{
		UUID:      testAssayUUID,
		StudyUUID: "99999999-8888-4777-8666-555555555555",
		Title:     "Proteomics Assay",
	}))

	return NewService(store, notify.NewDispatcher(testLogger()), validateLimit, testLogger()), store
}

func createRequest() CreateRequest {
	return CreateRequest{
		ProjectUUID: testProjectUUID,
		AssayUUID:   testAssayUUID,
		UserName:    "alice",
	}
}

func TestCreateGeneratesTimestampTitle(t *testing.T) {
	service, _ := newTestService(t, 4)

	zone, err := service.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.Equal(t, models.ZoneStatusCreating, zone.Status)
	assert.NotEmpty(t, zone.UUID)

	parsed, err := time.Parse("20060102_150405", zone.Title)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)
}

func TestCreateWithSuffix(t *testing.T) {
	service, _ := newTestService(t, 4)

	req := createRequest()
	req.TitleSuffix = "proteome_batch1"

	zone, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(zone.Title, "_proteome_batch1"))
}

func TestCreateDisambiguatesTitleCollision(t *testing.T) {
	service, _ := newTestService(t, 4)

	first, err := service.Create(context.Background(), createRequest())
	require.NoError(t, err)

	// Same second, same (project, user): the second zone gets a numeric
	// disambiguator instead of failing.
	second, err := service.Create(context.Background(), createRequest())
	require.NoError(t, err)

	if second.Title != first.Title+"_2" {
		// The clock may have ticked between the two calls.
		assert.NotEqual(t, first.Title, second.Title)
	}
}

func TestCreateUnknownProject(t *testing.T) {
	service, _ := newTestService(t, 4)

	req := createRequest()
	req.ProjectUUID = "d2f3f1f0-0000-4000-8000-000000000000"

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, persistence.IsProjectNotFound(err))
}

func TestCheckSubmitRejectsBusyZone(t *testing.T) {
	service, _ := newTestService(t, 4)

	zone := &models.LandingZone{
		UUID:        "z1",
		ProjectUUID: testProjectUUID,
		Status:      models.ZoneStatusMoving,
	}

	err := service.CheckSubmit(context.Background(), zone, false)
	require.ErrorIs(t, err, ErrZoneBusy)
	assert.True(t, IsConflict(err))

	zone.Status = models.ZoneStatusFailed
	require.NoError(t, service.CheckSubmit(context.Background(), zone, false),
		"FAILED zones accept retry submissions")
}

func TestCheckSubmitValidateLimit(t *testing.T) {
	service, store := newTestService(t, 1)
	ctx := context.Background()

	busy := &models.LandingZone{
		UUID:        "busy-zone",
		Title:       "20260829_090000",
		ProjectUUID: testProjectUUID,
		UserName:    "bob",
		AssayUUID:   testAssayUUID,
		Status:      models.ZoneStatusValidating,
	}
	require.NoError(t, store.Zones().Save(ctx, busy))

	candidate := &models.LandingZone{
		UUID:        "candidate-zone",
		ProjectUUID: testProjectUUID,
		Status:      models.ZoneStatusActive,
	}

	err := service.CheckSubmit(ctx, candidate, true)
	require.ErrorIs(t, err, ErrValidateLimit)
	assert.True(t, IsConflict(err))

	require.NoError(t, service.CheckSubmit(ctx, candidate, false),
		"delete submissions skip the validate limit")
}

func TestSetStatusPersistsAndKeepsPrevOnRejection(t *testing.T) {
	service, store := newTestService(t, 4)
	ctx := context.Background()

	zone, err := service.Create(ctx, createRequest())
	require.NoError(t, err)

	require.NoError(t, service.SetStatus(ctx, zone, models.ZoneStatusActive, "", "landing_zone_create", nil))

	stored, err := store.Zones().GetByUUID(ctx, zone.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusActive, stored.Status)
	assert.Equal(t, models.ZoneStatusActive.DefaultInfo(), stored.StatusInfo)

	require.NoError(t, service.SetStatus(ctx, zone, models.ZoneStatusDeleted, "", "landing_zone_delete", nil))

	err = service.SetStatus(ctx, zone, models.ZoneStatusActive, "", "landing_zone_create", nil)
	require.ErrorIs(t, err, models.ErrZoneFinished)

	stored, err = store.Zones().GetByUUID(ctx, zone.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusDeleted, stored.Status, "terminal status survives rejected transition")
}

func TestSetStatusTruncatesLongInfo(t *testing.T) {
	service, store := newTestService(t, 4)
	ctx := context.Background()

	zone, err := service.Create(ctx, createRequest())
	require.NoError(t, err)

	long := strings.Repeat("x", models.StatusInfoMaxLength+100)
	require.NoError(t, service.SetStatus(ctx, zone, models.ZoneStatusFailed, long, "landing_zone_move", nil))

	stored, err := store.Zones().GetByUUID(ctx, zone.UUID)
	require.NoError(t, err)
	assert.Len(t, stored.StatusInfo, models.StatusInfoMaxLength)
	assert.True(t, stored.StatusInfoTruncated)
}

func TestStatusReadModel(t *testing.T) {
	service, _ := newTestService(t, 4)
	ctx := context.Background()

	zone, err := service.Create(ctx, createRequest())
	require.NoError(t, err)

	status, err := service.Status(ctx, zone.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.ZoneStatusCreating, status.Status)
	assert.False(t, status.Truncated)
	assert.NotZero(t, status.DateModified)

	_, err = service.Status(ctx, "missing-zone")
	assert.True(t, persistence.IsZoneNotFound(err))
}
