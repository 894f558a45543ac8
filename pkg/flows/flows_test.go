package flows

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/persistence/file"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

const (
	projectUUID = "6e279fe0-4cb2-4d29-8a33-1d12ad2722a9"
	assayUUID   = "11111111-2222-4333-8444-555555555555"
	studyUUID   = "99999999-8888-4777-8666-555555555555"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store   persistence.Persistence
	storage *irods.InMemory
	zones   *zones.Service
	engine  *taskflow.Engine
	paths   *irods.PathBuilder
	project *models.Project
	assay   *models.Assay
}

func newTestEnv(t *testing.T, locks *lock.Service) *testEnv {
	t.Helper()

	logger := testLogger()
	store := file.NewPersistence(t.TempDir())

	project := &models.Project{UUID: projectUUID, Title: "Test Project"}
	assay := &models.Assay{UUID: assayUUID, StudyUUID: studyUUID, Title: "Proteomics Assay"}

	ctx := context.Background()
	require.NoError(t, store.Projects().Save(ctx, project))
	require.NoError(t, store.Assays().Save(ctx, assay))

	storage := irods.NewInMemory()
	dispatcher := notify.NewDispatcher(logger, notify.NewAlertHook(store.Alerts()))
	zoneService := zones.NewService(store, dispatcher, 4, logger)

	registry := taskflow.NewRegistry()
	Register(registry, Deps{
		Storage:    storage,
		Zones:      zoneService,
		Store:      store,
		Paths:      irods.NewPathBuilder(""),
		Extensions: zonecfg.NewRegistry(zonecfg.NewProteomicsSMB()),
		Config: Config{
			ChecksumScheme: irods.ChecksumMD5,
			AdminUser:      "rods",
		},
		Logger: logger,
	})

	if locks == nil {
		locks = lock.NewService("", false, 2, time.Millisecond, logger)
	}

	return &testEnv{
		store:   store,
		storage: storage,
		zones:   zoneService,
		engine:  taskflow.NewEngine(registry, locks, logger),
		paths:   irods.NewPathBuilder(""),
		project: project,
		assay:   assay,
	}
}

func (e *testEnv) createZone(t *testing.T, req zones.CreateRequest, flowData map[string]any) *models.LandingZone {
	t.Helper()

	req.ProjectUUID = projectUUID
	req.AssayUUID = assayUUID
	if req.UserName == "" {
		req.UserName = "alice"
	}

	zone, err := e.zones.Create(context.Background(), req)
	require.NoError(t, err)

	if flowData == nil {
		flowData = map[string]any{}
	}
	flowData["zone_uuid"] = zone.UUID

	_, err = e.engine.Submit(context.Background(), taskflow.SubmitRequest{
		FlowName: FlowCreate,
		Project:  e.project,
		FlowData: flowData,
		Mode:     taskflow.ModeSync,
	})
	require.NoError(t, err)

	return e.reload(t, zone.UUID)
}

func (e *testEnv) reload(t *testing.T, zoneUUID string) *models.LandingZone {
	t.Helper()

	zone, err := e.store.Zones().GetByUUID(context.Background(), zoneUUID)
	require.NoError(t, err)

	return zone
}

func (e *testEnv) submit(flowName string, flowData map[string]any) error {
	_, err := e.engine.Submit(context.Background(), taskflow.SubmitRequest{
		FlowName: flowName,
		Project:  e.project,
		FlowData: flowData,
		Mode:     taskflow.ModeSync,
	})

	return err
}

func md5Hex(content []byte) string {
	sum := md5.Sum(content)

	return hex.EncodeToString(sum[:])
}

func TestCreateFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, map[string]any{
		"colls":          []string{"ResultsReports", "MiscFiles"},
		"restrict_colls": false,
	})

	assert.Equal(t, models.ZoneStatusActive, zone.Status)

	zonePath := env.paths.ZonePath(zone)
	for _, name := range []string{"ResultsReports", "MiscFiles"} {
		exists, err := env.storage.CollectionExists(ctx, zonePath+"/"+name)
		require.NoError(t, err)
		assert.True(t, exists, "sub-collection %s missing", name)
	}

	level, ok := env.storage.AccessLevelFor(zonePath, "alice")
	require.True(t, ok)
	assert.Equal(t, irods.AccessOwn, level)
}

func TestMoveFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{UserMessage: "fresh run uploaded"}, nil)
	zonePath := env.paths.ZonePath(zone)

	content := []byte("proteome measurement data")
	env.storage.PutObject(zonePath+"/test1.txt", content)
	env.storage.PutObject(zonePath+"/test1.txt.md5", []byte(md5Hex(content)+"  test1.txt\n"))

	require.NoError(t, env.submit(FlowMove, map[string]any{"zone_uuid": zone.UUID}))

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusMoved, zone.Status)
	assert.Equal(t, "Successfully moved 1 files", zone.StatusInfo)

	destPath := env.paths.AssayPath(projectUUID, env.assay)
	for _, name := range []string{"/test1.txt", "/test1.txt.md5"} {
		exists, err := env.storage.ObjectExists(ctx, destPath+name)
		require.NoError(t, err)
		assert.True(t, exists, "archive missing %s", name)
	}

	exists, err := env.storage.CollectionExists(ctx, zonePath)
	require.NoError(t, err)
	assert.False(t, exists, "zone collection removed after move")

	_, ok := env.storage.AccessLevelFor(destPath+"/test1.txt", "alice")
	assert.False(t, ok, "owner access revoked on moved files")

	_, ok = env.storage.AccessLevelFor(destPath+"/test1.txt", env.project.OwnerGroupName())
	assert.False(t, ok, "owner group access revoked on moved files")

	level, ok := env.storage.AccessLevelFor(destPath+"/test1.txt", env.project.GroupName())
	require.True(t, ok)
	assert.Equal(t, irods.AccessRead, level)
}

func TestMoveFlowMissingChecksumFails(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	env.storage.PutObject(zonePath+"/test1.txt", []byte("data without companion"))

	err := env.submit(FlowMove, map[string]any{"zone_uuid": zone.UUID})
	require.Error(t, err)
	assert.True(t, taskflow.IsSubmitError(err))

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusFailed, zone.Status)
	assert.Contains(t, zone.StatusInfo, "missing checksum file")
	assert.Contains(t, zone.StatusInfo, "test1.txt")

	exists, err := env.storage.ObjectExists(ctx, zonePath+"/test1.txt")
	require.NoError(t, err)
	assert.True(t, exists, "zone file untouched after failed validation")

	destObjects, err := env.storage.ListObjects(ctx, env.paths.SampleDataPath(projectUUID), true, false)
	require.NoError(t, err)
	assert.Empty(t, destObjects, "archive unchanged after failed validation")
}

func TestMoveFlowChecksumMismatchFails(t *testing.T) {
	env := newTestEnv(t, nil)

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	env.storage.PutObject(zonePath+"/test1.txt", []byte("actual content"))
	env.storage.PutObject(zonePath+"/test1.txt.md5", []byte("00000000000000000000000000000000"))

	err := env.submit(FlowMove, map[string]any{"zone_uuid": zone.UUID})
	require.Error(t, err)

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusFailed, zone.Status)
	assert.Contains(t, zone.StatusInfo, "checksum mismatch")
}

func TestValidateOnlyEmptyZone(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	require.NoError(t, env.submit(FlowMove, map[string]any{
		"zone_uuid":     zone.UUID,
		"validate_only": true,
	}))

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusActive, zone.Status)
	assert.Equal(t, "Successfully validated 0 files", zone.StatusInfo)

	exists, err := env.storage.CollectionExists(ctx, zonePath)
	require.NoError(t, err)
	assert.True(t, exists, "validate-only leaves the zone collection in place")
}

func TestMoveFlowLockOutage(t *testing.T) {
	// Port 1 is never a redis server: coordinator construction fails fast.
	locks := lock.NewService("redis://127.0.0.1:1/0", true, 0, time.Millisecond, testLogger())
	env := newTestEnv(t, locks)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	env.storage.PutObject(zonePath+"/test1.txt", []byte("data"))

	err := env.submit(FlowMove, map[string]any{"zone_uuid": zone.UUID})
	require.ErrorIs(t, err, lock.ErrBackendUnavailable)

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusFailed, zone.Status)
	assert.Contains(t, zone.StatusInfo, "lock")

	exists, err := env.storage.ObjectExists(ctx, zonePath+"/test1.txt")
	require.NoError(t, err)
	assert.True(t, exists, "no storage mutation when the lock backend is down")
}

func TestDeleteFlowIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	// The collection vanished out-of-band before the delete ran.
	require.NoError(t, env.storage.RemoveCollection(ctx, zonePath))

	require.NoError(t, env.submit(FlowDelete, map[string]any{"zone_uuid": zone.UUID}))

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusDeleted, zone.Status)
}

func TestDeleteFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)
	env.storage.PutObject(zonePath+"/leftover.txt", []byte("abandoned"))

	require.NoError(t, env.submit(FlowDelete, map[string]any{"zone_uuid": zone.UUID}))

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusDeleted, zone.Status)

	exists, err := env.storage.CollectionExists(ctx, zonePath)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMoveFlowStampsExtensionMetadata(t *testing.T) {
	env := newTestEnv(t, nil)

	zone := env.createZone(t, zones.CreateRequest{
		Configuration: "proteomics_smb",
		ConfigData:    json.RawMessage(`{"share_name": "instr-01"}`),
	}, nil)
	zonePath := env.paths.ZonePath(zone)

	content := []byte("acquisition")
	env.storage.PutObject(zonePath+"/run.raw", content)
	env.storage.PutObject(zonePath+"/run.raw.md5", []byte(md5Hex(content)))

	require.NoError(t, env.submit(FlowMove, map[string]any{"zone_uuid": zone.UUID}))

	destPath := env.paths.AssayPath(projectUUID, env.assay)
	metadata := env.storage.CollectionMetadata(destPath)
	assert.Equal(t, "instr-01", metadata["proteomics_smb/share"])
}

func TestUnknownZoneFailsBuild(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.submit(FlowMove, map[string]any{"zone_uuid": "no-such-zone"})
	require.Error(t, err)
	assert.True(t, taskflow.IsSubmitError(err))
	assert.True(t, persistence.IsZoneNotFound(err))
}

func TestMoveFlowProhibitedSuffix(t *testing.T) {
	env := newTestEnv(t, nil)

	zone := env.createZone(t, zones.CreateRequest{}, nil)
	zonePath := env.paths.ZonePath(zone)

	content := []byte("spreadsheet")
	env.storage.PutObject(zonePath+"/results.xlsx", content)
	env.storage.PutObject(zonePath+"/results.xlsx.md5", []byte(md5Hex(content)))

	err := env.submit(FlowMove, map[string]any{
		"zone_uuid":  zone.UUID,
		"prohibited": []string{".xlsx"},
	})
	require.Error(t, err)

	zone = env.reload(t, zone.UUID)
	assert.Equal(t, models.ZoneStatusFailed, zone.Status)
	assert.Contains(t, zone.StatusInfo, "results.xlsx")
}
