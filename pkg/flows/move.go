package flows

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/taskflow/tasks"
)

// moveFlow validates the zone's files and moves them into the sample data
// archive. With validate_only set it stops after validation, returning the
// zone to ACTIVE. The checksum gate sits strictly before the move: the
// batch move task is never built ahead of validation succeeding at run
// time, and any validation failure leaves the archive untouched.
type moveFlow struct {
	zoneFlow

	validateOnly bool
	fileCount    int
	totalSize    int64
}

func newMoveFlow(deps Deps, project *models.Project, flowData map[string]any) *moveFlow {
	return &moveFlow{zoneFlow: zoneFlow{
		BaseFlow: taskflow.BaseFlow{
			FlowName: FlowMove,
			FlowData: flowData,
			Required: []string{"zone_uuid"},
			Modes:    []taskflow.Mode{taskflow.ModeSync, taskflow.ModeAsync},
			Lock:     true,
			Logger:   deps.Logger.With("flow", FlowMove),
		},
		deps:       deps,
		project:    project,
		failStatus: models.ZoneStatusFailed,
	}}
}

// RequireLock opts out of the project lock for validate-only runs: nothing
// moves, so concurrent validation against a held lock is safe.
func (f *moveFlow) RequireLock() bool {
	return !f.BoolData("validate_only")
}

func (f *moveFlow) Build(ctx context.Context) error {
	if err := f.loadZone(ctx); err != nil {
		return err
	}
	if err := f.mergeExtensionData(FlowMove); err != nil {
		return err
	}
	f.validateOnly = f.BoolData("validate_only")

	assay, err := f.deps.Store.Assays().GetByUUID(ctx, f.zone.AssayUUID)
	if err != nil {
		return err
	}

	var (
		client     = f.deps.Storage
		scheme     = f.deps.Config.ChecksumScheme
		group      = f.project.GroupName()
		ownerGroup = f.project.OwnerGroupName()
		owner      = f.zone.UserName
		zonePath   = f.deps.Paths.ZonePath(f.zone)
		destPath   = f.deps.Paths.AssayPath(f.project.UUID, assay)
	)

	// The zone inventory is taken once at build time so the file count in
	// status messages, audit data and notifications stays consistent for
	// the whole run.
	objects, err := client.ListObjects(ctx, zonePath, true, false)
	if err != nil {
		return fmt.Errorf("failed to list zone objects: %w", err)
	}

	suffix := scheme.Suffix()
	allPaths := make([]string, 0, len(objects))
	dataObjects := make([]irods.DataObject, 0, len(objects))
	dataPaths := make([]string, 0, len(objects))

	for _, obj := range objects {
		allPaths = append(allPaths, obj.Path)
		if strings.HasSuffix(obj.Path, suffix) {
			continue
		}

		dataObjects = append(dataObjects, obj)
		dataPaths = append(dataPaths, obj.Path)
		f.totalSize += obj.Size
	}
	f.fileCount = len(dataObjects)

	f.AddTask(&tasks.RevertZoneFailTask{
		BaseTask:   f.task("revert_zone_fail"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		FailStatus: models.ZoneStatusFailed,
		FlowName:   FlowMove,
		Reason:     f.LastError,
	})

	if !f.validateOnly {
		f.addAccessPreparation(client, zonePath, owner, ownerGroup)
	}

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask:   f.task("set_zone_validating"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		Status:     models.ZoneStatusValidating,
		StatusInfo: fmt.Sprintf("Validating %d files, write access disabled", f.fileCount),
		FlowName:   FlowMove,
	})

	prohibited := f.StringSliceData("prohibited")
	if prohibited == nil {
		prohibited = f.deps.Config.ProhibitedSuffixes
	}
	if len(prohibited) > 0 {
		f.AddTask(&tasks.BatchCheckFileSuffixTask{
			BaseTask: f.task("check_prohibited_suffixes"),
			Client:   client,
			Path:     zonePath,
			Suffixes: prohibited,
		})
	}

	f.AddTask(&tasks.BatchCheckFilePairsTask{
		BaseTask: f.task("check_checksum_pairs"),
		Client:   client,
		Path:     zonePath,
		Scheme:   scheme,
	})

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask:   f.task("set_zone_calculating"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		Status:     models.ZoneStatusValidating,
		StatusInfo: fmt.Sprintf("Calculating checksums for %d files", f.fileCount),
		FlowName:   FlowMove,
	})

	f.AddTask(&tasks.BatchComputeChecksumsTask{
		BaseTask: f.task("compute_missing_checksums"),
		Client:   client,
		Objects:  dataObjects,
		Scheme:   scheme,
	})

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask:   f.task("set_zone_comparing"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		Status:     models.ZoneStatusValidating,
		StatusInfo: fmt.Sprintf("Comparing checksums for %d files", f.fileCount),
		FlowName:   FlowMove,
	})

	f.AddTask(&tasks.BatchValidateChecksumsTask{
		BaseTask: f.task("validate_checksums"),
		Client:   client,
		Paths:    dataPaths,
		Scheme:   scheme,
	})

	if f.validateOnly {
		f.AddTask(&tasks.SetZoneStatusTask{
			BaseTask:   f.task("set_zone_active"),
			Zones:      f.deps.Zones,
			Zone:       f.zone,
			Status:     models.ZoneStatusActive,
			StatusInfo: fmt.Sprintf("Successfully validated %d files", f.fileCount),
			FlowName:   FlowMove,
		})
		f.SetResult(f.fileCount)

		return nil
	}

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask:   f.task("set_zone_moving"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		Status:     models.ZoneStatusMoving,
		StatusInfo: fmt.Sprintf("Validation OK, moving %d files into the sample data archive", f.fileCount),
		FlowName:   FlowMove,
	})

	f.AddTask(&tasks.BatchCreateCollectionsTask{
		BaseTask: f.task("create_destination_collections"),
		Client:   client,
		Paths:    destCollections(allPaths, zonePath, destPath),
	})

	f.AddTask(&tasks.BatchMoveDataObjectsTask{
		BaseTask:  f.task("move_zone_objects"),
		Client:    client,
		SrcPaths:  allPaths,
		SrcRoot:   zonePath,
		DestRoot:  destPath,
		Level:     irods.AccessRead,
		Principal: group,
	})

	destPaths := make([]string, 0, len(allPaths))
	for _, p := range allPaths {
		destPaths = append(destPaths, rebase(p, zonePath, destPath))
	}

	// Zone-level grants travel with the moved objects; the owner and the
	// owner group keep access only through the zone, never the archive.
	f.AddTask(&tasks.BatchSetAccessTask{
		BaseTask:  f.task("revoke_owner_destination_access"),
		Client:    client,
		Level:     irods.AccessNull,
		Paths:     destPaths,
		Principal: owner,
	})
	f.AddTask(&tasks.BatchSetAccessTask{
		BaseTask:  f.task("revoke_owner_group_destination_access"),
		Client:    client,
		Level:     irods.AccessNull,
		Paths:     destPaths,
		Principal: ownerGroup,
	})

	if metadata, ok := f.FlowData["dest_coll_metadata"].(map[string]any); ok {
		keys := make([]string, 0, len(metadata))
		for key := range metadata {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if value, ok := metadata[key].(string); ok {
				f.AddTask(&tasks.SetCollectionMetadataTask{
					BaseTask: f.task("set_destination_metadata"),
					Client:   client,
					Path:     destPath,
					Key:      key,
					Value:    value,
				})
			}
		}
	}

	f.AddTask(&tasks.RemoveCollectionTask{
		BaseTask: f.task("remove_zone_collection"),
		Client:   client,
		Path:     zonePath,
	})

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask:   f.task("set_zone_moved"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		Status:     models.ZoneStatusMoved,
		StatusInfo: fmt.Sprintf("Successfully moved %d files", f.fileCount),
		FlowName:   FlowMove,
		Extra: map[string]any{
			"file_count": f.fileCount,
			"total_size": f.totalSize,
		},
	})

	f.SetResult(f.fileCount)

	return nil
}

// addAccessPreparation re-grants admin ownership plus owner and owner-group
// read on the zone so the move can manipulate it safely regardless of what
// the owner changed while the zone was ACTIVE.
func (f *moveFlow) addAccessPreparation(client irods.Client, zonePath, owner, ownerGroup string) {
	if admin := f.deps.Config.AdminUser; admin != "" {
		f.AddTask(&tasks.SetAccessTask{
			BaseTask:  f.task("grant_admin_zone_own"),
			Client:    client,
			Level:     irods.AccessOwn,
			Path:      zonePath,
			Principal: admin,
			Recursive: true,
		})
	}

	f.AddTask(&tasks.SetAccessTask{
		BaseTask:  f.task("set_owner_zone_read"),
		Client:    client,
		Level:     irods.AccessRead,
		Path:      zonePath,
		Principal: owner,
		Recursive: true,
	})
	f.AddTask(&tasks.SetAccessTask{
		BaseTask:  f.task("grant_owner_group_zone_read"),
		Client:    client,
		Level:     irods.AccessRead,
		Path:      zonePath,
		Principal: ownerGroup,
		Recursive: true,
	})
}

func rebase(p, srcRoot, destRoot string) string {
	rel := strings.TrimPrefix(path.Clean(p), path.Clean(srcRoot)+"/")

	return path.Join(destRoot, rel)
}

// destCollections returns the destination collections needed before the
// move, the destination root included, deduplicated and sorted so parents
// precede children.
func destCollections(srcPaths []string, srcRoot, destRoot string) []string {
	seen := map[string]struct{}{destRoot: {}}
	for _, p := range srcPaths {
		seen[path.Dir(rebase(p, srcRoot, destRoot))] = struct{}{}
	}

	colls := make([]string, 0, len(seen))
	for p := range seen {
		colls = append(colls, p)
	}
	sort.Strings(colls)

	return colls
}
