package flows

import (
	"context"
	"path"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/taskflow/tasks"
)

// createFlow provisions the zone's collection tree and access grants in the
// storage backend, ending in ACTIVE. Creation does not take the project
// lock: the zone is not yet visible to anyone else and creation must stay
// available while a move holds the lock.
type createFlow struct {
	zoneFlow
}

func newCreateFlow(deps Deps, project *models.Project, flowData map[string]any) *createFlow {
	return &createFlow{zoneFlow{
		BaseFlow: taskflow.BaseFlow{
			FlowName: FlowCreate,
			FlowData: flowData,
			Required: []string{"zone_uuid"},
			Modes:    []taskflow.Mode{taskflow.ModeSync, taskflow.ModeAsync},
			Lock:     false,
			Logger:   deps.Logger.With("flow", FlowCreate),
		},
		deps:       deps,
		project:    project,
		failStatus: models.ZoneStatusNotCreated,
	}}
}

func (f *createFlow) Build(ctx context.Context) error {
	if err := f.loadZone(ctx); err != nil {
		return err
	}
	if err := f.mergeExtensionData(FlowCreate); err != nil {
		return err
	}

	var (
		client   = f.deps.Storage
		group    = f.project.GroupName()
		owner    = f.zone.UserName
		areaPath = f.deps.Paths.LandingZoneAreaPath(f.project.UUID)
		userPath = f.deps.Paths.UserZonePath(f.project.UUID, owner)
		zonePath = f.deps.Paths.ZonePath(f.zone)
		restrict = f.BoolData("restrict_colls")
		colls    = f.StringSliceData("colls")
	)

	scriptUser := f.StringData("script_user")
	if scriptUser == "" {
		scriptUser = f.deps.Config.ScriptUser
	}

	f.AddTask(&tasks.RevertZoneFailTask{
		BaseTask:   f.task("revert_zone_fail"),
		Zones:      f.deps.Zones,
		Zone:       f.zone,
		FailStatus: models.ZoneStatusNotCreated,
		FlowName:   FlowCreate,
		Reason:     f.LastError,
	})

	f.AddTask(&tasks.CreateCollectionTask{
		BaseTask: f.task("create_landing_zone_area"),
		Client:   client,
		Path:     areaPath,
	})
	f.AddTask(&tasks.SetAccessTask{
		BaseTask:  f.task("grant_group_area_read"),
		Client:    client,
		Level:     irods.AccessRead,
		Path:      areaPath,
		Principal: group,
	})

	f.AddTask(&tasks.CreateUserTask{
		BaseTask: f.task("ensure_owner_user"),
		Client:   client,
		UserName: owner,
		UserType: "rodsuser",
	})

	f.AddTask(&tasks.CreateCollectionTask{
		BaseTask: f.task("create_user_collection"),
		Client:   client,
		Path:     userPath,
	})
	f.AddTask(&tasks.SetAccessTask{
		BaseTask:  f.task("grant_owner_user_read"),
		Client:    client,
		Level:     irods.AccessRead,
		Path:      userPath,
		Principal: owner,
	})

	f.AddTask(&tasks.CreateCollectionTask{
		BaseTask: f.task("create_zone_collection"),
		Client:   client,
		Path:     zonePath,
	})
	f.AddTask(&tasks.SetInheritTask{
		BaseTask: f.task("set_zone_inherit"),
		Client:   client,
		Path:     zonePath,
		Inherit:  true,
	})

	ownerLevel := irods.AccessOwn
	if restrict {
		ownerLevel = irods.AccessRead
	}

	f.AddTask(&tasks.SetAccessTask{
		BaseTask:  f.task("grant_owner_zone_access"),
		Client:    client,
		Level:     ownerLevel,
		Path:      zonePath,
		Principal: owner,
		Recursive: true,
	})

	if scriptUser != "" {
		f.AddTask(&tasks.CreateUserTask{
			BaseTask: f.task("ensure_script_user"),
			Client:   client,
			UserName: scriptUser,
			UserType: "rodsuser",
		})
		f.AddTask(&tasks.SetAccessTask{
			BaseTask:  f.task("grant_script_user_write"),
			Client:    client,
			Level:     irods.AccessWrite,
			Path:      zonePath,
			Principal: scriptUser,
			Recursive: true,
		})
	}

	if f.zone.Description != "" {
		f.AddTask(&tasks.SetCollectionMetadataTask{
			BaseTask: f.task("set_zone_description"),
			Client:   client,
			Path:     zonePath,
			Key:      "description",
			Value:    f.zone.Description,
		})
	}

	if len(colls) > 0 {
		collPaths := make([]string, 0, len(colls))
		for _, name := range colls {
			collPaths = append(collPaths, path.Join(zonePath, name))
		}

		f.AddTask(&tasks.BatchCreateCollectionsTask{
			BaseTask: f.task("create_zone_collections"),
			Client:   client,
			Paths:    collPaths,
		})

		if restrict {
			f.AddTask(&tasks.BatchSetAccessTask{
				BaseTask:  f.task("grant_owner_collection_access"),
				Client:    client,
				Level:     irods.AccessOwn,
				Paths:     collPaths,
				Principal: owner,
			})
		}
	}

	f.AddTask(&tasks.SetZoneStatusTask{
		BaseTask: f.task("set_zone_active"),
		Zones:    f.deps.Zones,
		Zone:     f.zone,
		Status:   models.ZoneStatusActive,
		FlowName: FlowCreate,
	})

	f.SetResult(f.zone.UUID)

	return nil
}
