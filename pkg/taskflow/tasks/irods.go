package tasks

import (
	"context"
	"fmt"

	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
)

// CreateCollectionTask creates a collection if absent. Revert removes the
// collection only when this task created it.
type CreateCollectionTask struct {
	taskflow.BaseTask

	Client irods.Client
	Path   string

	created bool
}

func (t *CreateCollectionTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	exists, err := t.Client.CollectionExists(ctx, t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat collection %s: %w", t.Path, err)
	}
	if exists {
		return nil, nil
	}

	if err := t.Client.CreateCollection(ctx, t.Path); err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", t.Path, err)
	}
	t.created = true

	return nil, nil
}

func (t *CreateCollectionTask) Revert(ctx context.Context) {
	if !t.created {
		return
	}

	if err := t.Client.RemoveCollection(ctx, t.Path); err != nil {
		t.Logger.Error("Failed to remove collection on revert", "path", t.Path, "error", err)
	}
}

// RemoveCollectionTask removes a collection and everything under it. An
// absent collection counts as success. The removal is not reversible.
type RemoveCollectionTask struct {
	taskflow.BaseTask

	Client irods.Client
	Path   string
}

func (t *RemoveCollectionTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if err := t.Client.RemoveCollection(ctx, t.Path); err != nil {
		return nil, fmt.Errorf("failed to remove collection %s: %w", t.Path, err)
	}

	return nil, nil
}

// SetAccessTask sets an ACL entry, restoring the principal's previous level
// on revert.
type SetAccessTask struct {
	taskflow.BaseTask

	Client    irods.Client
	Level     irods.AccessLevel
	Path      string
	Principal string
	Recursive bool

	executed  bool
	prevLevel irods.AccessLevel
}

func (t *SetAccessTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	entries, err := t.Client.GetAccess(ctx, t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read access on %s: %w", t.Path, err)
	}

	t.prevLevel = irods.AccessNull
	for _, entry := range entries {
		if entry.Principal == t.Principal {
			t.prevLevel = entry.Level

			break
		}
	}

	if t.prevLevel == t.Level {
		return nil, nil
	}

	if err := t.Client.SetAccess(ctx, t.Level, t.Path, t.Principal, t.Recursive); err != nil {
		return nil, fmt.Errorf("failed to set %s access for %s on %s: %w",
			t.Level, t.Principal, t.Path, err)
	}
	t.executed = true

	return nil, nil
}

func (t *SetAccessTask) Revert(ctx context.Context) {
	if !t.executed {
		return
	}

	if err := t.Client.SetAccess(ctx, t.prevLevel, t.Path, t.Principal, t.Recursive); err != nil {
		t.Logger.Error("Failed to restore access on revert",
			"path", t.Path, "principal", t.Principal, "error", err)
	}
}

// SetInheritTask toggles ACL inheritance on a collection.
type SetInheritTask struct {
	taskflow.BaseTask

	Client  irods.Client
	Path    string
	Inherit bool

	executed bool
}

func (t *SetInheritTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if err := t.Client.SetInherit(ctx, t.Path, t.Inherit); err != nil {
		return nil, fmt.Errorf("failed to set inherit on %s: %w", t.Path, err)
	}
	t.executed = true

	return nil, nil
}

func (t *SetInheritTask) Revert(ctx context.Context) {
	if !t.executed {
		return
	}

	if err := t.Client.SetInherit(ctx, t.Path, !t.Inherit); err != nil {
		t.Logger.Error("Failed to restore inherit on revert", "path", t.Path, "error", err)
	}
}

// CreateUserTask ensures a backend user exists. Users are never removed on
// revert; an account that already existed must survive, and one we created
// may already be referenced by ACLs outside this flow.
type CreateUserTask struct {
	taskflow.BaseTask

	Client   irods.Client
	UserName string
	UserType string
}

func (t *CreateUserTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	exists, err := t.Client.UserExists(ctx, t.UserName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", t.UserName, err)
	}
	if exists {
		return nil, nil
	}

	if err := t.Client.CreateUser(ctx, t.UserName, t.UserType); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", t.UserName, err)
	}

	return nil, nil
}

// SetCollectionMetadataTask attaches a metadata key/value to a collection.
type SetCollectionMetadataTask struct {
	taskflow.BaseTask

	Client irods.Client
	Path   string
	Key    string
	Value  string
}

func (t *SetCollectionMetadataTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if err := t.Client.SetCollectionMetadata(ctx, t.Path, t.Key, t.Value); err != nil {
		return nil, fmt.Errorf("failed to set metadata %s on %s: %w", t.Key, t.Path, err)
	}

	return nil, nil
}

// BatchCreateCollectionsTask creates a set of collections, removing on
// revert only the ones that did not already exist.
type BatchCreateCollectionsTask struct {
	taskflow.BaseTask

	Client irods.Client
	Paths  []string

	created []string
}

func (t *BatchCreateCollectionsTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	missing := make([]string, 0, len(t.Paths))
	for _, p := range t.Paths {
		exists, err := t.Client.CollectionExists(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat collection %s: %w", p, err)
		}
		if !exists {
			missing = append(missing, p)
		}
	}

	if len(missing) == 0 {
		return nil, nil
	}

	if err := t.Client.BatchCreateCollections(ctx, missing); err != nil {
		return nil, fmt.Errorf("failed to batch create collections: %w", err)
	}
	t.created = missing

	return nil, nil
}

func (t *BatchCreateCollectionsTask) Revert(ctx context.Context) {
	for _, p := range t.created {
		if err := t.Client.RemoveCollection(ctx, p); err != nil {
			t.Logger.Error("Failed to remove collection on revert", "path", p, "error", err)
		}
	}
}

// BatchSetAccessTask grants one principal the same level on a set of paths,
// revoking the grant on revert.
type BatchSetAccessTask struct {
	taskflow.BaseTask

	Client    irods.Client
	Level     irods.AccessLevel
	Paths     []string
	Principal string

	executed bool
}

func (t *BatchSetAccessTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if len(t.Paths) == 0 {
		return nil, nil
	}

	if err := t.Client.BatchSetAccess(ctx, t.Level, t.Paths, t.Principal); err != nil {
		return nil, fmt.Errorf("failed to batch set %s access for %s: %w",
			t.Level, t.Principal, err)
	}
	t.executed = true

	return nil, nil
}

func (t *BatchSetAccessTask) Revert(ctx context.Context) {
	if !t.executed || t.Level == irods.AccessNull {
		return
	}

	if err := t.Client.BatchSetAccess(ctx, irods.AccessNull, t.Paths, t.Principal); err != nil {
		t.Logger.Error("Failed to revoke batch access on revert",
			"principal", t.Principal, "error", err)
	}
}

// BatchMoveDataObjectsTask moves the given objects from the zone into the
// sample data archive, granting the project group access on each moved
// object. Revert moves them back.
type BatchMoveDataObjectsTask struct {
	taskflow.BaseTask

	Client    irods.Client
	SrcPaths  []string
	SrcRoot   string
	DestRoot  string
	Level     irods.AccessLevel
	Principal string

	executed bool
}

func (t *BatchMoveDataObjectsTask) Run(ctx context.Context) (any, error) {
	if err := t.Precheck(); err != nil {
		return nil, err
	}

	if len(t.SrcPaths) == 0 {
		return nil, nil
	}

	if err := t.Client.BatchMoveObjects(ctx, t.SrcPaths, t.SrcRoot, t.DestRoot, t.Level, t.Principal); err != nil {
		return nil, fmt.Errorf("failed to move objects into %s: %w", t.DestRoot, err)
	}
	t.executed = true

	return nil, nil
}

func (t *BatchMoveDataObjectsTask) Revert(ctx context.Context) {
	if !t.executed {
		return
	}

	destPaths := make([]string, 0, len(t.SrcPaths))
	for _, src := range t.SrcPaths {
		destPaths = append(destPaths, rebasePath(src, t.SrcRoot, t.DestRoot))
	}

	if err := t.Client.BatchMoveObjects(ctx, destPaths, t.DestRoot, t.SrcRoot, irods.AccessNull, ""); err != nil {
		t.Logger.Error("Failed to move objects back on revert",
			"dest", t.DestRoot, "error", err)
	}
}
