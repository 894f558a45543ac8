package irods

import (
	"path"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// DefaultRoot is the default storage zone root collection.
const DefaultRoot = "/omicsZone"

// PathBuilder derives collection paths for projects, landing zones and the
// sample data archive under a single configured root.
type PathBuilder struct {
	root string
}

func NewPathBuilder(root string) *PathBuilder {
	if root == "" {
		root = DefaultRoot
	}

	return &PathBuilder{root: path.Clean(root)}
}

// ProjectPath returns the project root collection, sharded by UUID prefix.
func (b *PathBuilder) ProjectPath(projectUUID string) string {
	prefix := projectUUID
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}

	return path.Join(b.root, "projects", prefix, projectUUID)
}

// LandingZoneAreaPath returns the landing zone area for a project.
func (b *PathBuilder) LandingZoneAreaPath(projectUUID string) string {
	return path.Join(b.ProjectPath(projectUUID), "landing_zones")
}

// UserZonePath returns the per-user collection within the landing zone area.
func (b *PathBuilder) UserZonePath(projectUUID, userName string) string {
	return path.Join(b.LandingZoneAreaPath(projectUUID), userName)
}

// ZonePath returns the zone's own collection.
func (b *PathBuilder) ZonePath(zone *models.LandingZone) string {
	return path.Join(b.UserZonePath(zone.ProjectUUID, zone.UserName), zone.AssayUUID, zone.Title)
}

// SampleDataPath returns the read-mostly sample data archive for a project.
func (b *PathBuilder) SampleDataPath(projectUUID string) string {
	return path.Join(b.ProjectPath(projectUUID), "sample_data")
}

// AssayPath returns the destination collection for a zone's assay within
// the sample data archive.
func (b *PathBuilder) AssayPath(projectUUID string, assay *models.Assay) string {
	return path.Join(
		b.SampleDataPath(projectUUID),
		"study_"+assay.StudyUUID,
		"assay_"+assay.UUID,
	)
}
