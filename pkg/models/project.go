package models

import "time"

// Project is the lock scope for landing zone flows. Zones reference projects
// read-only; project membership itself is managed by the surrounding
// application.
type Project struct {
	UUID        string    `json:"uuid"  validate:"required,uuid4"`
	Title       string    `json:"title" validate:"required"`
	MemberGroup string    `json:"member_group"`
	OwnerGroup  string    `json:"owner_group"`
	CreatedAt   time.Time `json:"created_at"`
}

// GroupName returns the storage backend group of project members, granted
// read access on archived sample data.
func (p *Project) GroupName() string {
	if p.MemberGroup != "" {
		return p.MemberGroup
	}

	return "omics_project_" + p.UUID
}

// OwnerGroupName returns the storage backend group of project owners,
// granted read access on a zone while a move manipulates it. The grant is
// revoked on the destination after the move.
func (p *Project) OwnerGroupName() string {
	if p.OwnerGroup != "" {
		return p.OwnerGroup
	}

	return "omics_project_owner_" + p.UUID
}

// Assay is the target location in the sample data archive a zone moves
// files into.
type Assay struct {
	UUID       string `json:"uuid"       validate:"required,uuid4"`
	StudyUUID  string `json:"study_uuid" validate:"required,uuid4"`
	Title      string `json:"title"`
}
