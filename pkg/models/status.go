package models

// ZoneStatus represents the lifecycle state of a landing zone.
type ZoneStatus string

const (
	ZoneStatusCreating   ZoneStatus = "CREATING"
	ZoneStatusNotCreated ZoneStatus = "NOT CREATED"
	ZoneStatusActive     ZoneStatus = "ACTIVE"
	ZoneStatusPreparing  ZoneStatus = "PREPARING"
	ZoneStatusValidating ZoneStatus = "VALIDATING"
	ZoneStatusMoving     ZoneStatus = "MOVING"
	ZoneStatusMoved      ZoneStatus = "MOVED"
	ZoneStatusFailed     ZoneStatus = "FAILED"
	ZoneStatusDeleting   ZoneStatus = "DELETING"
	ZoneStatusDeleted    ZoneStatus = "DELETED"
)

// zoneStatuses is the closed set of legal status values.
var zoneStatuses = map[ZoneStatus]struct{}{
	ZoneStatusCreating:   {},
	ZoneStatusNotCreated: {},
	ZoneStatusActive:     {},
	ZoneStatusPreparing:  {},
	ZoneStatusValidating: {},
	ZoneStatusMoving:     {},
	ZoneStatusMoved:      {},
	ZoneStatusFailed:     {},
	ZoneStatusDeleting:   {},
	ZoneStatusDeleted:    {},
}

// defaultStatusInfo is used when SetStatus is called without an explicit message.
var defaultStatusInfo = map[ZoneStatus]string{
	ZoneStatusCreating:   "Creating landing zone in the storage backend",
	ZoneStatusNotCreated: "Creating landing zone failed",
	ZoneStatusActive:     "Available with write access for user",
	ZoneStatusPreparing:  "Preparing transaction for validation and moving",
	ZoneStatusValidating: "Validation in progress, write access disabled",
	ZoneStatusMoving:     "Validation OK, moving files into the sample data archive",
	ZoneStatusMoved:      "Files moved successfully, landing zone removed",
	ZoneStatusFailed:     "Validation or moving failed",
	ZoneStatusDeleting:   "Deletion in progress, write access disabled",
	ZoneStatusDeleted:    "Landing zone deleted",
}

// Valid reports whether the status is a member of the closed status set.
func (s ZoneStatus) Valid() bool {
	_, ok := zoneStatuses[s]
	return ok
}

// DefaultInfo returns the fallback status_info message for the status.
func (s ZoneStatus) DefaultInfo() string {
	return defaultStatusInfo[s]
}

// Finished reports whether the status is terminal: no further transitions
// are accepted once a zone reaches it.
func (s ZoneStatus) Finished() bool {
	switch s {
	case ZoneStatusMoved, ZoneStatusNotCreated, ZoneStatusDeleted:
		return true
	default:
		return false
	}
}

// Busy reports whether an external operation is in progress and write
// access to the zone is implicitly disabled.
func (s ZoneStatus) Busy() bool {
	switch s {
	case ZoneStatusCreating, ZoneStatusPreparing, ZoneStatusValidating,
		ZoneStatusMoving, ZoneStatusDeleting:
		return true
	default:
		return false
	}
}

// Locking reports whether the status implies the project should be treated
// as locked by the orchestration layer even after the distributed lock has
// been released.
func (s ZoneStatus) Locking() bool {
	switch s {
	case ZoneStatusPreparing, ZoneStatusValidating, ZoneStatusMoving:
		return true
	default:
		return false
	}
}

// AllowUpdate reports whether the zone may accept a new validate, move or
// delete request.
func (s ZoneStatus) AllowUpdate() bool {
	return s == ZoneStatusActive || s == ZoneStatusFailed
}
