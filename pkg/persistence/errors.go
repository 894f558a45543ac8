package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrZoneNotFound indicates a landing zone was not found by the given identifier.
	ErrZoneNotFound = errors.New("landing zone not found")

	// ErrProjectNotFound indicates a project was not found by the given identifier.
	ErrProjectNotFound = errors.New("project not found")

	// ErrAssayNotFound indicates an assay was not found by the given identifier.
	ErrAssayNotFound = errors.New("assay not found")

	// ErrZoneTitleTaken indicates a zone with the same title already exists
	// for the same project and user.
	ErrZoneTitleTaken = errors.New("zone title already exists for project and user")
)

// ZoneError wraps zone-related persistence errors with operation context.
type ZoneError struct {
	Op       string
	ZoneUUID string
	Err      error
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("%s operation failed for zone %s: %v", e.Op, e.ZoneUUID, e.Err)
}

func (e *ZoneError) Unwrap() error {
	return e.Err
}

func (e *ZoneError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewZoneError creates a new zone error with context.
func NewZoneError(op, zoneUUID string, err error) *ZoneError {
	return &ZoneError{Op: op, ZoneUUID: zoneUUID, Err: err}
}

// IsZoneNotFound checks if an error indicates a zone was not found.
func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

// IsProjectNotFound checks if an error indicates a project was not found.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

// IsAssayNotFound checks if an error indicates an assay was not found.
func IsAssayNotFound(err error) bool {
	return errors.Is(err, ErrAssayNotFound)
}

// IsZoneTitleTaken checks if an error indicates a title uniqueness conflict.
func IsZoneTitleTaken(err error) bool {
	return errors.Is(err, ErrZoneTitleTaken)
}
