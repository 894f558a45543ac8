// Package models defines the core domain models for landing zone orchestration.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatusInfoMaxLength bounds the stored status_info text. Longer messages
// are clipped and flagged as truncated.
const StatusInfoMaxLength = 1024

var (
	// ErrInvalidStatus is returned when a status outside the closed set is requested.
	ErrInvalidStatus = errors.New("invalid zone status")
	// ErrZoneFinished is returned when a transition is requested on a zone
	// that already reached a terminal status.
	ErrZoneFinished = errors.New("zone status is finished, no further transitions accepted")
)

// LandingZone is a per-user, per-assay staging area in the storage backend
// where newly produced files are uploaded before being accepted into the
// sample data archive.
type LandingZone struct {
	UUID                string          `json:"uuid"`
	Title               string          `json:"title"         validate:"required"`
	ProjectUUID         string          `json:"project_uuid"  validate:"required,uuid4"`
	UserName            string          `json:"user_name"     validate:"required"`
	AssayUUID           string          `json:"assay_uuid"    validate:"required,uuid4"`
	Status              ZoneStatus      `json:"status"`
	StatusInfo          string          `json:"status_info"`
	StatusInfoTruncated bool            `json:"status_info_truncated"`
	Description         string          `json:"description,omitempty"`
	UserMessage         string          `json:"user_message,omitempty"`
	Configuration       string          `json:"configuration,omitempty"`
	ConfigData          json.RawMessage `json:"config_data,omitempty"`
	DateCreated         time.Time       `json:"date_created"`
	DateModified        time.Time       `json:"date_modified"`
}

// SetStatus mutates status and status_info in memory. It rejects values
// outside the closed status set and transitions out of a finished status,
// leaving the zone unchanged in both cases. An empty statusInfo falls back
// to the per-status default message. Callers are expected to persist the
// zone afterwards; the zones service is the only sanctioned call site.
func (z *LandingZone) SetStatus(status ZoneStatus, statusInfo string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if z.Status.Finished() {
		return fmt.Errorf("%w: %s", ErrZoneFinished, z.Status)
	}

	if statusInfo == "" {
		statusInfo = status.DefaultInfo()
	}

	z.Status = status
	z.StatusInfo, z.StatusInfoTruncated = clipStatusInfo(statusInfo)
	z.DateModified = time.Now().UTC()

	return nil
}

func clipStatusInfo(info string) (string, bool) {
	runes := []rune(info)
	if len(runes) <= StatusInfoMaxLength {
		return info, false
	}

	return string(runes[:StatusInfoMaxLength]), true
}

// StatusRetrieve is the polled read model for a zone's current state.
type StatusRetrieve struct {
	Status       ZoneStatus `json:"status"`
	StatusInfo   string     `json:"status_info"`
	Truncated    bool       `json:"truncated"`
	DateModified int64      `json:"date_modified"`
}

// Retrieve returns the status read model for the zone.
func (z *LandingZone) Retrieve() StatusRetrieve {
	return StatusRetrieve{
		Status:       z.Status,
		StatusInfo:   z.StatusInfo,
		Truncated:    z.StatusInfoTruncated,
		DateModified: z.DateModified.Unix(),
	}
}
