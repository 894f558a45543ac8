package web

import (
	"encoding/json"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// CreateZoneRequest creates a landing zone and provisions it in storage.
type CreateZoneRequest struct {
	ProjectUUID   string          `json:"project_uuid"  validate:"required,uuid4"`
	AssayUUID     string          `json:"assay_uuid"    validate:"required,uuid4"`
	UserName      string          `json:"user_name"     validate:"required"`
	TitleSuffix   string          `json:"title_suffix,omitempty"`
	Description   string          `json:"description,omitempty"`
	UserMessage   string          `json:"user_message,omitempty"`
	Configuration string          `json:"configuration,omitempty"`
	ConfigData    json.RawMessage `json:"config_data,omitempty"`
	Colls         []string        `json:"colls,omitempty"`
	RestrictColls bool            `json:"restrict_colls,omitempty"`
	ScriptUser    string          `json:"script_user,omitempty"`
	// Async hands provisioning to the worker instead of running inline.
	Async bool `json:"async,omitempty"`
}

// MoveZoneRequest submits a move or validate-only flow for a zone.
type MoveZoneRequest struct {
	Prohibited []string `json:"prohibited,omitempty"`
	Async      *bool    `json:"async,omitempty"`
}

// SubmissionResponse acknowledges an async submission. The submission id
// correlates the eventual flow.succeeded/flow.failed event.
type SubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
	ZoneUUID     string `json:"zone_uuid"`
	FlowName     string `json:"flow_name"`
}

// FlowResultResponse reports the outcome of a synchronous flow run.
type FlowResultResponse struct {
	ZoneUUID  string            `json:"zone_uuid"`
	Status    models.ZoneStatus `json:"status"`
	FileCount int               `json:"file_count,omitempty"`
}
