// Package events defines event types for flow submission hand-off and zone
// lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all zoneflow events on the bus.
const Topic = "zoneflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Flow submission hand-off events.
	FlowSubmittedEvent EventType = "flow.submitted"
	FlowSucceededEvent EventType = "flow.succeeded"
	FlowFailedEvent    EventType = "flow.failed"

	// Zone notification side channel.
	ZoneStatusChangedEvent      EventType = "zone.status_changed"
	ZoneMemberNotificationEvent EventType = "zone.member_notification"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ZoneUUID  string    `json:"zone_uuid,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
}

func NewBaseEvent(eventType EventType, zoneUUID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ZoneUUID:  zoneUUID,
	}
}

// FlowSubmitted is published by the API on an async submission and consumed
// by the worker, which runs the same engine path the sync mode uses. The
// submission id doubles as the audit timeline correlation handle.
type FlowSubmitted struct {
	BaseEvent

	SubmissionID string         `json:"submission_id"`
	TimelineID   string         `json:"timeline_id,omitempty"`
	FlowName     string         `json:"flow_name"`
	ProjectUUID  string         `json:"project_uuid"`
	FlowData     map[string]any `json:"flow_data"`
	RequestedBy  string         `json:"requested_by,omitempty"`
}

func (e FlowSubmitted) GetType() EventType {
	return FlowSubmittedEvent
}

// FlowSucceeded closes an async submission with an OK timeline outcome.
type FlowSucceeded struct {
	BaseEvent

	SubmissionID string        `json:"submission_id"`
	TimelineID   string        `json:"timeline_id,omitempty"`
	FlowName     string        `json:"flow_name"`
	Duration     time.Duration `json:"duration"`
}

func (e FlowSucceeded) GetType() EventType {
	return FlowSucceededEvent
}

// FlowFailed closes an async submission with a FAILED timeline outcome.
type FlowFailed struct {
	BaseEvent

	SubmissionID string `json:"submission_id"`
	TimelineID   string `json:"timeline_id,omitempty"`
	FlowName     string `json:"flow_name"`
	Error        string `json:"error"`
}

func (e FlowFailed) GetType() EventType {
	return FlowFailedEvent
}

// ZoneStatusChanged is published after a zone transitions into a finished
// status; external consumers (mailers, UI pushers) subscribe to it.
type ZoneStatusChanged struct {
	BaseEvent

	ProjectUUID string `json:"project_uuid"`
	UserName    string `json:"user_name"`
	Status      string `json:"status"`
	StatusInfo  string `json:"status_info"`
}

func (e ZoneStatusChanged) GetType() EventType {
	return ZoneStatusChangedEvent
}

// ZoneMemberNotification is published when a move completes with files so
// other project members can be informed.
type ZoneMemberNotification struct {
	BaseEvent

	ProjectUUID string `json:"project_uuid"`
	UserName    string `json:"user_name"`
	FileCount   int    `json:"file_count"`
	UserMessage string `json:"user_message,omitempty"`
}

func (e ZoneMemberNotification) GetType() EventType {
	return ZoneMemberNotificationEvent
}
