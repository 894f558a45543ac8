package models

import "time"

// AlertLevel classifies in-app alerts raised on zone status transitions.
type AlertLevel string

const (
	AlertLevelInfo    AlertLevel = "info"
	AlertLevelSuccess AlertLevel = "success"
	AlertLevelDanger  AlertLevel = "danger"
)

// Alert is an in-app notification shown to a user after a zone reaches a
// finished status.
type Alert struct {
	UUID        string     `json:"uuid"`
	UserName    string     `json:"user_name"`
	ProjectUUID string     `json:"project_uuid"`
	ZoneUUID    string     `json:"zone_uuid"`
	Level       AlertLevel `json:"level"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"created_at"`
}
