package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zoneflow/zoneflow/pkg/eventbus"
	"github.com/zoneflow/zoneflow/pkg/events"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

// AlertHook persists an in-app alert for the zone owner when an operation
// they are waiting on finishes.
type AlertHook struct {
	alerts persistence.AlertRepository
}

func NewAlertHook(alerts persistence.AlertRepository) *AlertHook {
	return &AlertHook{alerts: alerts}
}

func (h *AlertHook) Name() string {
	return "alert"
}

func (h *AlertHook) Notify(ctx context.Context, change StatusChange) error {
	if !change.OwnerRelevant() {
		return nil
	}

	zone := change.Zone
	level := models.AlertLevelSuccess

	if zone.Status == models.ZoneStatusFailed || zone.Status == models.ZoneStatusNotCreated {
		level = models.AlertLevelDanger
	}

	return h.alerts.Save(ctx, &models.Alert{
		UUID:        uuid.New().String(),
		UserName:    zone.UserName,
		ProjectUUID: zone.ProjectUUID,
		ZoneUUID:    zone.UUID,
		Level:       level,
		Message:     fmt.Sprintf("Landing zone %s: %s (%s)", zone.Title, zone.Status, zone.StatusInfo),
		CreatedAt:   time.Now().UTC(),
	})
}

// EventHook publishes zone transitions onto the event bus for external
// consumers. Completed moves with files additionally notify project members.
type EventHook struct {
	publisher eventbus.EventPublisher
}

func NewEventHook(publisher eventbus.EventPublisher) *EventHook {
	return &EventHook{publisher: publisher}
}

func (h *EventHook) Name() string {
	return "event"
}

func (h *EventHook) Notify(ctx context.Context, change StatusChange) error {
	zone := change.Zone

	if change.OwnerRelevant() {
		statusEvent := events.ZoneStatusChanged{
			BaseEvent:   events.NewBaseEvent(events.ZoneStatusChangedEvent, zone.UUID),
			ProjectUUID: zone.ProjectUUID,
			UserName:    zone.UserName,
			Status:      string(zone.Status),
			StatusInfo:  zone.StatusInfo,
		}
		if err := h.publisher.Publish(ctx, zone.UUID, statusEvent); err != nil {
			return err
		}
	}

	if zone.Status == models.ZoneStatusMoved && change.FileCount() > 0 {
		memberEvent := events.ZoneMemberNotification{
			BaseEvent:   events.NewBaseEvent(events.ZoneMemberNotificationEvent, zone.UUID),
			ProjectUUID: zone.ProjectUUID,
			UserName:    zone.UserName,
			FileCount:   change.FileCount(),
			UserMessage: zone.UserMessage,
		}
		if err := h.publisher.Publish(ctx, zone.UUID, memberEvent); err != nil {
			return err
		}
	}

	return nil
}
