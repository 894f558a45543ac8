// Package main provides the zoneflow worker: it consumes flow submissions
// from the event bus and runs them through the same engine the API uses for
// synchronous requests.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zoneflow/zoneflow/pkg/eventbus"
	"github.com/zoneflow/zoneflow/pkg/events"
	"github.com/zoneflow/zoneflow/pkg/flows"
	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/janitor"
	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

type WorkerConfig struct {
	StorageRoot        string
	ChecksumScheme     irods.ChecksumScheme
	ValidateLimit      int
	ProhibitedSuffixes []string
	AdminUser          string
	ScriptUser         string
	JanitorSchedule    string
	JanitorMaxAge      time.Duration
}

type WorkerManager struct {
	id              string
	logger          *slog.Logger
	store           persistence.Persistence
	engine          *taskflow.Engine
	eventBus        eventbus.EventBus
	janitor         *janitor.Janitor
	janitorSchedule string
}

func NewWorkerManager(
	id string,
	store persistence.Persistence,
	storage irods.Client,
	eventBus eventbus.EventBus,
	locks *lock.Service,
	config WorkerConfig,
	logger *slog.Logger,
) *WorkerManager {
	dispatcher := notify.NewDispatcher(logger,
		notify.NewAlertHook(store.Alerts()),
		notify.NewEventHook(eventBus),
	)
	zoneService := zones.NewService(store, dispatcher, config.ValidateLimit, logger)

	registry := taskflow.NewRegistry()
	flows.Register(registry, flows.Deps{
		Storage:    storage,
		Zones:      zoneService,
		Store:      store,
		Paths:      irods.NewPathBuilder(config.StorageRoot),
		Extensions: zonecfg.NewRegistry(zonecfg.NewProteomicsSMB()),
		Config: flows.Config{
			ChecksumScheme:     config.ChecksumScheme,
			AdminUser:          config.AdminUser,
			ScriptUser:         config.ScriptUser,
			ProhibitedSuffixes: config.ProhibitedSuffixes,
		},
		Logger: logger,
	})

	j := janitor.New(zoneService, config.JanitorMaxAge, logger)

	return &WorkerManager{
		id:              id,
		logger:          logger.With("module", "zoneflow-worker", "worker_id", id),
		store:           store,
		engine:          taskflow.NewEngine(registry, locks, logger),
		eventBus:        eventBus,
		janitor:         j,
		janitorSchedule: config.JanitorSchedule,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.FlowSubmittedEvent, w.handleFlowSubmitted)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if err := w.janitor.Start(ctx, w.janitorSchedule); err != nil {
		return err
	}
	defer w.janitor.Stop()

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleFlowSubmitted(ctx context.Context, event any) error {
	submitted, ok := event.(*events.FlowSubmitted)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for FlowSubmitted")

		return nil
	}

	logger := w.logger.With(
		"submission_id", submitted.SubmissionID,
		"flow", submitted.FlowName,
		"zone", submitted.ZoneUUID,
	)
	logger.InfoContext(ctx, "Processing flow submission")

	project, err := w.store.Projects().GetByUUID(ctx, submitted.ProjectUUID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load project", "error", err)

		return w.publishFailed(ctx, submitted, err)
	}

	started := time.Now()

	_, err = w.engine.Submit(ctx, taskflow.SubmitRequest{
		FlowName: submitted.FlowName,
		Project:  project,
		FlowData: submitted.FlowData,
		Mode:     taskflow.ModeAsync,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Flow submission failed", "error", err)

		return w.publishFailed(ctx, submitted, err)
	}

	succeededEvent := events.FlowSucceeded{
		BaseEvent:    events.NewBaseEvent(events.FlowSucceededEvent, submitted.ZoneUUID),
		SubmissionID: submitted.SubmissionID,
		TimelineID:   submitted.TimelineID,
		FlowName:     submitted.FlowName,
		Duration:     time.Since(started),
	}
	succeededEvent.WorkerID = w.id

	if publishErr := w.eventBus.Publish(ctx, submitted.ZoneUUID, succeededEvent); publishErr != nil {
		logger.ErrorContext(ctx, "Failed to publish flow succeeded event", "error", publishErr)
	}

	logger.InfoContext(ctx, "Flow submission completed", "duration", time.Since(started))

	return nil
}

// publishFailed closes the submission with a failure event. The flow has
// already compensated and marked the zone; the event exists for the
// submitter's audit trail, so the submission is not retried.
func (w *WorkerManager) publishFailed(ctx context.Context, submitted *events.FlowSubmitted, cause error) error {
	failedEvent := events.FlowFailed{
		BaseEvent:    events.NewBaseEvent(events.FlowFailedEvent, submitted.ZoneUUID),
		SubmissionID: submitted.SubmissionID,
		TimelineID:   submitted.TimelineID,
		FlowName:     submitted.FlowName,
		Error:        cause.Error(),
	}
	failedEvent.WorkerID = w.id

	if publishErr := w.eventBus.Publish(ctx, submitted.ZoneUUID, failedEvent); publishErr != nil {
		w.logger.ErrorContext(ctx, "Failed to publish flow failed event", "error", publishErr)
	}

	return nil
}
