// Package web provides the HTTP boundary: zone CRUD, flow submission and
// the polled status read model.
package web

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/zoneflow/zoneflow/pkg/eventbus"
	"github.com/zoneflow/zoneflow/pkg/events"
	"github.com/zoneflow/zoneflow/pkg/flows"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

type Handlers struct {
	zones      *zones.Service
	store      persistence.Persistence
	engine     *taskflow.Engine
	eventBus   eventbus.EventBus
	extensions *zonecfg.Registry
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewHandlers(
	zoneService *zones.Service,
	store persistence.Persistence,
	engine *taskflow.Engine,
	eventBus eventbus.EventBus,
	extensions *zonecfg.Registry,
	validate *validator.Validate,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		zones:      zoneService,
		store:      store,
		engine:     engine,
		eventBus:   eventBus,
		extensions: extensions,
		validate:   validate,
		logger:     logger.With("module", "web"),
	}
}

// RegisterRoutes mounts the zone endpoints on the app.
func (h *Handlers) RegisterRoutes(app *fiber.App) {
	v1 := app.Group("/v1")
	v1.Post("/zones", h.CreateZone)
	v1.Get("/zones", h.ListZones)
	v1.Get("/zones/:uuid/status", h.GetZoneStatus)
	v1.Post("/zones/:uuid/move", h.MoveZone)
	v1.Post("/zones/:uuid/validate", h.ValidateZone)
	v1.Delete("/zones/:uuid", h.DeleteZone)

	app.Get("/health", h.HealthCheck)
}

func (h *Handlers) CreateZone(c fiber.Ctx) error {
	var req CreateZoneRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	// Configuration extension and its schema are checked before anything
	// is persisted.
	ext, err := h.extensions.Get(req.Configuration)
	if err != nil {
		return handleSubmitError(c, err)
	}
	if ext != nil {
		if err := ext.ValidateConfig(req.ConfigData); err != nil {
			return handleSubmitError(c, err)
		}
	}

	project, err := h.store.Projects().GetByUUID(c.Context(), req.ProjectUUID)
	if err != nil {
		return handleSubmitError(c, err)
	}

	zone, err := h.zones.Create(c.Context(), zones.CreateRequest{
		ProjectUUID:   req.ProjectUUID,
		AssayUUID:     req.AssayUUID,
		UserName:      req.UserName,
		TitleSuffix:   req.TitleSuffix,
		Description:   req.Description,
		UserMessage:   req.UserMessage,
		Configuration: req.Configuration,
		ConfigData:    req.ConfigData,
	})
	if err != nil {
		return handleSubmitError(c, err)
	}

	flowData := map[string]any{
		"zone_uuid":      zone.UUID,
		"colls":          req.Colls,
		"restrict_colls": req.RestrictColls,
		"script_user":    req.ScriptUser,
	}

	if req.Async {
		return h.acceptAsync(c, zone, flows.FlowCreate, project.UUID, flowData)
	}

	if _, err := h.engine.Submit(c.Context(), taskflow.SubmitRequest{
		FlowName: flows.FlowCreate,
		Project:  project,
		FlowData: flowData,
		Mode:     taskflow.ModeSync,
	}); err != nil {
		return handleSubmitError(c, err)
	}

	zone, err = h.zones.Get(c.Context(), zone.UUID)
	if err != nil {
		return handleSubmitError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(zone)
}

func (h *Handlers) MoveZone(c fiber.Ctx) error {
	// Moves default to async: validation plus transfer can far outlive an
	// HTTP request.
	return h.submitMove(c, false, true)
}

func (h *Handlers) ValidateZone(c fiber.Ctx) error {
	return h.submitMove(c, true, false)
}

func (h *Handlers) submitMove(c fiber.Ctx, validateOnly, asyncDefault bool) error {
	var req MoveZoneRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	zone, project, err := h.loadZoneProject(c.Context(), c.Params("uuid"))
	if err != nil {
		return handleSubmitError(c, err)
	}

	if err := h.zones.CheckSubmit(c.Context(), zone, true); err != nil {
		return handleSubmitError(c, err)
	}

	flowData := map[string]any{
		"zone_uuid":     zone.UUID,
		"validate_only": validateOnly,
	}
	if req.Prohibited != nil {
		flowData["prohibited"] = req.Prohibited
	}

	async := asyncDefault
	if req.Async != nil {
		async = *req.Async
	}

	if async {
		return h.acceptAsync(c, zone, flows.FlowMove, project.UUID, flowData)
	}

	result, err := h.engine.Submit(c.Context(), taskflow.SubmitRequest{
		FlowName: flows.FlowMove,
		Project:  project,
		FlowData: flowData,
		Mode:     taskflow.ModeSync,
	})
	if err != nil {
		return handleSubmitError(c, err)
	}

	fileCount, _ := result.(int)
	zone, err = h.zones.Get(c.Context(), zone.UUID)
	if err != nil {
		return handleSubmitError(c, err)
	}

	return c.JSON(FlowResultResponse{
		ZoneUUID:  zone.UUID,
		Status:    zone.Status,
		FileCount: fileCount,
	})
}

func (h *Handlers) DeleteZone(c fiber.Ctx) error {
	zone, project, err := h.loadZoneProject(c.Context(), c.Params("uuid"))
	if err != nil {
		return handleSubmitError(c, err)
	}

	if err := h.zones.CheckSubmit(c.Context(), zone, false); err != nil {
		return handleSubmitError(c, err)
	}

	flowData := map[string]any{"zone_uuid": zone.UUID}

	if c.Query("sync") != "true" {
		return h.acceptAsync(c, zone, flows.FlowDelete, project.UUID, flowData)
	}

	if _, err := h.engine.Submit(c.Context(), taskflow.SubmitRequest{
		FlowName: flows.FlowDelete,
		Project:  project,
		FlowData: flowData,
		Mode:     taskflow.ModeSync,
	}); err != nil {
		return handleSubmitError(c, err)
	}

	zone, err = h.zones.Get(c.Context(), zone.UUID)
	if err != nil {
		return handleSubmitError(c, err)
	}

	return c.JSON(FlowResultResponse{ZoneUUID: zone.UUID, Status: zone.Status})
}

func (h *Handlers) GetZoneStatus(c fiber.Ctx) error {
	status, err := h.zones.Status(c.Context(), c.Params("uuid"))
	if err != nil {
		return handleSubmitError(c, err)
	}

	return c.JSON(status)
}

func (h *Handlers) ListZones(c fiber.Ctx) error {
	projectUUID := c.Query("project")
	if projectUUID == "" {
		return badRequest(c, "project query parameter is required")
	}

	zoneList, err := h.zones.List(c.Context(), projectUUID)
	if err != nil {
		return handleSubmitError(c, err)
	}

	return c.JSON(fiber.Map{"zones": zoneList, "count": len(zoneList)})
}

func (h *Handlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

func (h *Handlers) loadZoneProject(ctx context.Context, zoneUUID string) (*models.LandingZone, *models.Project, error) {
	zone, err := h.zones.Get(ctx, zoneUUID)
	if err != nil {
		return nil, nil, err
	}

	project, err := h.store.Projects().GetByUUID(ctx, zone.ProjectUUID)
	if err != nil {
		return nil, nil, err
	}

	return zone, project, nil
}

// acceptAsync publishes the submission for the worker and acknowledges it.
func (h *Handlers) acceptAsync(c fiber.Ctx, zone *models.LandingZone, flowName, projectUUID string, flowData map[string]any) error {
	submissionID := h.eventBus.GenerateID()

	event := events.FlowSubmitted{
		BaseEvent:    events.NewBaseEvent(events.FlowSubmittedEvent, zone.UUID),
		SubmissionID: submissionID,
		FlowName:     flowName,
		ProjectUUID:  projectUUID,
		FlowData:     flowData,
		RequestedBy:  zone.UserName,
	}

	if err := h.eventBus.Publish(c.Context(), zone.UUID, event); err != nil {
		h.logger.Error("Failed to publish flow submission",
			"flow", flowName, "zone", zone.UUID, "error", err)

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(SubmissionResponse{
		SubmissionID: submissionID,
		ZoneUUID:     zone.UUID,
		FlowName:     flowName,
	})
}
