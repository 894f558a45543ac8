package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func serviceUnavailable(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(503).
		WithInstance(c.Path()).
		WithType("lock_unavailable").
		WithDetail(detail)

	return c.Status(fiber.StatusServiceUnavailable).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleSubmitError maps flow submission failures onto HTTP status codes.
func handleSubmitError(c fiber.Ctx, err error) error {
	switch {
	case taskflow.IsValidationError(err),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, zonecfg.ErrUnknownConfiguration),
		errors.Is(err, zonecfg.ErrInvalidConfigData):
		return badRequest(c, err.Error())

	case persistence.IsZoneNotFound(err):
		return notFound(c, "landing zone not found")

	case persistence.IsProjectNotFound(err):
		return notFound(c, "project not found")

	case persistence.IsAssayNotFound(err):
		return notFound(c, "assay not found")

	case zones.IsConflict(err), errors.Is(err, models.ErrZoneFinished):
		return conflict(c, err.Error())

	case lock.IsAcquireError(err):
		return serviceUnavailable(c, err.Error())

	default:
		return internalError(c, err)
	}
}
