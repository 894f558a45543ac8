// Package zones provides the landing zone service: zone creation with
// generated titles, submission admission control, the sanctioned status
// mutation path and the polled status read model.
package zones

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

const (
	titleTimeFormat = "20060102_150405"

	// titleRetryLimit bounds disambiguation attempts when a generated
	// title collides within (project, user).
	titleRetryLimit = 10
)

var (
	// ErrZoneBusy rejects a submission because the zone is not in an
	// updatable status.
	ErrZoneBusy = errors.New("zone does not accept updates in its current status")

	// ErrValidateLimit rejects a submission because the project already has
	// the maximum number of concurrent validations in flight.
	ErrValidateLimit = errors.New("project validation concurrency limit reached")
)

// IsConflict reports whether err is an admission control rejection (HTTP
// 409 at the web boundary).
func IsConflict(err error) bool {
	return errors.Is(err, ErrZoneBusy) || errors.Is(err, ErrValidateLimit)
}

// Service owns landing zone aggregates. All status transitions go through
// SetStatus so persistence and notification hooks stay consistent.
type Service struct {
	store         persistence.Persistence
	notifier      *notify.Dispatcher
	validateLimit int
	logger        *slog.Logger
}

func NewService(store persistence.Persistence, notifier *notify.Dispatcher, validateLimit int, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		notifier:      notifier,
		validateLimit: validateLimit,
		logger:        logger.With("module", "zones"),
	}
}

// CreateRequest carries the caller-supplied fields of a new landing zone.
type CreateRequest struct {
	ProjectUUID   string
	AssayUUID     string
	UserName      string
	TitleSuffix   string
	Description   string
	UserMessage   string
	Configuration string
	ConfigData    json.RawMessage
}

// Create allocates a new zone in CREATING status with a generated title of
// the form YYYYMMDD_HHMMSS[_suffix], unique within (project, user). A title
// collision gets a numeric disambiguator appended.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.LandingZone, error) {
	if _, err := s.store.Projects().GetByUUID(ctx, req.ProjectUUID); err != nil {
		return nil, err
	}

	if _, err := s.store.Assays().GetByUUID(ctx, req.AssayUUID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	title := now.Format(titleTimeFormat)
	if req.TitleSuffix != "" {
		title += "_" + req.TitleSuffix
	}

	zone := &models.LandingZone{
		UUID:          uuid.New().String(),
		Title:         title,
		ProjectUUID:   req.ProjectUUID,
		UserName:      req.UserName,
		AssayUUID:     req.AssayUUID,
		Status:        models.ZoneStatusCreating,
		StatusInfo:    models.ZoneStatusCreating.DefaultInfo(),
		Description:   req.Description,
		UserMessage:   req.UserMessage,
		Configuration: req.Configuration,
		ConfigData:    req.ConfigData,
		DateCreated:   now,
		DateModified:  now,
	}

	for attempt := 2; ; attempt++ {
		err := s.store.Zones().Save(ctx, zone)
		if err == nil {
			break
		}

		if !persistence.IsZoneTitleTaken(err) || attempt > titleRetryLimit {
			return nil, err
		}

		zone.Title = fmt.Sprintf("%s_%d", title, attempt)
	}

	s.logger.Info("Created landing zone",
		"zone", zone.UUID, "title", zone.Title, "project", zone.ProjectUUID, "user", zone.UserName)

	return zone, nil
}

// Get fetches a zone by uuid.
func (s *Service) Get(ctx context.Context, zoneUUID string) (*models.LandingZone, error) {
	return s.store.Zones().GetByUUID(ctx, zoneUUID)
}

// List returns the zones of a project ordered by creation time.
func (s *Service) List(ctx context.Context, projectUUID string) ([]*models.LandingZone, error) {
	return s.store.Zones().ListByProject(ctx, projectUUID)
}

// ListBusy returns all zones in any of the given busy statuses, across
// projects.
func (s *Service) ListBusy(ctx context.Context, statuses []models.ZoneStatus) ([]*models.LandingZone, error) {
	return s.store.Zones().ListByStatus(ctx, statuses)
}

// Status returns the polled read model for a zone.
func (s *Service) Status(ctx context.Context, zoneUUID string) (models.StatusRetrieve, error) {
	zone, err := s.store.Zones().GetByUUID(ctx, zoneUUID)
	if err != nil {
		return models.StatusRetrieve{}, err
	}

	return zone.Retrieve(), nil
}

// CheckSubmit performs admission control before a flow submission. The zone
// must be in an updatable status; submissions entering the validation path
// additionally count against the per-project concurrency limit.
func (s *Service) CheckSubmit(ctx context.Context, zone *models.LandingZone, countsAgainstValidateLimit bool) error {
	if !zone.Status.AllowUpdate() {
		return fmt.Errorf("%w: zone %s is %s", ErrZoneBusy, zone.UUID, zone.Status)
	}

	if !countsAgainstValidateLimit || s.validateLimit <= 0 {
		return nil
	}

	inFlight, err := s.store.Zones().CountByProjectStatus(ctx, zone.ProjectUUID,
		[]models.ZoneStatus{models.ZoneStatusPreparing, models.ZoneStatusValidating})
	if err != nil {
		return err
	}

	if inFlight >= s.validateLimit {
		return fmt.Errorf("%w: %d in flight", ErrValidateLimit, inFlight)
	}

	return nil
}

// SetStatus is the sole sanctioned status mutation path. It applies the
// transition in memory, persists the zone and dispatches notification hooks
// with the previous status. Extra carries flow context for the hooks.
func (s *Service) SetStatus(ctx context.Context, zone *models.LandingZone, status models.ZoneStatus, statusInfo, flowName string, extra map[string]any) error {
	prev := zone.Status

	if err := zone.SetStatus(status, statusInfo); err != nil {
		return err
	}

	if err := s.store.Zones().Save(ctx, zone); err != nil {
		return persistence.NewZoneError("set_status", zone.UUID, err)
	}

	s.logger.Info("Zone status changed",
		"zone", zone.UUID, "from", prev, "to", status, "flow", flowName)

	if s.notifier != nil {
		project, err := s.store.Projects().GetByUUID(ctx, zone.ProjectUUID)
		if err != nil {
			project = nil
		}

		s.notifier.Dispatch(ctx, notify.StatusChange{
			Zone:     zone,
			Project:  project,
			Prev:     prev,
			FlowName: flowName,
			Extra:    extra,
		})
	}

	return nil
}
