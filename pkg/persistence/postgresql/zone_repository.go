package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

// ZoneRepository handles landing zone rows.
type ZoneRepository struct {
	db *sql.DB
}

const zoneColumns = `uuid, title, project_uuid, user_name, assay_uuid, status,
	status_info, status_info_truncated, description, user_message,
	configuration, config_data, date_created, date_modified`

func (r *ZoneRepository) Save(ctx context.Context, zone *models.LandingZone) error {
	query := `
		INSERT INTO landing_zones (` + zoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (uuid) DO UPDATE SET
			status = EXCLUDED.status,
			status_info = EXCLUDED.status_info,
			status_info_truncated = EXCLUDED.status_info_truncated,
			description = EXCLUDED.description,
			user_message = EXCLUDED.user_message,
			configuration = EXCLUDED.configuration,
			config_data = EXCLUDED.config_data,
			date_modified = EXCLUDED.date_modified
	`

	var configData any
	if len(zone.ConfigData) > 0 {
		configData = []byte(zone.ConfigData)
	}

	_, err := r.db.ExecContext(ctx, query,
		zone.UUID, zone.Title, zone.ProjectUUID, zone.UserName, zone.AssayUUID,
		zone.Status, zone.StatusInfo, zone.StatusInfoTruncated, zone.Description,
		zone.UserMessage, zone.Configuration, configData,
		zone.DateCreated, zone.DateModified,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return persistence.NewZoneError("Save", zone.UUID, persistence.ErrZoneTitleTaken)
		}

		return persistence.NewZoneError("Save", zone.UUID, err)
	}

	return nil
}

func (r *ZoneRepository) GetByUUID(ctx context.Context, uuid string) (*models.LandingZone, error) {
	query := `SELECT ` + zoneColumns + ` FROM landing_zones WHERE uuid = $1`

	zone, err := scanZone(r.db.QueryRowContext(ctx, query, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewZoneError("GetByUUID", uuid, persistence.ErrZoneNotFound)
	}
	if err != nil {
		return nil, persistence.NewZoneError("GetByUUID", uuid, err)
	}

	return zone, nil
}

func (r *ZoneRepository) ListByProject(ctx context.Context, projectUUID string) ([]*models.LandingZone, error) {
	query := `SELECT ` + zoneColumns + `
		FROM landing_zones WHERE project_uuid = $1 ORDER BY date_created`

	rows, err := r.db.QueryContext(ctx, query, projectUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones for project %s: %w", projectUUID, err)
	}
	defer func() { _ = rows.Close() }()

	zones := make([]*models.LandingZone, 0)

	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}

		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone rows: %w", err)
	}

	return zones, nil
}

func (r *ZoneRepository) ListByStatus(ctx context.Context, statuses []models.ZoneStatus) ([]*models.LandingZone, error) {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}

	query := `SELECT ` + zoneColumns + `
		FROM landing_zones WHERE status = ANY($1) ORDER BY date_created`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(values))
	if err != nil {
		return nil, fmt.Errorf("failed to list zones by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	zones := make([]*models.LandingZone, 0)

	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan zone row: %w", err)
		}

		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zone rows: %w", err)
	}

	return zones, nil
}

func (r *ZoneRepository) CountByProjectStatus(ctx context.Context, projectUUID string, statuses []models.ZoneStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}

	query := `SELECT COUNT(*) FROM landing_zones
		WHERE project_uuid = $1 AND status = ANY($2)`

	var count int

	err := r.db.QueryRowContext(ctx, query, projectUUID, pq.Array(values)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count zones for project %s: %w", projectUUID, err)
	}

	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanZone(row rowScanner) (*models.LandingZone, error) {
	zone := &models.LandingZone{}

	var configData []byte

	err := row.Scan(
		&zone.UUID, &zone.Title, &zone.ProjectUUID, &zone.UserName, &zone.AssayUUID,
		&zone.Status, &zone.StatusInfo, &zone.StatusInfoTruncated, &zone.Description,
		&zone.UserMessage, &zone.Configuration, &configData,
		&zone.DateCreated, &zone.DateModified,
	)
	if err != nil {
		return nil, err
	}

	if len(configData) > 0 {
		zone.ConfigData = configData
	}

	return zone, nil
}
