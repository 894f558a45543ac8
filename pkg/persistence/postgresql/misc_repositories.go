package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

type ProjectRepository struct {
	db *sql.DB
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (uuid, title, member_group, owner_group, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uuid) DO UPDATE SET
			title = EXCLUDED.title,
			member_group = EXCLUDED.member_group,
			owner_group = EXCLUDED.owner_group
	`

	_, err := r.db.ExecContext(ctx, query,
		project.UUID, project.Title, project.MemberGroup, project.OwnerGroup, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save project %s: %w", project.UUID, err)
	}

	return nil
}

func (r *ProjectRepository) GetByUUID(ctx context.Context, uuid string) (*models.Project, error) {
	project := &models.Project{}

	err := r.db.QueryRowContext(ctx,
		`SELECT uuid, title, member_group, owner_group, created_at FROM projects WHERE uuid = $1`, uuid,
	).Scan(&project.UUID, &project.Title, &project.MemberGroup, &project.OwnerGroup, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", uuid, err)
	}

	return project, nil
}

type AssayRepository struct {
	db *sql.DB
}

func (r *AssayRepository) Save(ctx context.Context, assay *models.Assay) error {
	query := `
		INSERT INTO assays (uuid, study_uuid, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid) DO UPDATE SET
			study_uuid = EXCLUDED.study_uuid,
			title = EXCLUDED.title
	`

	_, err := r.db.ExecContext(ctx, query, assay.UUID, assay.StudyUUID, assay.Title)
	if err != nil {
		return fmt.Errorf("failed to save assay %s: %w", assay.UUID, err)
	}

	return nil
}

func (r *AssayRepository) GetByUUID(ctx context.Context, uuid string) (*models.Assay, error) {
	assay := &models.Assay{}

	err := r.db.QueryRowContext(ctx,
		`SELECT uuid, study_uuid, title FROM assays WHERE uuid = $1`, uuid,
	).Scan(&assay.UUID, &assay.StudyUUID, &assay.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrAssayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assay %s: %w", uuid, err)
	}

	return assay, nil
}

type AlertRepository struct {
	db *sql.DB
}

func (r *AlertRepository) Save(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (uuid, user_name, project_uuid, zone_uuid, level, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.UUID, alert.UserName, alert.ProjectUUID, alert.ZoneUUID,
		alert.Level, alert.Message, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert %s: %w", alert.UUID, err)
	}

	return nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userName string) ([]*models.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uuid, user_name, project_uuid, zone_uuid, level, message, created_at
		 FROM alerts WHERE user_name = $1 ORDER BY created_at`, userName)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for user %s: %w", userName, err)
	}
	defer func() { _ = rows.Close() }()

	alerts := make([]*models.Alert, 0)

	for rows.Next() {
		alert := &models.Alert{}

		err := rows.Scan(&alert.UUID, &alert.UserName, &alert.ProjectUUID,
			&alert.ZoneUUID, &alert.Level, &alert.Message, &alert.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert rows: %w", err)
	}

	return alerts, nil
}
