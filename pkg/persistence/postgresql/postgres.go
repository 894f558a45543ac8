// Package postgresql provides PostgreSQL persistence for zones, projects,
// assays and alerts.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	zoneRepo    *ZoneRepository
	projectRepo *ProjectRepository
	assayRepo   *AssayRepository
	alertRepo   *AlertRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		zoneRepo:    &ZoneRepository{db: database},
		projectRepo: &ProjectRepository{db: database},
		assayRepo:   &AssayRepository{db: database},
		alertRepo:   &AlertRepository{db: database},
	}, nil
}

var _ persistence.Persistence = (*Persistence)(nil)

func (p *Persistence) Zones() persistence.ZoneRepository       { return p.zoneRepo }
func (p *Persistence) Projects() persistence.ProjectRepository { return p.projectRepo }
func (p *Persistence) Assays() persistence.AssayRepository     { return p.assayRepo }
func (p *Persistence) Alerts() persistence.AlertRepository     { return p.alertRepo }

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
