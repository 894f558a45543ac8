package file

import (
	"context"
	"sort"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

type ProjectRepository struct {
	root string
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	return writeDocument(r.root, "projects", project.UUID, project)
}

func (r *ProjectRepository) GetByUUID(ctx context.Context, uuid string) (*models.Project, error) {
	project := &models.Project{}

	found, err := readDocument(r.root, "projects", uuid, project)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, persistence.ErrProjectNotFound
	}

	return project, nil
}

type AssayRepository struct {
	root string
}

func (r *AssayRepository) Save(ctx context.Context, assay *models.Assay) error {
	return writeDocument(r.root, "assays", assay.UUID, assay)
}

func (r *AssayRepository) GetByUUID(ctx context.Context, uuid string) (*models.Assay, error) {
	assay := &models.Assay{}

	found, err := readDocument(r.root, "assays", uuid, assay)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, persistence.ErrAssayNotFound
	}

	return assay, nil
}

type AlertRepository struct {
	root string
}

func (r *AlertRepository) Save(ctx context.Context, alert *models.Alert) error {
	return writeDocument(r.root, "alerts", alert.UUID, alert)
}

func (r *AlertRepository) ListByUser(ctx context.Context, userName string) ([]*models.Alert, error) {
	ids, err := listDocumentIDs(r.root, "alerts")
	if err != nil {
		return nil, err
	}

	alerts := make([]*models.Alert, 0)
	for _, id := range ids {
		alert := &models.Alert{}

		found, err := readDocument(r.root, "alerts", id, alert)
		if err != nil {
			return nil, err
		}

		if found && alert.UserName == userName {
			alerts = append(alerts, alert)
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.Before(alerts[j].CreatedAt)
	})

	return alerts, nil
}
