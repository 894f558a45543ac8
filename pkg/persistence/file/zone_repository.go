package file

import (
	"context"
	"sort"
	"sync"

	"github.com/zoneflow/zoneflow/pkg/models"
	"github.com/zoneflow/zoneflow/pkg/persistence"
)

// ZoneRepository stores one JSON document per landing zone.
type ZoneRepository struct {
	root string
	mu   sync.Mutex
}

func (r *ZoneRepository) Save(ctx context.Context, zone *models.LandingZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Enforce (title, project, user) uniqueness across other zones.
	existing, err := r.listByProjectLocked(zone.ProjectUUID)
	if err != nil {
		return persistence.NewZoneError("Save", zone.UUID, err)
	}

	for _, other := range existing {
		if other.UUID != zone.UUID && other.Title == zone.Title && other.UserName == zone.UserName {
			return persistence.NewZoneError("Save", zone.UUID, persistence.ErrZoneTitleTaken)
		}
	}

	if err := writeDocument(r.root, "zones", zone.UUID, zone); err != nil {
		return persistence.NewZoneError("Save", zone.UUID, err)
	}

	return nil
}

func (r *ZoneRepository) GetByUUID(ctx context.Context, uuid string) (*models.LandingZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	zone := &models.LandingZone{}

	found, err := readDocument(r.root, "zones", uuid, zone)
	if err != nil {
		return nil, persistence.NewZoneError("GetByUUID", uuid, err)
	}
	if !found {
		return nil, persistence.NewZoneError("GetByUUID", uuid, persistence.ErrZoneNotFound)
	}

	return zone, nil
}

func (r *ZoneRepository) ListByProject(ctx context.Context, projectUUID string) ([]*models.LandingZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listByProjectLocked(projectUUID)
}

func (r *ZoneRepository) listByProjectLocked(projectUUID string) ([]*models.LandingZone, error) {
	ids, err := listDocumentIDs(r.root, "zones")
	if err != nil {
		return nil, err
	}

	zones := make([]*models.LandingZone, 0)
	for _, id := range ids {
		zone := &models.LandingZone{}

		found, err := readDocument(r.root, "zones", id, zone)
		if err != nil {
			return nil, err
		}

		if found && zone.ProjectUUID == projectUUID {
			zones = append(zones, zone)
		}
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].DateCreated.Before(zones[j].DateCreated)
	})

	return zones, nil
}

func (r *ZoneRepository) ListByStatus(ctx context.Context, statuses []models.ZoneStatus) ([]*models.LandingZone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := listDocumentIDs(r.root, "zones")
	if err != nil {
		return nil, err
	}

	wanted := make(map[models.ZoneStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	zones := make([]*models.LandingZone, 0)
	for _, id := range ids {
		zone := &models.LandingZone{}

		found, err := readDocument(r.root, "zones", id, zone)
		if err != nil {
			return nil, err
		}

		if !found {
			continue
		}

		if _, ok := wanted[zone.Status]; ok {
			zones = append(zones, zone)
		}
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].DateCreated.Before(zones[j].DateCreated)
	})

	return zones, nil
}

func (r *ZoneRepository) CountByProjectStatus(ctx context.Context, projectUUID string, statuses []models.ZoneStatus) (int, error) {
	zones, err := r.ListByProject(ctx, projectUUID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, zone := range zones {
		for _, status := range statuses {
			if zone.Status == status {
				count++

				break
			}
		}
	}

	return count, nil
}
