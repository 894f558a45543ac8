// Package file provides file-based persistence for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoneflow/zoneflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the
// file system, one JSON document per aggregate.
type Persistence struct {
	root        string
	zoneRepo    *ZoneRepository
	projectRepo *ProjectRepository
	assayRepo   *AssayRepository
	alertRepo   *AlertRepository
}

// NewPersistence creates a new instance rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:        cleanRoot,
		zoneRepo:    &ZoneRepository{root: cleanRoot},
		projectRepo: &ProjectRepository{root: cleanRoot},
		assayRepo:   &AssayRepository{root: cleanRoot},
		alertRepo:   &AlertRepository{root: cleanRoot},
	}
}

var _ persistence.Persistence = (*Persistence)(nil)

func (p *Persistence) Zones() persistence.ZoneRepository       { return p.zoneRepo }
func (p *Persistence) Projects() persistence.ProjectRepository { return p.projectRepo }
func (p *Persistence) Assays() persistence.AssayRepository     { return p.assayRepo }
func (p *Persistence) Alerts() persistence.AlertRepository     { return p.alertRepo }

// Close performs any necessary cleanup. Nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func writeDocument(root, kind, id string, doc any) error {
	dir := filepath.Join(root, kind)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	// Write through a temp file and rename so a concurrent reader never
	// observes a partially written document.
	tmp, err := os.CreateTemp(dir, id+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s %s: %w", kind, id, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to close %s %s: %w", kind, id, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, id+".json")); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to publish %s %s: %w", kind, id, err)
	}

	return nil
}

func readDocument(root, kind, id string, doc any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(root, kind, id+".json"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s %s: %w", kind, id, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return true, nil
}

func listDocumentIDs(root, kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, kind))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", kind, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}
