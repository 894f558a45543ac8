// Package zonecfg provides zone configuration extensions. A landing zone
// may name a configuration; the matching extension validates the zone's
// config_data, contributes extra flow data to submissions and cleans up
// when the zone is deleted.
package zonecfg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// ErrUnknownConfiguration is returned when a zone names a configuration no
// extension is registered for.
var ErrUnknownConfiguration = errors.New("unknown zone configuration")

// ErrInvalidConfigData is returned when config_data fails the extension's
// schema.
var ErrInvalidConfigData = errors.New("invalid zone config data")

// Extension customizes flow behavior for zones carrying its configuration
// name. Implementations are stateless; per-zone state lives in config_data.
type Extension interface {
	Name() string
	// ValidateConfig checks the zone's config_data against the extension's
	// schema. Called at zone creation before anything is persisted.
	ValidateConfig(raw json.RawMessage) error
	// ExtraFlowData contributes flow data merged into a submission for a
	// zone with this configuration.
	ExtraFlowData(zone *models.LandingZone, flowName string) map[string]any
	// Cleanup releases extension-held resources when the zone is deleted.
	Cleanup(ctx context.Context, zone *models.LandingZone) error
}

// Registry maps configuration names to extensions, fixed at startup.
type Registry struct {
	extensions map[string]Extension
}

func NewRegistry(extensions ...Extension) *Registry {
	r := &Registry{extensions: make(map[string]Extension)}
	for _, ext := range extensions {
		r.extensions[ext.Name()] = ext
	}

	return r
}

func (r *Registry) Register(ext Extension) {
	r.extensions[ext.Name()] = ext
}

// Get resolves the extension for a configuration name. An empty name means
// no configuration and resolves to nil without error.
func (r *Registry) Get(name string) (Extension, error) {
	if name == "" {
		return nil, nil
	}

	ext, ok := r.extensions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfiguration, name)
	}

	return ext, nil
}

// validateSchema checks raw JSON against a schema document.
func validateSchema(schema string, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfigData, err)
	}

	if !result.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidConfigData, result.Errors())
	}

	return nil
}
