package taskflow

import (
	"fmt"
	"sort"

	"github.com/zoneflow/zoneflow/pkg/models"
)

// Constructor builds a flow instance for one submission. The flow name is
// data (callers pass it over HTTP), but the set of constructors is closed
// and resolved at startup.
type Constructor func(project *models.Project, flowData map[string]any) (Flow, error)

// Registry maps flow names to constructors.
type Registry struct {
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

func (r *Registry) Register(name string, constructor Constructor) {
	r.constructors[name] = constructor
}

// Create resolves and constructs the named flow.
func (r *Registry) Create(name string, project *models.Project, flowData map[string]any) (Flow, error) {
	constructor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFlow, name)
	}

	return constructor(project, flowData)
}

// Names returns the registered flow names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
