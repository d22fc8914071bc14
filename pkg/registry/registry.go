package registry

import (
	"strings"

	"github.com/mittwald/mittsmoke/pkg/probe"
	"github.com/pkg/errors"
)

// Registry holds probe definitions in registration order. Order matters:
// later probes may rely on earlier ones having passed.
type Registry struct {
	probes []probe.Definition
	index  map[string]int
}

func New() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends def. Duplicate or empty names and definitions without a
// check are rejected with a *probe.ConfigurationError.
func (r *Registry) Register(def probe.Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return probe.NewConfigurationError(def.Name, errors.New("probe name must not be empty"))
	}

	if def.Check == nil {
		return probe.NewConfigurationError(def.Name, errors.New("probe has no check"))
	}

	if _, exists := r.index[def.Name]; exists {
		return probe.NewConfigurationError(def.Name, errors.Errorf("duplicate probe name %q", def.Name))
	}

	r.index[def.Name] = len(r.probes)
	r.probes = append(r.probes, def)
	return nil
}

// List returns a copy of the registered definitions in registration order.
func (r *Registry) List() []probe.Definition {
	out := make([]probe.Definition, len(r.probes))
	copy(out, r.probes)
	return out
}

func (r *Registry) Lookup(name string) (probe.Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return probe.Definition{}, false
	}
	return r.probes[i], true
}

func (r *Registry) Len() int {
	return len(r.probes)
}

// Select returns the definitions named in names, keeping registration order.
func (r *Registry) Select(names ...string) ([]probe.Definition, error) {
	if len(names) == 0 {
		return r.List(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.index[n]; !ok {
			return nil, probe.NewConfigurationError(n, errors.New("no such probe"))
		}
		wanted[n] = true
	}

	out := make([]probe.Definition, 0, len(wanted))
	for _, def := range r.probes {
		if wanted[def.Name] {
			out = append(out, def)
		}
	}
	return out, nil
}
