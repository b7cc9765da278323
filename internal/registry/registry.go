// Package registry holds the configured set of Transmission endpoints.
// Built once at startup, read-only afterwards, safe to share without locks.
package registry

import (
	"errors"
	"fmt"

	"github.com/guiyumin/transmote/internal/config"
)

// ErrNotFound is returned when resolving an endpoint name that is not
// configured. Callers surface it as "endpoint no longer available".
var ErrNotFound = errors.New("endpoint not found")

// Registry maps endpoint names to their connection parameters.
type Registry struct {
	byName map[string]config.Endpoint
	order  []string
	def    string
}

// New builds a Registry from the normalized endpoint list. The sole
// endpoint is always the default; with several, config.Load has already
// guaranteed one is named "default".
func New(endpoints []config.Endpoint) (*Registry, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("registry requires at least one endpoint")
	}

	r := &Registry{
		byName: make(map[string]config.Endpoint, len(endpoints)),
		order:  make([]string, 0, len(endpoints)),
	}
	for _, ep := range endpoints {
		if _, ok := r.byName[ep.Name]; ok {
			return nil, fmt.Errorf("duplicate endpoint name %q", ep.Name)
		}
		r.byName[ep.Name] = ep
		r.order = append(r.order, ep.Name)
	}

	if len(endpoints) == 1 {
		r.def = endpoints[0].Name
	} else {
		if _, ok := r.byName[config.DefaultEndpointName]; !ok {
			return nil, fmt.Errorf("multi-endpoint registry requires an endpoint named %q", config.DefaultEndpointName)
		}
		r.def = config.DefaultEndpointName
	}

	return r, nil
}

// Resolve returns the endpoint for name, or ErrNotFound.
func (r *Registry) Resolve(name string) (config.Endpoint, error) {
	ep, ok := r.byName[name]
	if !ok {
		return config.Endpoint{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return ep, nil
}

// List returns the endpoint names in configuration order.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Default returns the default endpoint.
func (r *Registry) Default() config.Endpoint {
	return r.byName[r.def]
}

// Len returns the number of configured endpoints.
func (r *Registry) Len() int {
	return len(r.order)
}
