package compat

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Registry manages the registration and lookup of ecosystems.
//
// # Usage
//
// Create a registry with all standard ecosystems:
//
//	registry := compat.NewRegistry(runner, cfg, logger)
//
// Or create an empty registry and register custom ones:
//
//	registry := &compat.Registry{}
//	registry.Register(&MyEcosystem{})
//
// Registry is NOT thread-safe for registration. Register all ecosystems
// before use.
type Registry struct {
	ecosystems []Ecosystem
}

// NewRegistry creates a registry with the Rust and Go ecosystems, sharing
// runner, cfg and log.
func NewRegistry(runner CommandRunner, cfg Config, log *zap.Logger) *Registry {
	r := &Registry{}
	r.Register(NewCargoEcosystem(runner, cfg, log))
	r.Register(NewGoEcosystem(runner, cfg, log))
	return r
}

// Register adds an ecosystem. A later registration with the same name
// replaces the earlier one.
func (r *Registry) Register(eco Ecosystem) {
	for i, existing := range r.ecosystems {
		if existing.Name() == eco.Name() {
			r.ecosystems[i] = eco
			return
		}
	}
	r.ecosystems = append(r.ecosystems, eco)
}

// Lookup returns the ecosystem with the given name (case-insensitive).
func (r *Registry) Lookup(name string) (Ecosystem, error) {
	for _, eco := range r.ecosystems {
		if strings.EqualFold(eco.Name(), strings.TrimSpace(name)) {
			return eco, nil
		}
	}
	return nil, fmt.Errorf("unknown ecosystem %q (available: %s)", name, strings.Join(r.Names(), ", "))
}

// List returns a copy of the registered ecosystems.
func (r *Registry) List() []Ecosystem {
	return append([]Ecosystem{}, r.ecosystems...)
}

// Names returns the sorted names of all registered ecosystems.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ecosystems))
	for _, eco := range r.ecosystems {
		names = append(names, eco.Name())
	}
	sort.Strings(names)
	return names
}
