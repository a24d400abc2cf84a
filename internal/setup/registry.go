package setup

import (
	"fmt"
	"sort"

	"github.com/ljmartin/timemachine/internal/config"
)

// Builder constructs a System from its configuration.
type Builder func(cfg *config.Config) (*System, error)

type Registry struct {
	systems map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]Builder)}

	r.systems["dimer"] = buildDimer
	r.systems["chain"] = buildChain
	r.systems["lj-fluid"] = buildLJFluid

	return r
}

func (r *Registry) Build(cfg *config.Config) (*System, error) {
	fn, ok := r.systems[cfg.System.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown system kind: %s", cfg.System.Kind)
	}
	return fn(cfg)
}

func (r *Registry) ListSystems() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
