package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/abeauvois/ingestflow/pkg/api"
)

// ErrPresetNotFound is returned when a preset name is unknown.
var ErrPresetNotFound = errors.New("preset not found")

// Preset is a named, pre-built pipeline configuration. The engine knows
// nothing about a preset beyond its name and the options bag it accepts;
// the concrete steps are injected by whoever registers it.
type Preset struct {
	Name string

	// Build assembles the pipeline for one run using the caller's options.
	Build func(options map[string]any) (*api.Pipeline, error)

	// NewContext creates the initial execution context for one run.
	NewContext func(options map[string]any) (*api.Context, error)
}

// Registry holds the preset catalog. It is an explicit dependency handed to
// the coordinator, never a package-level singleton, so independent workers
// and tests can each run their own catalog.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewRegistry creates an empty preset registry.
func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]Preset)}
}

// Register adds a preset to the catalog.
func (r *Registry) Register(p Preset) error {
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	if p.Build == nil {
		return fmt.Errorf("preset %q has no pipeline builder", p.Name)
	}
	if p.NewContext == nil {
		return fmt.Errorf("preset %q has no context builder", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.presets[p.Name]; ok {
		return fmt.Errorf("preset already registered: %s", p.Name)
	}
	r.presets[p.Name] = p
	return nil
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (r *Registry) MustRegister(p Preset) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the preset registered under name.
func (r *Registry) Get(name string) (Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return p, nil
}

// Names returns the registered preset names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
