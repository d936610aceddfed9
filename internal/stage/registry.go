package stage

import (
	"fmt"
	"sort"

	"github.com/radbatch/radbatch/internal/driver"
	"github.com/radbatch/radbatch/internal/sink"
)

// Settings is the per-stage configuration from the run manifest,
// threaded explicitly into the factory. No stage reads global state.
type Settings struct {
	// Output is the CSV path the stage flushes to at teardown.
	Output string
}

// Factory builds a stage instance for one run. A fresh instance is
// built per run; stage state never survives a run.
type Factory func(name string, set Settings) (driver.Stage, error)

// Registry maps stage kinds to factories. It is a plain value handed
// to whoever constructs a run; there is no package-level registry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a kind. Duplicate kinds are an error:
// silently replacing a factory would make run construction dependent
// on registration order.
func (r *Registry) Register(kind string, f Factory) error {
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("duplicate stage kind: %s", kind)
	}
	r.factories[kind] = f
	return nil
}

// Kinds returns the registered stage kinds, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs a stage of the given kind.
func (r *Registry) Build(kind, name string, set Settings) (driver.Stage, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("unknown stage kind: %s", kind)
	}
	return f(name, set)
}

// DefaultRegistry returns a registry carrying the builtin stages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// Registration of builtins cannot collide.
	_ = r.Register("inventory", func(name string, set Settings) (driver.Stage, error) {
		if set.Output == "" {
			return nil, fmt.Errorf("stage %s: inventory requires an output path", name)
		}
		return NewInventory(name, sink.NewCSV(set.Output)), nil
	})
	_ = r.Register("count", func(name string, set Settings) (driver.Stage, error) {
		if set.Output == "" {
			return nil, fmt.Errorf("stage %s: count requires an output path", name)
		}
		return NewCount(name, sink.NewCSV(set.Output)), nil
	})
	_ = r.Register("stats", func(name string, set Settings) (driver.Stage, error) {
		if set.Output == "" {
			return nil, fmt.Errorf("stage %s: stats requires an output path", name)
		}
		return NewStats(name, sink.NewCSV(set.Output)), nil
	})
	return r
}
