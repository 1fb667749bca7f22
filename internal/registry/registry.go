// Package registry owns the set of registered instrumentation plugins and
// maps artifact identifiers to the routines that apply to them.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weft-dev/weft/internal/plugin"
)

// Registered pairs a validated descriptor with its routine. Ownership
// passes to the registry on registration; plugins are never removed.
type Registered struct {
	Descriptor plugin.Descriptor
	Routine    plugin.Routine
}

// Candidate is an unvalidated plugin yielded by a discovery source.
type Candidate struct {
	Descriptor plugin.Descriptor
	Routine    plugin.Routine
}

// Source yields a named batch of plugin candidates, e.g. from a manifest
// file. The registry alone decides acceptance of each candidate.
type Source interface {
	// Name identifies the batch for idempotency tracking.
	Name() string
	// Discover returns the batch's candidates.
	Discover(ctx context.Context) ([]Candidate, error)
}

// RegistrationError reports why a single plugin candidate was rejected.
// Rejections are per-candidate and never abort a batch.
type RegistrationError struct {
	Plugin string
	Cause  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register plugin %s: %v", e.Plugin, e.Cause)
}

func (e *RegistrationError) Unwrap() error {
	return e.Cause
}

// Registry maintains the target index: identifier -> plugins in
// registration order, with wildcard plugins held separately.
type Registry struct {
	mu        sync.RWMutex
	plugins   []Registered
	wildcards []Registered
	targets   map[string][]Registered
	loaded    map[string]bool // batch name -> already processed
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		targets: make(map[string][]Registered),
		loaded:  make(map[string]bool),
	}
}

// Register validates and accepts a single plugin. Wildcard plugins go to
// the wildcard sequence; all others are appended to the bucket of every
// literal target they declare.
func (r *Registry) Register(desc plugin.Descriptor, routine plugin.Routine) error {
	if routine == nil {
		return &RegistrationError{Plugin: desc.Name, Cause: fmt.Errorf("routine is nil")}
	}
	if err := desc.Validate(); err != nil {
		return &RegistrationError{Plugin: desc.Name, Cause: err}
	}

	reg := Registered{Descriptor: desc, Routine: routine}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.plugins = append(r.plugins, reg)
	if desc.IsWildcard() {
		r.wildcards = append(r.wildcards, reg)
	} else {
		for _, target := range desc.Targets {
			r.targets[target] = append(r.targets[target], reg)
		}
	}

	slog.Info("registered plugin",
		"plugin", desc.Name,
		"version", desc.Version,
		"targets", desc.Targets,
		"wildcard", desc.IsWildcard())
	return nil
}

// LoadBatch discovers and registers a named batch at most once per
// registry instance. A repeat call for the same batch name is a no-op.
// Malformed candidates are logged and skipped. Returns the number of
// plugins registered by this call.
func (r *Registry) LoadBatch(ctx context.Context, src Source) (int, error) {
	name := src.Name()

	r.mu.RLock()
	done := r.loaded[name]
	r.mu.RUnlock()
	if done {
		slog.Warn("plugin batch already loaded, skipping", "batch", name)
		return 0, nil
	}

	candidates, err := src.Discover(ctx)
	if err != nil {
		return 0, fmt.Errorf("discovering plugin batch %s: %w", name, err)
	}

	// Concurrent first loads may both discover; only one registers.
	r.mu.Lock()
	if r.loaded[name] {
		r.mu.Unlock()
		slog.Warn("plugin batch already loaded, skipping", "batch", name)
		return 0, nil
	}
	r.loaded[name] = true
	r.mu.Unlock()

	if len(candidates) == 0 {
		slog.Warn("no plugins found in batch", "batch", name)
		return 0, nil
	}

	registered := 0
	for _, c := range candidates {
		if err := r.Register(c.Descriptor, c.Routine); err != nil {
			slog.Error("skipping plugin", "batch", name, "plugin", c.Descriptor.Name, "error", err)
			continue
		}
		registered++
	}

	slog.Info("plugin batch loaded", "batch", name, "registered", registered, "candidates", len(candidates))
	return registered, nil
}

// Resolve returns the routines applicable to identifier: plugins whose
// targets contain the identifier, in registration order, followed by all
// wildcard plugins, in registration order. Wildcard routines therefore
// always see the output of targeted ones. An empty result is normal.
func (r *Registry) Resolve(identifier string) []Registered {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exact := r.targets[identifier]
	out := make([]Registered, 0, len(exact)+len(r.wildcards))
	out = append(out, exact...)
	out = append(out, r.wildcards...)
	return out
}

// Plugins returns a snapshot of every registered plugin in registration order.
func (r *Registry) Plugins() []Registered {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Registered, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Loaded reports whether the named batch has been processed. An empty
// batch still counts as loaded.
func (r *Registry) Loaded(batch string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[batch]
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Static adapts a fixed candidate list into a Source, for compiled-in
// plugin batches.
type Static struct {
	BatchName  string
	Candidates []Candidate
}

// Name implements Source.
func (s Static) Name() string { return s.BatchName }

// Discover implements Source.
func (s Static) Discover(context.Context) ([]Candidate, error) {
	return s.Candidates, nil
}
