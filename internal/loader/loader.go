// Package loader orchestrates artifact resolution: fetch raw bytes,
// apply registered instrumentation routines, persist the result, and
// materialize a single canonical loaded unit per identifier.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/weft-dev/weft/internal/cache"
	"github.com/weft-dev/weft/internal/registry"
	"github.com/weft-dev/weft/internal/source"
)

// Unit is a materialized, executable artifact. Identity is stable for
// the lifetime of the loader that produced it.
type Unit interface {
	Identifier() string
}

// Materializer converts final artifact bytes into a loaded unit.
type Materializer interface {
	Materialize(ctx context.Context, identifier string, module []byte) (Unit, error)
}

// Loader resolves artifact identifiers to loaded units. Safe for
// concurrent use: resolutions of distinct identifiers proceed in
// parallel, and concurrent resolutions of the same identifier share a
// single transformation pipeline.
type Loader struct {
	source       source.Source
	cache        *cache.Store
	registry     *registry.Registry
	materializer Materializer

	mu    sync.RWMutex
	units map[string]Unit
	group singleflight.Group
}

// New creates a loader. The in-memory unit map is exclusively owned by
// this instance; the registry and cache may be shared read-mostly.
func New(src source.Source, store *cache.Store, reg *registry.Registry, mat Materializer) *Loader {
	return &Loader{
		source:       src,
		cache:        store,
		registry:     reg,
		materializer: mat,
		units:        make(map[string]Unit),
	}
}

// Resolve returns the loaded unit for identifier, materializing it on
// first use. Re-resolution returns the same unit. Callers that arrive
// while a pipeline for the identifier is in flight join its result; a
// caller whose context expires stops waiting, but the in-flight pipeline
// runs to completion for the benefit of the other waiters.
func (l *Loader) Resolve(ctx context.Context, identifier string) (Unit, error) {
	if !source.ValidIdentifier(identifier) {
		return nil, fmt.Errorf("%q: %w", identifier, source.ErrInvalidIdentifier)
	}

	// Fast path: already materialized.
	l.mu.RLock()
	unit, ok := l.units[identifier]
	l.mu.RUnlock()
	if ok {
		return unit, nil
	}

	ch := l.group.DoChan(identifier, func() (any, error) {
		// Re-check under the flight: a previous flight may have
		// materialized the unit between our fast path and here.
		l.mu.RLock()
		unit, ok := l.units[identifier]
		l.mu.RUnlock()
		if ok {
			return unit, nil
		}
		// Detach from the initiating caller so one caller's deadline
		// cannot abort the pipeline other waiters share.
		return l.runPipeline(context.WithoutCancel(ctx), identifier)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Unit), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("resolving %s: %w", identifier, ctx.Err())
	}
}

// Resolved returns the already-materialized unit for identifier, if any.
func (l *Loader) Resolved(identifier string) (Unit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	unit, ok := l.units[identifier]
	return unit, ok
}

// runPipeline executes the full resolution pipeline for one identifier:
// fetch, hash, cache lookup, transform on miss, write-through, materialize.
func (l *Loader) runPipeline(ctx context.Context, identifier string) (Unit, error) {
	log := slog.With("identifier", identifier, "pipeline", uuid.NewString())

	raw, err := l.source.Fetch(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", identifier, err)
	}

	inputHash := cache.HashBytes(raw)

	final, hit := l.cache.Lookup(identifier, inputHash)
	if hit {
		log.Info("cache hit, skipping transformation", "hash", inputHash)
	} else {
		log.Info("cache miss, transforming", "hash", inputHash)
		final, err = l.transform(identifier, raw, log)
		if err != nil {
			return nil, err
		}
		// Write-through before materializing, so a crash after this
		// point never leaves materialized state that was not persisted.
		if err := l.cache.Put(identifier, inputHash, final); err != nil {
			log.Warn("cache write failed, continuing with in-memory bytes", "error", err)
		}
	}

	unit, err := l.materializer.Materialize(ctx, identifier, final)
	if err != nil {
		return nil, &MaterializeError{Identifier: identifier, Cause: err}
	}

	l.mu.Lock()
	l.units[identifier] = unit
	l.mu.Unlock()

	log.Info("artifact materialized", "bytes", len(final), "cached", hit)
	return unit, nil
}

// transform folds the registered routines for identifier over the raw
// bytes, each routine consuming the previous routine's output.
func (l *Loader) transform(identifier string, raw []byte, log *slog.Logger) ([]byte, error) {
	routines := l.registry.Resolve(identifier)
	if len(routines) == 0 {
		return raw, nil
	}

	log.Debug("applying routines", "count", len(routines))
	current := raw
	for _, reg := range routines {
		next, err := reg.Routine.Transform(identifier, current)
		if err != nil {
			return nil, &TransformError{
				Identifier: identifier,
				Routine:    reg.Descriptor.Name,
				Cause:      err,
			}
		}
		current = next
	}
	return current, nil
}
