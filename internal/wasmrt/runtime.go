// Package wasmrt materializes final artifact bytes into executable
// units backed by a wazero runtime.
package wasmrt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/weft-dev/weft/internal/cache"
	"github.com/weft-dev/weft/internal/loader"
)

// compilationCache speeds up recompilation across runtime instances.
var compilationCache = wazero.NewCompilationCache()

// Runtime compiles WASM artifact bytes and owns the resulting modules.
type Runtime struct {
	runtime wazero.Runtime
}

// New creates a runtime with WASI support.
func New(ctx context.Context) (*Runtime, error) {
	config := wazero.NewRuntimeConfig().WithCompilationCache(compilationCache)
	r := wazero.NewRuntimeWithConfig(ctx, config)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	return &Runtime{runtime: r}, nil
}

// Materialize implements loader.Materializer. Compilation is the
// structural validity check: bytes that do not compile are not a unit.
func (r *Runtime) Materialize(ctx context.Context, identifier string, module []byte) (loader.Unit, error) {
	compiled, err := r.runtime.CompileModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", identifier, err)
	}

	slog.Debug("compiled module", "identifier", identifier, "bytes", len(module))
	return &Unit{
		identifier: identifier,
		digest:     cache.HashBytes(module),
		size:       len(module),
		compiled:   compiled,
		runtime:    r.runtime,
	}, nil
}

// Close releases the runtime and every module compiled through it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
