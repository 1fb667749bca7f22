package wasmrt

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
)

// Unit is a compiled, executable module. At most one Unit exists per
// identifier per loader instance; the loader enforces that invariant.
type Unit struct {
	identifier string
	digest     string
	size       int
	compiled   wazero.CompiledModule
	runtime    wazero.Runtime
}

// Identifier implements loader.Unit.
func (u *Unit) Identifier() string { return u.identifier }

// Digest returns the hex SHA-256 of the materialized bytes.
func (u *Unit) Digest() string { return u.digest }

// Size returns the materialized byte count.
func (u *Unit) Size() int { return u.size }

// Run instantiates the unit and invokes its entry point: _start for
// command modules (run automatically on instantiation), _initialize for
// reactor modules. A missing entry point is reported to the caller; the
// unit itself remains valid.
func (u *Unit) Run(ctx context.Context, args ...string) error {
	config := wazero.NewModuleConfig().
		WithName(""). // anonymous so repeated runs do not collide
		WithArgs(append([]string{u.identifier}, args...)...).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep().
		WithRandSource(rand.Reader)

	instance, err := u.runtime.InstantiateModule(ctx, u.compiled, config)
	if err != nil {
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() == 0 {
				return nil
			}
			return fmt.Errorf("%s exited with code %d", u.identifier, exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", u.identifier, err)
	}
	defer func() {
		_ = instance.Close(ctx)
	}()

	// Command modules already ran via _start. Reactor modules export
	// _initialize instead.
	if start := instance.ExportedFunction("_start"); start != nil {
		return nil
	}
	if initFn := instance.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			return fmt.Errorf("initializing %s: %w", u.identifier, err)
		}
		return nil
	}
	return fmt.Errorf("%s has no _start or _initialize entry point", u.identifier)
}

// Close releases the compiled module.
func (u *Unit) Close(ctx context.Context) error {
	return u.compiled.Close(ctx)
}
