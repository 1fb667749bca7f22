package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/weft-dev/weft/internal/cache"
	"github.com/weft-dev/weft/internal/loader"
	"github.com/weft-dev/weft/internal/manifest"
	"github.com/weft-dev/weft/internal/plugin"
	"github.com/weft-dev/weft/internal/registry"
	"github.com/weft-dev/weft/internal/source"
	"github.com/weft-dev/weft/internal/transform"
	"github.com/weft-dev/weft/internal/version"
	"github.com/weft-dev/weft/internal/wasmrt"
)

// app wires the registry, cache, loader, and runtime for one invocation.
type app struct {
	registry *registry.Registry
	store    *cache.Store
	runtime  *wasmrt.Runtime
	loader   *loader.Loader
}

func newApp(ctx context.Context) (*app, error) {
	reg := registry.New()

	if _, err := reg.LoadBatch(ctx, builtinBatch(viper.GetBool("stamp_builds"))); err != nil {
		return nil, err
	}
	external := manifest.NewLoader("external", viper.GetString("plugins_manifest"), transform.Factories())
	if _, err := reg.LoadBatch(ctx, external); err != nil {
		return nil, err
	}

	store, err := cache.NewStore(viper.GetString("cache_dir"))
	if err != nil {
		return nil, err
	}

	rt, err := wasmrt.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing WASM runtime: %w", err)
	}

	src := source.NewDir(viper.GetString("modules_dir"))
	return &app{
		registry: reg,
		store:    store,
		runtime:  rt,
		loader:   loader.New(src, store, reg, rt),
	}, nil
}

// builtinBatch holds the compiled-in plugins. The batch is always loaded
// so it is marked in the registry alongside "external"; the build-stamp
// routine itself is only included when stamp is enabled.
func builtinBatch(stamp bool) registry.Source {
	batch := registry.Static{BatchName: "builtin"}
	if stamp {
		batch.Candidates = []registry.Candidate{{
			Descriptor: plugin.Descriptor{
				Name:        "build-stamp",
				Version:     "1.0.0",
				Author:      "weft",
				Description: "stamps modules with the weft build that transformed them",
				Targets:     []string{plugin.Wildcard},
			},
			Routine: transform.AppendCustomSection("weft.stamp", []byte(version.Get().Full())),
		}}
	}
	return batch
}

func (a *app) Close(ctx context.Context) error {
	return a.runtime.Close(ctx)
}
