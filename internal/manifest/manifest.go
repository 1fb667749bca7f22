// Package manifest discovers instrumentation plugins from a YAML
// manifest. Each manifest entry names a routine factory and its options;
// the factory table is supplied by the caller, so discovery never relies
// on runtime type introspection.
package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/weft-dev/weft/internal/plugin"
	"github.com/weft-dev/weft/internal/registry"
)

//go:embed schema.json
var manifestSchema []byte

// Factory builds a routine from manifest options.
type Factory func(options map[string]any) (plugin.Routine, error)

// entry is one plugin declaration in the manifest.
type entry struct {
	plugin.Descriptor `yaml:",inline"`
	Uses              string         `yaml:"uses"`
	Options           map[string]any `yaml:"options"`
}

// Loader reads a plugin manifest and yields registry candidates.
type Loader struct {
	batch     string
	path      string
	factories map[string]Factory
}

// NewLoader creates a manifest loader for the named batch. factories
// maps "uses" identifiers to routine constructors.
func NewLoader(batch, path string, factories map[string]Factory) *Loader {
	return &Loader{batch: batch, path: path, factories: factories}
}

// Name implements registry.Source.
func (l *Loader) Name() string { return l.batch }

// Discover implements registry.Source. A missing manifest is an empty
// batch, not an error: the registry will log the empty-batch warning.
// Only YAML syntax errors and a malformed document shape are fatal;
// each plugin entry is validated individually, and invalid entries,
// like entries naming an unknown factory, are logged and skipped so one
// bad plugin never aborts the batch.
func (l *Loader) Discover(_ context.Context) ([]registry.Candidate, error) {
	if l.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("plugin manifest not found", "path", l.path)
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugin manifest %s: %w", l.path, err)
	}

	rawEntries, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("plugin manifest %s: %w", l.path, err)
	}

	entrySchema, err := compileSchema("manifest.json#/$defs/entry")
	if err != nil {
		return nil, err
	}

	var candidates []registry.Candidate
	for i, raw := range rawEntries {
		e, err := decodeEntry(entrySchema, raw)
		if err != nil {
			slog.Error("skipping invalid manifest entry", "index", i, "error", err)
			continue
		}
		factory, ok := l.factories[e.Uses]
		if !ok {
			slog.Error("skipping manifest entry with unknown routine factory",
				"plugin", e.Name, "uses", e.Uses)
			continue
		}
		routine, err := factory(e.Options)
		if err != nil {
			slog.Error("skipping manifest entry, factory failed",
				"plugin", e.Name, "uses", e.Uses, "error", err)
			continue
		}
		candidates = append(candidates, registry.Candidate{
			Descriptor: e.Descriptor,
			Routine:    routine,
		})
	}
	return candidates, nil
}

// parse checks the document shape (a mapping with a "plugins" list) and
// returns the raw, not yet validated plugin entries.
func parse(data []byte) ([]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode manifest YAML: %w", err)
	}

	docSchema, err := compileSchema("manifest.json")
	if err != nil {
		return nil, err
	}
	if err := docSchema.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest validation failed: document is not a mapping")
	}
	entries, _ := doc["plugins"].([]any)
	return entries, nil
}

// decodeEntry validates one raw manifest entry and decodes it.
func decodeEntry(schema *jsonschema.Schema, raw any) (*entry, error) {
	if err := schema.Validate(raw); err != nil {
		return nil, schemaError(err)
	}

	// Round-trip through YAML so a single mistyped entry cannot poison
	// decoding of its siblings.
	encoded, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode manifest entry: %w", err)
	}
	var e entry
	if err := yaml.Unmarshal(encoded, &e); err != nil {
		return nil, fmt.Errorf("failed to decode manifest entry: %w", err)
	}
	return &e, nil
}

// compileSchema compiles the embedded manifest schema at ref.
func compileSchema(ref string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("manifest.json", bytes.NewReader(manifestSchema)); err != nil {
		return nil, fmt.Errorf("failed to load manifest schema: %w", err)
	}
	schema, err := compiler.Compile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to compile manifest schema: %w", err)
	}
	return schema, nil
}

// schemaError formats a schema violation, flattening nested causes.
func schemaError(err error) error {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return fmt.Errorf("manifest validation failed: %s", formatValidationError(validationErr))
	}
	return fmt.Errorf("manifest validation failed: %w", err)
}

// formatValidationError flattens nested schema violations into one line each.
func formatValidationError(err *jsonschema.ValidationError) string {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return "invalid manifest"
	}
	return strings.Join(messages, "; ")
}
