package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-dev/weft/internal/plugin"
)

func passthroughFactories() map[string]Factory {
	return map[string]Factory{
		"passthrough": func(map[string]any) (plugin.Routine, error) {
			return plugin.RoutineFunc(func(_ string, m []byte) ([]byte, error) {
				return m, nil
			}), nil
		},
	}
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weft-plugins.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverValidManifest(t *testing.T) {
	path := writeManifest(t, `
plugins:
  - name: tracer
    version: 1.0.0
    author: weft
    description: traces everything
    targets: ["*"]
    uses: passthrough
  - name: billing-tagger
    version: 0.2.0
    targets: [billing, orders]
    uses: passthrough
    options:
      extra: value
`)

	l := NewLoader("external", path, passthroughFactories())
	assert.Equal(t, "external", l.Name())

	candidates, err := l.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "tracer", candidates[0].Descriptor.Name)
	assert.True(t, candidates[0].Descriptor.IsWildcard())
	assert.Equal(t, []string{"billing", "orders"}, candidates[1].Descriptor.Targets)
	require.NotNil(t, candidates[1].Routine)
}

func TestDiscoverUnknownFactorySkipped(t *testing.T) {
	path := writeManifest(t, `
plugins:
  - name: good
    version: 1.0.0
    targets: [billing]
    uses: passthrough
  - name: mystery
    version: 1.0.0
    targets: [billing]
    uses: does-not-exist
`)

	candidates, err := NewLoader("external", path, passthroughFactories()).Discover(context.Background())
	require.NoError(t, err, "a bad entry never aborts discovery")
	require.Len(t, candidates, 1)
	assert.Equal(t, "good", candidates[0].Descriptor.Name)
}

func TestDiscoverInvalidEntriesSkipped(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing uses", `
plugins:
  - name: broken
    version: 1.0.0
    targets: [x]
  - name: good
    version: 1.0.0
    targets: [billing]
    uses: passthrough
`},
		{"empty targets", `
plugins:
  - name: broken
    version: 1.0.0
    targets: []
    uses: passthrough
  - name: good
    version: 1.0.0
    targets: [billing]
    uses: passthrough
`},
		{"unknown field", `
plugins:
  - name: broken
    version: 1.0.0
    targets: [x]
    uses: passthrough
    surprise: true
  - name: good
    version: 1.0.0
    targets: [billing]
    uses: passthrough
`},
		{"mistyped targets", `
plugins:
  - name: broken
    version: 1.0.0
    targets: billing
    uses: passthrough
  - name: good
    version: 1.0.0
    targets: [billing]
    uses: passthrough
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			candidates, err := NewLoader("external", path, passthroughFactories()).Discover(context.Background())
			require.NoError(t, err, "a bad entry never aborts discovery")
			require.Len(t, candidates, 1)
			assert.Equal(t, "good", candidates[0].Descriptor.Name)
		})
	}
}

func TestDiscoverDocumentShapeIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plugins not a list", "plugins: notalist"},
		{"missing plugins key", "routines: []"},
		{"document not a mapping", "- just\n- a\n- list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			_, err := NewLoader("external", path, passthroughFactories()).Discover(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestDiscoverInvalidYAML(t *testing.T) {
	path := writeManifest(t, "plugins: [[[")
	_, err := NewLoader("external", path, passthroughFactories()).Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestDiscoverMissingManifestIsEmpty(t *testing.T) {
	l := NewLoader("external", filepath.Join(t.TempDir(), "nope.yaml"), passthroughFactories())
	candidates, err := l.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestDiscoverEmptyPathIsEmpty(t *testing.T) {
	candidates, err := NewLoader("external", "", passthroughFactories()).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
