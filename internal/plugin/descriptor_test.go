package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDescriptor() Descriptor {
	return Descriptor{
		Name:        "tracer",
		Version:     "1.0.0",
		Author:      "weft",
		Description: "adds trace sections",
		Targets:     []string{"billing"},
	}
}

func TestDescriptorValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validDescriptor().Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		d := validDescriptor()
		d.Name = "  "
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("bad version", func(t *testing.T) {
		d := validDescriptor()
		d.Version = "one-point-oh"
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid semver")
	})

	t.Run("no targets", func(t *testing.T) {
		d := validDescriptor()
		d.Targets = nil
		err := d.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one target")
	})

	t.Run("empty target", func(t *testing.T) {
		d := validDescriptor()
		d.Targets = []string{"billing", ""}
		require.Error(t, d.Validate())
	})
}

func TestDescriptorIsWildcard(t *testing.T) {
	tests := []struct {
		name     string
		targets  []string
		wildcard bool
	}{
		{"single star", []string{"*"}, true},
		{"literal target", []string{"billing"}, false},
		{"star plus literal is not wildcard", []string{"*", "billing"}, false},
		{"literal plus star is not wildcard", []string{"billing", "*"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			d.Targets = tt.targets
			assert.Equal(t, tt.wildcard, d.IsWildcard())
		})
	}
}
