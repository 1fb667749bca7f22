package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirFetch(t *testing.T) {
	dir := t.TempDir()
	content := []byte("\x00asm\x01\x00\x00\x00")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.wasm"), content, 0o644))

	src := NewDir(dir)

	t.Run("found", func(t *testing.T) {
		got, err := src.Fetch(context.Background(), "billing")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := src.Fetch(context.Background(), "orders")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid identifier", func(t *testing.T) {
		for _, id := range []string{"", "../etc/passwd", "a/b", "a..b", ".hidden", "sp ace"} {
			_, err := src.Fetch(context.Background(), id)
			assert.ErrorIs(t, err, ErrInvalidIdentifier, "identifier %q", id)
		}
	})
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"billing", "acme.billing", "acme.billing.v2", "a", "_private", "x-y_z"}
	for _, id := range valid {
		assert.True(t, ValidIdentifier(id), "identifier %q should be valid", id)
	}

	invalid := []string{"", ".", "..", "a.", ".a", "a..b", "a/b", "a\\b", "1abc", "-abc"}
	for _, id := range invalid {
		assert.False(t, ValidIdentifier(id), "identifier %q should be invalid", id)
	}
}
