package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/weft-dev/weft/internal/source"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	input := []byte("raw module bytes")
	transformed := []byte("transformed module bytes")
	hash := HashBytes(input)

	_, ok := s.Lookup("billing", hash)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, s.Put("billing", hash, transformed))

	got, ok := s.Lookup("billing", hash)
	require.True(t, ok)
	assert.Equal(t, transformed, got)

	// The validity marker is the hash of the untransformed input, never
	// of the transformed output.
	_, ok = s.Lookup("billing", HashBytes(transformed))
	assert.False(t, ok)
}

func TestLookupHashMismatchIsMiss(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("billing", HashBytes([]byte("v1")), []byte("out-v1")))

	_, ok := s.Lookup("billing", HashBytes([]byte("v2")))
	assert.False(t, ok, "changed input bytes must invalidate the entry")
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("billing", HashBytes([]byte("v1")), []byte("out-v1")))
	require.NoError(t, s.Put("billing", HashBytes([]byte("v2")), []byte("out-v2")))

	_, ok := s.Lookup("billing", HashBytes([]byte("v1")))
	assert.False(t, ok)
	got, ok := s.Lookup("billing", HashBytes([]byte("v2")))
	require.True(t, ok)
	assert.Equal(t, []byte("out-v2"), got)
}

func TestTornEntryIsMiss(t *testing.T) {
	hash := HashBytes([]byte("input"))

	t.Run("missing marker", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put("billing", hash, []byte("out")))
		require.NoError(t, os.Remove(filepath.Join(s.root, "billing"+markerExt)))

		_, ok := s.Lookup("billing", hash)
		assert.False(t, ok)
	})

	t.Run("missing payload", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Put("billing", hash, []byte("out")))
		require.NoError(t, os.Remove(filepath.Join(s.root, "billing"+payloadExt)))

		_, ok := s.Lookup("billing", hash)
		assert.False(t, ok)
	})
}

func TestInvalidIdentifierRejected(t *testing.T) {
	s := newTestStore(t)

	err := s.Put("../escape", "h", []byte("x"))
	require.ErrorIs(t, err, source.ErrInvalidIdentifier)

	_, ok := s.Lookup("../escape", "h")
	assert.False(t, ok)
}

func TestEntriesAndPrune(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("a", HashBytes([]byte("1")), []byte("one")))
	require.NoError(t, s.Put("b", HashBytes([]byte("2")), []byte("two")))

	entries, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	removed, err := s.Prune()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err = s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewStore(root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestStoreProperty round-trips arbitrary payloads through the store.
func TestStoreProperty(t *testing.T) {
	s := newTestStore(t)

	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "input")
		transformed := rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "transformed")
		hash := HashBytes(input)

		if err := s.Put("artifact", hash, transformed); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, ok := s.Lookup("artifact", hash)
		if !ok {
			t.Fatal("expected hit after put")
		}
		if string(got) != string(transformed) {
			t.Fatalf("payload mismatch: got %q want %q", got, transformed)
		}
	})
}
