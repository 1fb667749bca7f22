// Package cache persists transformed artifact bytes so resolutions of an
// unchanged artifact skip re-transformation.
//
// One entry per identifier: a "<identifier>.wasm" payload and a
// "<identifier>.sha256" marker holding the hex digest of the
// untransformed input bytes the entry was produced from. The payload is
// always written before the marker, so a torn pair reads as a miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/weft-dev/weft/internal/source"
)

const (
	payloadExt = ".wasm"
	markerExt  = ".sha256"
)

// HashBytes returns the hex-encoded SHA-256 digest of data. The loader
// hashes the raw input bytes, never the transformed output: the cache
// exists to detect source artifact changes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Store is a filesystem-backed transformation cache.
type Store struct {
	root string
}

// NewStore opens a cache rooted at root, creating the directory if needed.
func NewStore(root string) (*Store, error) {
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", root, err)
		}
		slog.Info("cache directory created", "path", root)
	}
	return &Store{root: root}, nil
}

// Lookup returns the cached transformed bytes for identifier iff an entry
// exists and its stored marker equals inputHash. Absence, a hash
// mismatch, and unreadable entries are all misses, never errors.
func (s *Store) Lookup(identifier, inputHash string) ([]byte, bool) {
	if !source.ValidIdentifier(identifier) {
		return nil, false
	}

	marker, err := os.ReadFile(s.markerPath(identifier))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("unreadable cache marker, treating as miss", "identifier", identifier, "error", err)
		}
		return nil, false
	}
	if strings.TrimSpace(string(marker)) != inputHash {
		slog.Debug("cache entry is stale", "identifier", identifier)
		return nil, false
	}

	payload, err := os.ReadFile(s.payloadPath(identifier))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("unreadable cache payload, treating as miss", "identifier", identifier, "error", err)
		}
		return nil, false
	}
	return payload, true
}

// Put persists transformed bytes for identifier, overwriting any prior
// entry. The payload lands before the marker; each is written to a temp
// file and renamed so readers never observe partial content.
func (s *Store) Put(identifier, inputHash string, transformed []byte) error {
	if !source.ValidIdentifier(identifier) {
		return fmt.Errorf("%q: %w", identifier, source.ErrInvalidIdentifier)
	}

	// Drop the old marker first so a crash mid-update invalidates the
	// entry instead of pairing the old marker with new bytes.
	if err := os.Remove(s.markerPath(identifier)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale cache marker for %q: %w", identifier, err)
	}

	if err := s.writeAtomic(s.payloadPath(identifier), transformed); err != nil {
		return fmt.Errorf("writing cache payload for %q: %w", identifier, err)
	}
	if err := s.writeAtomic(s.markerPath(identifier), []byte(inputHash)); err != nil {
		return fmt.Errorf("writing cache marker for %q: %w", identifier, err)
	}

	slog.Debug("cached transformed artifact", "identifier", identifier, "hash", inputHash, "bytes", len(transformed))
	return nil
}

// Entry describes one cache entry, for inspection tooling.
type Entry struct {
	Identifier string
	InputHash  string
	Size       int64
}

// Entries lists the complete entries currently in the cache. Payloads
// without a marker (torn writes) are skipped.
func (s *Store) Entries() ([]Entry, error) {
	files, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), payloadExt) {
			continue
		}
		identifier := strings.TrimSuffix(f.Name(), payloadExt)

		marker, err := os.ReadFile(s.markerPath(identifier))
		if err != nil {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Identifier: identifier,
			InputHash:  strings.TrimSpace(string(marker)),
			Size:       info.Size(),
		})
	}
	return entries, nil
}

// Prune removes every cache entry and returns how many were removed.
func (s *Store) Prune() (int, error) {
	files, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if !strings.HasSuffix(f.Name(), payloadExt) && !strings.HasSuffix(f.Name(), markerExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, f.Name())); err != nil {
			return removed, fmt.Errorf("removing %s: %w", f.Name(), err)
		}
		if strings.HasSuffix(f.Name(), payloadExt) {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) payloadPath(identifier string) string {
	return filepath.Join(s.root, identifier+payloadExt)
}

func (s *Store) markerPath(identifier string) string {
	return filepath.Join(s.root, identifier+markerExt)
}

// writeAtomic writes data to path via a temp file and rename.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
