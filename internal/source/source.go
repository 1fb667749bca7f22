// Package source defines the artifact source boundary: where raw,
// untransformed module bytes come from.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNotFound indicates no artifact exists for an identifier. Absence is
// a representable outcome, not necessarily fatal for every caller.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidIdentifier indicates an identifier that is not safe to map
// to a storage path.
var ErrInvalidIdentifier = errors.New("invalid artifact identifier")

// Identifiers are dotted names, e.g. "billing" or "acme.billing.v2".
// The pattern keeps identifiers safe for filesystem use.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*(\.[a-zA-Z_][a-zA-Z0-9_-]*)*$`)

// ValidIdentifier reports whether name is a well-formed artifact identifier.
func ValidIdentifier(name string) bool {
	return name != "" && identifierPattern.MatchString(name)
}

// Source supplies raw module bytes for a named artifact.
type Source interface {
	// Fetch returns the artifact's untransformed bytes, or an error
	// wrapping ErrNotFound when the artifact does not exist.
	Fetch(ctx context.Context, identifier string) ([]byte, error)
}

// Dir serves artifacts from a directory, one "<identifier>.wasm" file each.
type Dir struct {
	root string
}

// NewDir creates a directory-backed artifact source rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Fetch implements Source.
func (d *Dir) Fetch(_ context.Context, identifier string) ([]byte, error) {
	if !ValidIdentifier(identifier) {
		return nil, fmt.Errorf("%q: %w", identifier, ErrInvalidIdentifier)
	}

	path := filepath.Join(d.root, identifier+".wasm")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", identifier, ErrNotFound)
		}
		return nil, fmt.Errorf("reading artifact %q: %w", identifier, err)
	}
	return data, nil
}
