// Package plugin defines the descriptor model and transformation contract
// for instrumentation plugins.
package plugin

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Wildcard is the universal-match sentinel for descriptor targets.
const Wildcard = "*"

// Descriptor identifies a transformation routine and declares which
// artifact identifiers it applies to.
type Descriptor struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	Targets     []string `yaml:"targets"`
}

// IsWildcard reports whether the descriptor targets every identifier.
// Only a single-element target set containing exactly "*" qualifies;
// any other combination (including {"*", "foo"}) is literal matching.
func (d Descriptor) IsWildcard() bool {
	return len(d.Targets) == 1 && d.Targets[0] == Wildcard
}

// Validate checks that the descriptor is well-formed: non-empty name,
// a parseable semantic version, and at least one non-empty target.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("plugin name is required")
	}
	if _, err := semver.NewVersion(d.Version); err != nil {
		return fmt.Errorf("plugin %s: version %q is not valid semver: %w", d.Name, d.Version, err)
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("plugin %s: at least one target is required", d.Name)
	}
	for i, target := range d.Targets {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("plugin %s: target %d is empty", d.Name, i)
		}
	}
	return nil
}
