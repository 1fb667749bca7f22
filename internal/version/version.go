// Package version provides build version information for weft.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version (set by build flags)
	Version = "dev"
	// Commit is the git commit hash (set by build flags)
	Commit = "unknown"
	// Date is the build date (set by build flags)
	Date = "unknown"
)

// Info contains version and build information.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// Get returns the version information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the bare version.
func (i Info) String() string {
	return i.Version
}

// Full returns a detailed version string with all build information.
func (i Info) Full() string {
	return fmt.Sprintf("%s (%s) built %s %s %s", i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}
