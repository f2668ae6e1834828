// Package version holds build identification for the enerator binary.
package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/enerator/internal/version.Version=v0.2.0".
var Version = "unknown"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version with its build metadata.
func String() string {
	return fmt.Sprintf("enerator %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
