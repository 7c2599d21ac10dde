package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/sitebuild/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the full version line printed by the CLI.
func String() string {
	return fmt.Sprintf("sitebuild %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
