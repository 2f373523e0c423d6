package version

import "fmt"

// ServiceName is reported by the health endpoint.
const ServiceName = "pitchmap"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String formats the build metadata for --version output.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", ServiceName, Version, GitCommit, BuildDate)
}
