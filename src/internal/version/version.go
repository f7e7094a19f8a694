// FILE: trafficview/src/internal/version/version.go
package version

import (
	"fmt"
	"runtime"
)

const Name = "trafficview"

var (
	// Version is set at compile time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info is the build description reported by the status endpoint
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Returns a formatted version string
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s)", Name, Version, GitCommit, BuildTime, runtime.Version())
}

// Returns just the version tag
func Short() string {
	return Version
}

// UserAgent identifies the service in the HTTP Server header.
func UserAgent() string {
	return fmt.Sprintf("TrafficView/%s", Version)
}

func Get() Info {
	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
