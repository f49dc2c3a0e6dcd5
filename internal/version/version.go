package version

import "fmt"

var (
	// Version is set at build time with -ldflags.
	Version = "0.1.0"

	// GitCommit is set at build time with -ldflags.
	GitCommit = ""
)

// String returns the version with the commit when it is known.
func String() string {
	if GitCommit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
