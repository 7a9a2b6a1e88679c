// Package version exposes build-time version information for the scan tools.
package version

// Set at build time via -ldflags.
var (
	// Version is the semantic version of the scan pipeline.
	Version = "1.0.0"

	// GitCommit is the git commit hash of the build.
	GitCommit = "unknown"
)
