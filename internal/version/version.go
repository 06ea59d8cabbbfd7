// Package version centralizes version information for the petrel binary.
package version

// Version is the semantic version of this build. Overridden at release
// time via -ldflags "-X github.com/petrel-ls/petrel/internal/version.Version=...".
var Version = "0.1.0-dev"

// GitCommit is the short commit hash of this build, set via ldflags.
var GitCommit = "unknown"

// Full returns the version with commit information.
func Full() string {
	return Version + " (" + GitCommit + ")"
}
