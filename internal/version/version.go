package version

import "fmt"

var (
	// Version is the release tag of the build. It can be overridden via ldflags.
	Version = "2025.08.01"
	// Channel is the update channel this build was published on.
	Channel = "stable"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
	// Packaging is an optional hint describing how the binary was packaged
	// (for example "archive"). Empty for plain standalone builds.
	Packaging = ""
	// UpdateHint, when set at build time, replaces the self-update
	// availability message for custom distributions.
	UpdateHint = ""
)

// Short returns only the release tag string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with channel, commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, channel: %s, commit: %s, built at: %s", Version, Channel, Commit, BuildTime)
}

// Labeled returns the channel-qualified version label, e.g. "stable@2025.08.01".
func Labeled() string {
	return fmt.Sprintf("%s@%s", Channel, Version)
}
