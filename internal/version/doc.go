// Package version exposes build metadata for the project.
//
// Variables Version, Channel, Commit, BuildTime, Packaging, and UpdateHint
// are injected at build time via Go ldflags and default to sensible values
// for local builds. Channel and Packaging also feed the self-update
// subsystem: the channel names the release track the build came from, and
// the packaging hint lets archive-style builds identify themselves.
package version
