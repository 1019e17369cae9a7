// Package config loads and validates the update-client settings.
//
// Settings are stored as YAML next to the binary and describe the release
// channels (channel name to owner/repository source), the metadata API base
// URL, network timeouts, and optional overrides for packaging-variant
// detection. A missing settings file yields built-in defaults so the
// updater works in a bare install.
package config
