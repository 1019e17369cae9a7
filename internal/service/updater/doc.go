// Package updater checks for, downloads, and applies new releases of the
// running executable.
//
// It detects the packaging variant, resolves the requested channel and tag
// against the release host, evaluates the published lock policy, verifies the
// download against the checksum manifest, and atomically swaps the executable
// with rollback on failure.
package updater
