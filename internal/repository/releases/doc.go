// Package releases implements remote access to published release metadata
// and assets over a GitHub-style HTTP API.
//
// The Client memoizes metadata per repository ref so that one check-or-apply
// cycle queries the network once per release regardless of how many
// properties (latest version, asset URLs, checksums) are derived from it.
package releases
