// Package release holds the pure domain model of the update pipeline:
// release targets and their "[channel][@tag]" grammar, dotted-numeric
// version ordering, remote lock rules, the release metadata snapshot, and
// the checksum manifest format.
//
// Everything here is side-effect free; fetching and applying releases live
// in the repository and service layers.
package release
