// Package reconciler converges a live host tree to the node descriptions
// submitted by the core module.
//
// Each identifier moves through Unknown, Pending, Live and Retired. The
// reconciler diffs incoming nodes against the description it last applied,
// never against the live element, and only calls the host tree when a field
// actually changed. Re-applying a snapshot is therefore free.
//
// Two modes exist and are fixed for the lifetime of a Reconciler:
//
//   - ModeIncremental: snapshots are deltas. Ids absent from a snapshot are
//     left alone; removal happens only through Remove.
//   - ModeFull: every snapshot describes the whole tree. Live ids created by
//     the reconciler that are absent from a snapshot are swept, subtree
//     included.
package reconciler
