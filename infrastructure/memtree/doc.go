// Package memtree provides an in-memory host tree.
//
// It implements ports.HostTree and ports.ExternalLookup, counts every
// mutation it receives and can dump itself as YAML. The uuhost CLI renders
// core modules into it, and the reconciler tests use the mutation counters
// to prove that unchanged descriptions cause no host work.
package memtree
