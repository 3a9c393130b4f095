// Package host runs core modules against a live UI tree.
//
// An Executor holds the wazero runtime configuration shared by all
// sessions. A Session binds one core module to one host tree: it owns the
// identity registry, the reconciler, the listener table and the env host
// module the core imports, and serializes every host-initiated call into
// the core.
package host
