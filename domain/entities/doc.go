// Package entities provides the core domain entities shared by the host and
// the core module: tree nodes, snapshots, event triggers and the structured
// error detail used on the wire.
package entities
