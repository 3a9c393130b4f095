// Package ports defines the interfaces through which the bridge reaches its
// external collaborators: the host's live UI tree, the sandbox's linear
// memory and the core module's exported functions.
// Infrastructure adapters (wazero, memtree) implement these interfaces.
package ports
