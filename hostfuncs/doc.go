// Package hostfuncs implements the bridge's request/response dispatch.
//
// The core module sends `name\0payload` messages through the shared buffer.
// The name selects one of a closed set of operations; anything outside the
// set is rejected with an UnknownOperationError. Handlers are plain
// ByteHandlers collected in an immutable HandlerRegistry and wrapped in
// middleware for panic recovery, structured logging and tracing.
//
// This package has no WASM runtime dependencies; infrastructure/wazero
// wires it to the core module's imports.
package hostfuncs
