// Package transport manages the scratch regions shared between the host and
// the core module.
//
// A region is a fixed window of the core's linear memory, addressed by the
// base offset the core reports from one of its pointer exports. Writes copy
// at most the region's capacity; reads return views into linear memory that
// stay valid only until the next write to the same region. Callers follow a
// strict request-then-consume discipline: whichever side is about to read a
// region must do so before control crosses the boundary again.
package transport
