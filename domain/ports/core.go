package ports

import "context"

// Memory is the view of the sandbox's linear memory used by the transport.
// wazero's api.Memory satisfies it.
type Memory interface {
	// Read returns a view of byteCount bytes at offset; ok is false when out of range.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write copies v into memory at offset; it returns false when out of range.
	Write(offset uint32, v []byte) bool
}

// Core is the set of entry points exported by the core module.
type Core interface {
	// Memory returns the core module's linear memory.
	Memory() Memory

	// Call invokes an exported function by name.
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
}

// Names of the functions a core module exports.
const (
	ExportMain                = "main"
	ExportStart               = "_start"
	ExportBufferPointer       = "get_buffer_pointer"
	ExportEventBufferPointer  = "get_element_event_buffer_pointer"
	ExportElementTriggerEvent = "element_trigger_event"
)

// Names of the functions the host provides to a core module.
const (
	ImportConsoleLog       = "console_log"
	ImportUUIDv4           = "uuid_v4"
	ImportSyncElements     = "sync_elements"
	ImportGetElementByID   = "get_element_by_id"
	ImportUploadBytes      = "upload_bytes"
	ImportAddEventListener = "add_event_listener"
)

// Status values returned by sync_elements and add_event_listener.
const (
	StatusOK         int32 = 0
	StatusNodeErrors int32 = 1
	StatusFailed     int32 = -1
)

// UploadFailed is the length upload_bytes returns when the call failed.
const UploadFailed uint32 = 0xFFFFFFFF
