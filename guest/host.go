package guest

// Host is the set of imports a core module calls. Each method mirrors one
// env function; replies that the host leaves in the general buffer are
// returned as byte slices owned by the caller.
type Host interface {
	ConsoleLog(msg []byte)
	UUIDv4() string
	SyncElements(payload []byte) int32
	GetElementByID(key []byte) []byte
	// UploadBytes sends a name\0payload message; ok is false when the host
	// reported failure.
	UploadBytes(msg []byte) (reply []byte, ok bool)
	AddEventListener(payload []byte) int32
}
