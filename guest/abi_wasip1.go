//go:build wasip1

package guest

import (
	"unsafe"

	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/transport"
)

var (
	buffer      [transport.DefaultBufferSize]byte
	eventBuffer [transport.DefaultEventBufferSize]byte
)

//go:wasmimport env console_log
func consoleLog(ptr unsafe.Pointer, length uint32)

//go:wasmimport env uuid_v4
func uuidV4() uint32

//go:wasmimport env sync_elements
func syncElements(ptr unsafe.Pointer, length uint32) int32

//go:wasmimport env get_element_by_id
func getElementByID(ptr unsafe.Pointer, length uint32) uint32

//go:wasmimport env upload_bytes
func uploadBytes(ptr unsafe.Pointer, length uint32) uint32

//go:wasmimport env add_event_listener
func addEventListener(ptr unsafe.Pointer, length uint32) int32

//go:wasmexport get_buffer_pointer
func getBufferPointer() unsafe.Pointer {
	return unsafe.Pointer(&buffer[0])
}

//go:wasmexport get_element_event_buffer_pointer
func getEventBufferPointer() unsafe.Pointer {
	return unsafe.Pointer(&eventBuffer[0])
}

//go:wasmexport element_trigger_event
func elementTriggerEvent(length uint32) {
	trigger(eventBuffer[:min(length, uint32(len(eventBuffer)))])
}

//go:wasmexport main
func wasmMain() {
	run(wasmHost{})
}

// wasmHost calls the env imports.
type wasmHost struct{}

func ptrLen(b []byte) (unsafe.Pointer, uint32) {
	return unsafe.Pointer(unsafe.SliceData(b)), uint32(len(b)) //nolint:gosec // G115: wasm32 lengths
}

// reply copies n bytes out of the general buffer.
func reply(n uint32) []byte {
	return append([]byte(nil), buffer[:min(n, uint32(len(buffer)))]...)
}

func (wasmHost) ConsoleLog(msg []byte) {
	consoleLog(ptrLen(msg))
}

func (wasmHost) UUIDv4() string {
	return string(reply(uuidV4()))
}

func (wasmHost) SyncElements(payload []byte) int32 {
	return syncElements(ptrLen(payload))
}

func (wasmHost) GetElementByID(key []byte) []byte {
	return reply(getElementByID(ptrLen(key)))
}

func (wasmHost) UploadBytes(msg []byte) ([]byte, bool) {
	n := uploadBytes(ptrLen(msg))
	if n == ports.UploadFailed {
		return nil, false
	}
	return reply(n), true
}

func (wasmHost) AddEventListener(payload []byte) int32 {
	return addEventListener(ptrLen(payload))
}
