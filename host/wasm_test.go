package host

// memoryOnlyWasm exports one page of memory and nothing else.
var memoryOnlyWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// memory: one memory, min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// export "memory"
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
}

// Layout of echoCoreWasm.
const (
	echoTriggerLenAddr = 0    // element_trigger_event stores its argument here
	echoUUIDLenAddr    = 4    // main stores the uuid_v4 result here
	echoGeneralBase    = 1024 // get_buffer_pointer
	echoEventBase      = 2048 // get_element_event_buffer_pointer
)

// echoCoreWasm is a minimal core: main asks the host for an identifier,
// element_trigger_event records the trigger length.
var echoCoreWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// types: ()->i32, (i32)->(), ()->()
	0x01, 0x0c, 0x03,
	0x60, 0x00, 0x01, 0x7f,
	0x60, 0x01, 0x7f, 0x00,
	0x60, 0x00, 0x00,
	// import env.uuid_v4 : ()->i32
	0x02, 0x0f, 0x01,
	0x03, 'e', 'n', 'v',
	0x07, 'u', 'u', 'i', 'd', '_', 'v', '4',
	0x00, 0x00,
	// functions 1..4
	0x03, 0x05, 0x04, 0x00, 0x00, 0x01, 0x02,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports
	0x07, 0x61, 0x05,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x12, 'g', 'e', 't', '_', 'b', 'u', 'f', 'f', 'e', 'r', '_', 'p', 'o', 'i', 'n', 't', 'e', 'r', 0x00, 0x01,
	0x20, 'g', 'e', 't', '_', 'e', 'l', 'e', 'm', 'e', 'n', 't', '_', 'e', 'v', 'e', 'n', 't', '_',
	'b', 'u', 'f', 'f', 'e', 'r', '_', 'p', 'o', 'i', 'n', 't', 'e', 'r', 0x00, 0x02,
	0x15, 'e', 'l', 'e', 'm', 'e', 'n', 't', '_', 't', 'r', 'i', 'g', 'g', 'e', 'r', '_', 'e', 'v', 'e', 'n', 't', 0x00, 0x03,
	0x04, 'm', 'a', 'i', 'n', 0x00, 0x04,
	// code
	0x0a, 0x21, 0x04,
	// get_buffer_pointer: i32.const 1024
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	// get_element_event_buffer_pointer: i32.const 2048
	0x05, 0x00, 0x41, 0x80, 0x10, 0x0b,
	// element_trigger_event: store local 0 at 0
	0x09, 0x00, 0x41, 0x00, 0x20, 0x00, 0x36, 0x02, 0x00, 0x0b,
	// main: store uuid_v4() at 4
	0x09, 0x00, 0x41, 0x04, 0x10, 0x00, 0x36, 0x02, 0x00, 0x0b,
}

// tickCoreWasm imports env.tick and calls it once from main.
var tickCoreWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// types: ()->(), ()->i32
	0x01, 0x08, 0x02,
	0x60, 0x00, 0x00,
	0x60, 0x00, 0x01, 0x7f,
	// import env.tick : ()->()
	0x02, 0x0c, 0x01,
	0x03, 'e', 'n', 'v',
	0x04, 't', 'i', 'c', 'k',
	0x00, 0x00,
	// functions 1..2
	0x03, 0x03, 0x02, 0x00, 0x01,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports
	0x07, 0x26, 0x03,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x04, 'm', 'a', 'i', 'n', 0x00, 0x01,
	0x12, 'g', 'e', 't', '_', 'b', 'u', 'f', 'f', 'e', 'r', '_', 'p', 'o', 'i', 'n', 't', 'e', 'r', 0x00, 0x02,
	// code
	0x0a, 0x0c, 0x02,
	// main: call tick
	0x04, 0x00, 0x10, 0x00, 0x0b,
	// get_buffer_pointer: i32.const 1024
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
}
