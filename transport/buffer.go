package transport

import (
	"fmt"

	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/domain/ports"
)

// Default region capacities, matching the static buffers of the core runtime.
const (
	DefaultBufferSize      = 128_000
	DefaultEventBufferSize = 64_000
)

// DefaultMaxRequestSize limits how many bytes a single core call may ask the
// host to read out of linear memory (1MB).
const DefaultMaxRequestSize = 1 * 1024 * 1024

// Region names.
const (
	RegionGeneral = "general"
	RegionEvent   = "event"
)

// Region describes a scratch window inside linear memory.
type Region struct {
	Name     string
	Base     uint32
	Capacity uint32
}

// Buffer is a single-owner scratch region over linear memory.
// It is not safe for concurrent use; the boundary is single-threaded.
type Buffer struct {
	mem        ports.Memory
	region     Region
	generation uint64
	length     uint32
}

// NewBuffer binds a region of mem.
func NewBuffer(mem ports.Memory, region Region) *Buffer {
	return &Buffer{mem: mem, region: region}
}

// Acquire returns the base offset and capacity of the region.
func (b *Buffer) Acquire() (base, capacity uint32) {
	return b.region.Base, b.region.Capacity
}

// Region returns the region description.
func (b *Buffer) Region() Region {
	return b.region
}

// Write copies data to the start of the region and returns the number of
// bytes written. When data exceeds the capacity, only the first capacity
// bytes are written and a BufferOverflowError is returned alongside the
// truncated count. Every write invalidates earlier views.
func (b *Buffer) Write(data []byte) (int, error) {
	n := len(data)
	var overflow error
	if uint64(n) > uint64(b.region.Capacity) {
		overflow = &bridgeerrors.BufferOverflowError{
			Region:    b.region.Name,
			Requested: n,
			Capacity:  b.region.Capacity,
		}
		n = int(b.region.Capacity)
	}

	if n > 0 && !b.mem.Write(b.region.Base, data[:n]) {
		return 0, fmt.Errorf("transport: %s region [%d,+%d) is outside linear memory",
			b.region.Name, b.region.Base, n)
	}

	b.generation++
	b.length = uint32(n) //nolint:gosec // G115: bounded by the uint32 capacity
	return n, overflow
}

// WriteString is Write for string payloads.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// Last returns a view of the bytes produced by the most recent Write.
func (b *Buffer) Last() (View, error) {
	return b.Read(b.region.Base, b.length)
}

// Read returns a view of length bytes at offset. The offset need not lie
// inside the region: the core passes pointers to its own data as well.
func (b *Buffer) Read(offset, length uint32) (View, error) {
	data, err := ReadMemory(b.mem, offset, length, 0)
	if err != nil {
		return View{}, err
	}
	return View{buf: b, data: data, generation: b.generation}, nil
}

// Generation counts the writes made to the region so far.
func (b *Buffer) Generation() uint64 {
	return b.generation
}

// View is a window into linear memory obtained from a Buffer.
type View struct {
	buf        *Buffer
	data       []byte
	generation uint64
}

// Bytes returns the viewed bytes without copying.
func (v View) Bytes() []byte {
	return v.data
}

// Len returns the number of viewed bytes.
func (v View) Len() int {
	return len(v.data)
}

// Stale reports whether the region was written after the view was taken.
func (v View) Stale() bool {
	return v.buf != nil && v.buf.generation != v.generation
}

// Copy returns an owned copy of the viewed bytes.
func (v View) Copy() []byte {
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out
}

// ReadMemory reads length bytes at offset from mem. A maxSize of zero means
// no limit. Zero-length reads succeed with an empty, non-nil slice.
func ReadMemory(mem ports.Memory, offset, length, maxSize uint32) ([]byte, error) {
	if maxSize > 0 && length > maxSize {
		return nil, &bridgeerrors.BufferOverflowError{
			Region:    "request",
			Requested: int(length),
			Capacity:  maxSize,
		}
	}
	if length == 0 {
		return []byte{}, nil
	}
	data, ok := mem.Read(offset, length)
	if !ok {
		return nil, &bridgeerrors.MalformedMessageError{
			Reason: fmt.Sprintf("range [%d,+%d) is outside linear memory", offset, length),
			Field:  -1,
		}
	}
	return data, nil
}
