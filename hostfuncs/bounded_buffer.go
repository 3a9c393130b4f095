package hostfuncs

import (
	"bytes"
)

// DefaultMaxConsoleBytes caps a single console-log message (64KB).
const DefaultMaxConsoleBytes = 64 * 1024

// BoundedBuffer is a bytes.Buffer wrapper that keeps at most limit bytes
// and silently drops the rest.
type BoundedBuffer struct {
	buffer    bytes.Buffer
	limit     int
	Truncated bool
}

// NewBoundedBuffer creates a new BoundedBuffer with the specified limit.
func NewBoundedBuffer(limit int) *BoundedBuffer {
	return &BoundedBuffer{
		limit: limit,
	}
}

// Write implements io.Writer. Data past the limit is discarded and
// Truncated is set; the full length is always reported as written.
func (b *BoundedBuffer) Write(p []byte) (n int, err error) {
	if b.buffer.Len() >= b.limit {
		b.Truncated = b.Truncated || len(p) > 0
		return len(p), nil
	}

	remaining := b.limit - b.buffer.Len()
	if len(p) > remaining {
		b.Truncated = true
		if _, err := b.buffer.Write(p[:remaining]); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	return b.buffer.Write(p)
}

// Bytes returns the buffer contents as a byte slice.
func (b *BoundedBuffer) Bytes() []byte {
	return b.buffer.Bytes()
}
