package testutil

import (
	"context"
	"fmt"

	"github.com/uu-dev/uu-bridge/domain/ports"
)

// Memory is an in-process stand-in for a sandbox's linear memory.
type Memory struct {
	data []byte
}

// NewMemory allocates size bytes of zeroed memory.
func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Bytes exposes the backing array.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Read implements ports.Memory.
func (m *Memory) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset:end], true
}

// Write implements ports.Memory.
func (m *Memory) Write(offset uint32, v []byte) bool {
	end := uint64(offset) + uint64(len(v))
	if end > uint64(len(m.data)) {
		return false
	}
	copy(m.data[offset:end], v)
	return true
}

// Put writes s at offset and returns its length, for staging core payloads.
func (m *Memory) Put(offset uint32, s string) uint32 {
	if !m.Write(offset, []byte(s)) {
		panic(fmt.Sprintf("testutil: cannot stage %d bytes at %d", len(s), offset))
	}
	return uint32(len(s)) //nolint:gosec // G115: test payloads are small
}

// Call records a single invocation of a core export.
type Call struct {
	Name   string
	Params []uint64
}

// Core is a scripted ports.Core. Exports are Go functions keyed by name.
type Core struct {
	Mem     *Memory
	Exports map[string]func(ctx context.Context, params ...uint64) ([]uint64, error)
	Calls   []Call
}

// NewCore returns a core with memSize bytes of memory and no exports.
func NewCore(memSize int) *Core {
	return &Core{
		Mem:     NewMemory(memSize),
		Exports: make(map[string]func(ctx context.Context, params ...uint64) ([]uint64, error)),
	}
}

// Memory implements ports.Core.
func (c *Core) Memory() ports.Memory {
	return c.Mem
}

// Call implements ports.Core.
func (c *Core) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	c.Calls = append(c.Calls, Call{Name: name, Params: params})
	fn, ok := c.Exports[name]
	if !ok {
		return nil, fmt.Errorf("export %q not found", name)
	}
	return fn(ctx, params...)
}

// Export registers fn under name and returns the core for chaining.
func (c *Core) Export(name string, fn func(ctx context.Context, params ...uint64) ([]uint64, error)) *Core {
	c.Exports[name] = fn
	return c
}

// ExportConst registers an export returning a single constant.
func (c *Core) ExportConst(name string, v uint64) *Core {
	return c.Export(name, func(context.Context, ...uint64) ([]uint64, error) {
		return []uint64{v}, nil
	})
}

// CallsTo returns the recorded calls to name.
func (c *Core) CallsTo(name string) []Call {
	var out []Call
	for _, call := range c.Calls {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}
