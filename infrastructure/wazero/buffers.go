package wazero

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/transport"
)

// BufferSource yields the general buffer of a calling core module.
type BufferSource interface {
	GeneralBuffer(ctx context.Context, mod api.Module) (*transport.Buffer, error)
}

// ExportedBuffers locates each module's general buffer through its
// get_buffer_pointer export on first use and caches it.
type ExportedBuffers struct {
	mu       sync.Mutex
	buffers  map[api.Module]*transport.Buffer
	capacity uint32
}

var _ BufferSource = (*ExportedBuffers)(nil)

// NewExportedBuffers creates a source for buffers of the given capacity.
func NewExportedBuffers(capacity uint32) *ExportedBuffers {
	return &ExportedBuffers{
		buffers:  make(map[api.Module]*transport.Buffer),
		capacity: capacity,
	}
}

// GeneralBuffer implements BufferSource.
func (b *ExportedBuffers) GeneralBuffer(ctx context.Context, mod api.Module) (*transport.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buf, ok := b.buffers[mod]; ok {
		return buf, nil
	}

	base, err := PointerExport(ctx, mod, ports.ExportBufferPointer)
	if err != nil {
		return nil, err
	}
	buf := transport.NewBuffer(mod.Memory(), transport.Region{
		Name:     transport.RegionGeneral,
		Base:     base,
		Capacity: b.capacity,
	})
	b.buffers[mod] = buf
	return buf, nil
}

// Forget drops the cached buffer of mod.
func (b *ExportedBuffers) Forget(mod api.Module) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, mod)
}

// PointerExport calls a nullary export returning an i32 offset.
func PointerExport(ctx context.Context, mod api.Module, name string) (uint32, error) {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return 0, fmt.Errorf("wazero: core module missing %q export", name)
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return 0, fmt.Errorf("wazero: failed to call %q: %w", name, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("wazero: %q returned %d results, want 1", name, len(results))
	}
	return api.DecodeU32(results[0]), nil
}
