package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/transport"
)

// CoreTarget delivers triggers by writing them into the core's event
// buffer and calling its element_trigger_event export.
type CoreTarget struct {
	core ports.Core
	buf  *transport.Buffer
	lock sync.Locker
}

var _ Target = (*CoreTarget)(nil)

// NewCoreTarget creates a CoreTarget. lock serializes deliveries with the
// other host-initiated calls into the core; nil gets a private mutex.
func NewCoreTarget(core ports.Core, buf *transport.Buffer, lock sync.Locker) *CoreTarget {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &CoreTarget{core: core, buf: buf, lock: lock}
}

// DeliverEvent implements Target. A payload larger than the event buffer
// is not delivered.
func (t *CoreTarget) DeliverEvent(ctx context.Context, payload []byte) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	n, err := t.buf.Write(payload)
	if err != nil {
		return fmt.Errorf("events: failed to stage trigger: %w", err)
	}
	if _, err := t.core.Call(ctx, ports.ExportElementTriggerEvent, uint64(n)); err != nil { //nolint:gosec // G115: n is non-negative
		return fmt.Errorf("events: %s failed: %w", ports.ExportElementTriggerEvent, err)
	}
	return nil
}
