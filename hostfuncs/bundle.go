package hostfuncs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/reconciler"
	"github.com/uu-dev/uu-bridge/wireformat"
)

// HostFuncBundle is a pre-configured set of related handlers.
type HostFuncBundle interface {
	// Handlers returns the handler for each operation the bundle serves.
	Handlers() map[Operation]ByteHandler
}

// TreeSyncer applies snapshots and removals to the live tree.
type TreeSyncer interface {
	Apply(ctx context.Context, s entities.Snapshot) (reconciler.Report, error)
	Remove(ctx context.Context, ids []string) (reconciler.Report, error)
}

// IdentitySource mints identifiers and adopts pre-existing host objects.
type IdentitySource interface {
	NewID() string
	Adopt(key string) (id string, found bool, err error)
}

// ListenerRegistry records which elements want which events.
type ListenerRegistry interface {
	AddListener(l entities.Listener) error
	RemoveListener(l entities.Listener) bool
}

// SyncResponse is the JSON reply to sync-tree and remove-elements.
type SyncResponse struct {
	Errors    []*entities.ErrorDetail `json:"errors,omitempty"`
	Created   int                     `json:"created"`
	Updated   int                     `json:"updated"`
	Unchanged int                     `json:"unchanged"`
	Deferred  int                     `json:"deferred"`
	Removed   int                     `json:"removed"`

	// ErrorsOmitted counts node errors dropped from Errors to fit the reply
	// into the core's buffer.
	ErrorsOmitted int `json:"errors_omitted,omitempty"`
}

// NewSyncResponse converts a reconciler report.
func NewSyncResponse(rep reconciler.Report) SyncResponse {
	return SyncResponse{
		Errors:    rep.ErrorDetails(),
		Created:   rep.Created,
		Updated:   rep.Updated,
		Unchanged: rep.Unchanged,
		Deferred:  rep.Deferred,
		Removed:   rep.Removed,
	}
}

// OK reports whether every node was handled without error.
func (r SyncResponse) OK() bool {
	return len(r.Errors) == 0 && r.ErrorsOmitted == 0
}

// WithoutErrors returns the counts of r with the node errors folded into
// ErrorsOmitted.
func (r SyncResponse) WithoutErrors() SyncResponse {
	r.ErrorsOmitted += len(r.Errors)
	r.Errors = nil
	return r
}

// DecodeSyncResponse parses a sync-tree or remove-elements reply.
func DecodeSyncResponse(data []byte) (SyncResponse, error) {
	var resp SyncResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return SyncResponse{}, fmt.Errorf("failed to decode sync response: %w", err)
	}
	return resp, nil
}

// ConsoleSink receives console-log payloads from the core.
type ConsoleSink interface {
	Emit(ctx context.Context, payload []byte, attrs ...slog.Attr)
}

// Bridge serves the bridge operations. Operations whose dependency is nil
// are left out of Handlers.
type Bridge struct {
	Codec     wireformat.Codec
	Tree      TreeSyncer
	IDs       IdentitySource
	Listeners ListenerRegistry

	// Console receives console-log messages. Nil drops them.
	Console ConsoleSink

	// MaxConsoleBytes caps a console-log message; zero means DefaultMaxConsoleBytes.
	MaxConsoleBytes int
}

var _ HostFuncBundle = (*Bridge)(nil)

// Handlers implements HostFuncBundle.
func (b *Bridge) Handlers() map[Operation]ByteHandler {
	h := map[Operation]ByteHandler{
		OpConsoleLog: b.consoleLog,
	}
	codec := b.codec()
	if b.Tree != nil {
		h[OpSyncTree] = NewHandler[entities.Snapshot, SyncResponse](codec.DecodeSnapshot, b.syncTree)
		h[OpRemoveElements] = NewHandler[[]string, SyncResponse](codec.DecodeIDs, b.removeElements)
	}
	if b.IDs != nil {
		h[OpGenerateID] = b.generateID
		h[OpLookupByKey] = b.lookupByKey
	}
	if b.Listeners != nil {
		h[OpAddEventListener] = b.addEventListener
		h[OpRemoveEventListener] = b.removeEventListener
	}
	return h
}

func (b *Bridge) codec() wireformat.Codec {
	if b.Codec == nil {
		return wireformat.Flat{}
	}
	return b.Codec
}

func (b *Bridge) syncTree(ctx context.Context, s entities.Snapshot) (SyncResponse, error) {
	rep, err := b.Tree.Apply(ctx, s)
	if err != nil {
		return SyncResponse{}, err
	}
	return NewSyncResponse(rep), nil
}

func (b *Bridge) removeElements(ctx context.Context, ids []string) (SyncResponse, error) {
	rep, err := b.Tree.Remove(ctx, ids)
	if err != nil {
		return SyncResponse{}, err
	}
	return NewSyncResponse(rep), nil
}

func (b *Bridge) generateID(context.Context, []byte) ([]byte, error) {
	return []byte(b.IDs.NewID()), nil
}

// lookupByKey answers with the element's identifier, or the null marker
// when no host object carries key.
func (b *Bridge) lookupByKey(_ context.Context, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, bridgeerrors.Malformed("", "lookup key is empty")
	}
	id, found, err := b.IDs.Adopt(string(payload))
	if err != nil {
		return nil, err
	}
	if !found {
		return []byte(wireformat.NullMarker), nil
	}
	return []byte(id), nil
}

func (b *Bridge) consoleLog(ctx context.Context, payload []byte) ([]byte, error) {
	if b.Console == nil {
		return nil, nil
	}
	limit := b.MaxConsoleBytes
	if limit <= 0 {
		limit = DefaultMaxConsoleBytes
	}
	buf := NewBoundedBuffer(limit)
	_, _ = buf.Write(payload)

	var attrs []slog.Attr
	if buf.Truncated {
		attrs = append(attrs, slog.Bool("truncated", true), slog.Int("original_bytes", len(payload)))
	}
	b.Console.Emit(ctx, buf.Bytes(), attrs...)
	return nil, nil
}

func (b *Bridge) addEventListener(_ context.Context, payload []byte) ([]byte, error) {
	l, err := b.codec().DecodeListener(payload)
	if err != nil {
		return nil, err
	}
	return nil, b.Listeners.AddListener(l)
}

func (b *Bridge) removeEventListener(_ context.Context, payload []byte) ([]byte, error) {
	l, err := b.codec().DecodeListener(payload)
	if err != nil {
		return nil, err
	}
	b.Listeners.RemoveListener(l)
	return nil, nil
}

// WithBundle registers all handlers from a bundle.
func WithBundle(bundle HostFuncBundle) RegistryOption {
	return func(b *registryBuilder) {
		for op, handler := range bundle.Handlers() {
			if err := b.addHandler(op, handler); err != nil {
				b.errors = append(b.errors, err)
			}
		}
	}
}
