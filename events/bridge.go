package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/identity"
)

// Identities resolves live elements to their identifiers.
type Identities interface {
	IDOf(el ports.Element) (string, bool)
}

// Target receives serialized EventTriggers.
type Target interface {
	DeliverEvent(ctx context.Context, payload []byte) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(ctx context.Context, payload []byte) error

// DeliverEvent implements Target.
func (f TargetFunc) DeliverEvent(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// Bridge keeps the listener registry and turns host events into triggers.
// It is safe for concurrent use.
type Bridge struct {
	ids       Identities
	target    Target
	logger    *slog.Logger
	listeners map[string]map[string]struct{}
	nextID    atomic.Uint64
	mu        sync.RWMutex
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for dropped events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithTarget sets where triggers are delivered. It can also be set later
// with SetTarget, once the core's event buffer is known.
func WithTarget(t Target) Option {
	return func(b *Bridge) {
		b.target = t
	}
}

// NewBridge creates a Bridge resolving elements through ids.
func NewBridge(ids Identities, opts ...Option) *Bridge {
	b := &Bridge{
		ids:       ids,
		logger:    slog.Default(),
		listeners: make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetTarget replaces the delivery target.
func (b *Bridge) SetTarget(t Target) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = t
}

// AddListener registers interest in an event type on a node.
func (b *Bridge) AddListener(l entities.Listener) error {
	if !identity.Validate(l.ID) {
		return bridgeerrors.MalformedNode(l.ID, "invalid identifier in listener")
	}
	if l.Type == "" {
		return bridgeerrors.MalformedNode(l.ID, "listener has no event type")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	types, ok := b.listeners[l.ID]
	if !ok {
		types = make(map[string]struct{})
		b.listeners[l.ID] = types
	}
	types[l.Type] = struct{}{}
	return nil
}

// RemoveListener drops a registration and reports whether it existed.
func (b *Bridge) RemoveListener(l entities.Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	types, ok := b.listeners[l.ID]
	if !ok {
		return false
	}
	if _, ok := types[l.Type]; !ok {
		return false
	}
	delete(types, l.Type)
	if len(types) == 0 {
		delete(b.listeners, l.ID)
	}
	return true
}

// Forget drops every registration of a node, e.g. after its removal.
func (b *Bridge) Forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
}

// Listening reports whether the node listens for eventType.
func (b *Bridge) Listening(id, eventType string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.listeners[id][eventType]
	return ok
}

// NewTrigger builds the trigger for an event on node id, assigning the
// next event instance id.
func (b *Bridge) NewTrigger(id, eventType string, fields map[string]any) entities.EventTrigger {
	c := CategoryFor(eventType)
	return entities.EventTrigger{
		UUID:    id,
		EventID: b.nextID.Add(1),
		Type:    eventType,
		Event:   map[string]map[string]any{string(c): Filter(c, fields)},
	}
}

// Dispatch delivers an event raised on el. It returns false without error
// when el is unknown or nothing listens for eventType on it.
func (b *Bridge) Dispatch(ctx context.Context, el ports.Element, eventType string, fields map[string]any) (bool, error) {
	id, ok := b.ids.IDOf(el)
	if !ok {
		b.logger.DebugContext(ctx, "dropping event for unbound element", "type", eventType)
		return false, nil
	}
	if !b.Listening(id, eventType) {
		return false, nil
	}

	b.mu.RLock()
	target := b.target
	b.mu.RUnlock()
	if target == nil {
		return false, fmt.Errorf("events: no delivery target for %s on %s", eventType, id)
	}

	payload, err := json.Marshal(b.NewTrigger(id, eventType, fields))
	if err != nil {
		return false, fmt.Errorf("events: failed to encode %s on %s: %w", eventType, id, err)
	}
	if err := target.DeliverEvent(ctx, payload); err != nil {
		b.logger.ErrorContext(ctx, "event delivery failed", "node", id, "type", eventType, "error", err)
		return false, err
	}
	return true, nil
}
