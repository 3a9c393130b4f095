package guest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	uulog "github.com/uu-dev/uu-bridge/log"
	"github.com/uu-dev/uu-bridge/wireformat"
)

// Sync failures.
var (
	// ErrSyncFailed means the host could not read the snapshot at all.
	ErrSyncFailed = errors.New("guest: host rejected the snapshot")
	// ErrNodeErrors means some nodes were refused. Changed elements stay
	// dirty and are sent again on the next Sync.
	ErrNodeErrors = errors.New("guest: host refused some nodes")
)

// Option configures a Document.
type Option func(*Document)

// WithCodec sets the wire format. It must match the host's configuration.
// Default is flat.
func WithCodec(c wireformat.Codec) Option {
	return func(d *Document) {
		if c != nil {
			d.codec = c
		}
	}
}

// WithLogLevel sets the minimum level of Logger.
func WithLogLevel(level slog.Level) Option {
	return func(d *Document) {
		d.logLevel = level
	}
}

// Document is the core's UI description. It is not safe for concurrent use.
type Document struct {
	host     Host
	codec    wireformat.Codec
	logger   *slog.Logger
	elements map[string]*Element
	roots    []*Element
	adopted  []*Element
	removed  []string
	logLevel slog.Level
}

// NewDocument creates an empty document talking to h.
func NewDocument(h Host, opts ...Option) *Document {
	d := &Document{
		host:     h,
		codec:    wireformat.Flat{},
		elements: make(map[string]*Element),
		logLevel: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = slog.New(uulog.NewHandler(h.ConsoleLog, uulog.WithLevel(d.logLevel)))
	return d
}

// Logger returns a logger whose records go to the host console.
func (d *Document) Logger() *slog.Logger {
	return d.logger
}

// Log sends plain text to the host console.
func (d *Document) Log(msg string) {
	d.host.ConsoleLog([]byte(msg))
}

// CreateElement makes a detached element with a fresh identifier.
func (d *Document) CreateElement(tag string) *Element {
	e := &Element{doc: d, id: d.host.UUIDv4(), tag: tag, dirty: true}
	d.elements[e.id] = e
	return e
}

// CreateText makes a detached text node.
func (d *Document) CreateText(text string) *Element {
	e := d.CreateElement(entities.TextTag)
	e.text = text
	return e
}

// Append attaches el at the top level of the host tree.
func (d *Document) Append(el *Element) error {
	switch {
	case el.removed:
		return ErrRemoved
	case el.doc != d:
		return ErrForeign
	case el.parent != nil || el.adopted || d.isRoot(el):
		return ErrAttached
	}
	d.roots = append(d.roots, el)
	el.attach()
	return nil
}

func (d *Document) isRoot(el *Element) bool {
	for _, r := range d.roots {
		if r == el {
			return true
		}
	}
	return false
}

// ElementByID returns a known element.
func (d *Document) ElementByID(id string) (*Element, bool) {
	e, ok := d.elements[id]
	return e, ok
}

// GetElementByName finds a host object that existed before the core, such
// as a mount point, by its key. The result has no tag and can take
// children and attributes like any other element.
func (d *Document) GetElementByName(key string) (*Element, bool) {
	reply := d.host.GetElementByID([]byte(key))
	id := string(reply)
	if id == "" || id == wireformat.NullMarker {
		return nil, false
	}
	if e, ok := d.elements[id]; ok {
		return e, true
	}
	e := &Element{doc: d, id: id, adopted: true, attached: true, sent: true}
	d.elements[id] = e
	d.adopted = append(d.adopted, e)
	return e, true
}

// Remove detaches el and its subtree. The host is told on the next Sync.
func (d *Document) Remove(el *Element) {
	if el.doc != d || el.removed {
		return
	}
	if p := el.parent; p != nil {
		p.children = without(p.children, el)
	}
	d.roots = without(d.roots, el)
	d.adopted = without(d.adopted, el)
	d.forget(el)
}

// forget drops el and its subtree locally and queues a removal for every
// element the host has been sent, including ones it rejected or deferred.
func (d *Document) forget(el *Element) {
	if el.sent {
		d.removed = append(d.removed, el.id)
	}
	el.removed = true
	el.attached = false
	delete(d.elements, el.id)
	for _, c := range el.children {
		d.forget(c)
	}
}

func without(list []*Element, el *Element) []*Element {
	for i, x := range list {
		if x == el {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Snapshot lists the attached elements changed since the last sync,
// parents before children.
func (d *Document) Snapshot() entities.Snapshot {
	var s entities.Snapshot
	var walk func(e *Element)
	walk = func(e *Element) {
		if e.dirty {
			s = append(s, e.node())
		}
		for _, c := range e.children {
			walk(c)
		}
	}
	for _, e := range d.adopted {
		walk(e)
	}
	for _, e := range d.roots {
		walk(e)
	}
	return s
}

// Sync sends pending removals and then the changed elements.
func (d *Document) Sync() error {
	if len(d.removed) > 0 {
		payload, err := d.codec.EncodeIDs(d.removed)
		if err != nil {
			return err
		}
		if _, err := d.Call(hostfuncs.OpRemoveElements, payload); err != nil {
			return err
		}
		d.removed = nil
	}

	snap := d.Snapshot()
	if len(snap) == 0 {
		return nil
	}
	payload, err := d.codec.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	status := d.host.SyncElements(payload)
	if status != 0 && status != 1 {
		return fmt.Errorf("%w (status %d)", ErrSyncFailed, status)
	}
	// After node errors the host has applied part of the batch. Everything
	// stays dirty, and resending an applied node changes nothing.
	for _, n := range snap {
		if e, ok := d.elements[n.ID]; ok {
			e.sent = true
			if status == 0 {
				e.dirty = false
			}
		}
	}
	if status == 1 {
		return ErrNodeErrors
	}
	return nil
}

// Call invokes a bridge operation by name through upload_bytes.
func (d *Document) Call(op hostfuncs.Operation, payload []byte) ([]byte, error) {
	reply, ok := d.host.UploadBytes(hostfuncs.JoinMessage(op, payload))
	if !ok {
		return nil, fmt.Errorf("guest: %s failed", op)
	}
	return reply, nil
}

// Dispatch delivers an event trigger written by the host. Triggers for
// unknown elements or unregistered types are ignored.
func (d *Document) Dispatch(payload []byte) error {
	var t entities.EventTrigger
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("guest: invalid event trigger: %w", err)
	}
	e, ok := d.elements[t.UUID]
	if !ok {
		return nil
	}
	fn, ok := e.listeners[t.Type]
	if !ok {
		return nil
	}
	fn(Event{
		Target:   e,
		Fields:   t.Fields(),
		Type:     t.Type,
		Category: t.Category(),
		ID:       t.EventID,
	})
	return nil
}
