package guest

import (
	"errors"
	"fmt"
	"maps"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

// Errors returned by tree edits.
var (
	ErrAttached        = errors.New("guest: element already has a parent")
	ErrCycle           = errors.New("guest: element cannot contain its ancestor")
	ErrTextLeaf        = errors.New("guest: text nodes cannot have children")
	ErrForeign         = errors.New("guest: element belongs to another document")
	ErrRemoved         = errors.New("guest: element was removed")
	ErrListenerRefused = errors.New("guest: host refused the listener")
)

// Event is an interaction delivered to a listener.
type Event struct {
	Target   *Element
	Fields   map[string]any
	Type     string
	Category string
	ID       uint64
}

// Listener handles events of one type on one element.
type Listener func(Event)

// Element is a node of the core's UI description.
type Element struct {
	doc       *Document
	parent    *Element
	attrs     entities.Attributes
	listeners map[string]Listener
	id        string
	tag       string
	text      string
	children  []*Element

	attached bool
	adopted  bool
	removed  bool
	sent     bool
	dirty    bool
}

// ID returns the element's identifier.
func (e *Element) ID() string { return e.id }

// Tag returns the tag name, entities.TextTag for text nodes and empty for
// adopted host objects.
func (e *Element) Tag() string { return e.tag }

// Text returns the text content.
func (e *Element) Text() string { return e.text }

// Parent returns the containing element, or nil.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// Attr returns an attribute value; ok is false when it is absent.
func (e *Element) Attr(name string) (value *string, ok bool) {
	value, ok = e.attrs[name]
	return value, ok
}

// Dirty reports whether the element changed since it was last synced.
func (e *Element) Dirty() bool { return e.dirty }

// SetText replaces the text content.
func (e *Element) SetText(text string) {
	if e.text == text {
		return
	}
	e.text = text
	e.dirty = true
}

// AddAttribute adds an attribute unless one with the same name exists.
// A nil value is a presence-only attribute.
func (e *Element) AddAttribute(name string, value *string) {
	if name == "" {
		return
	}
	if _, ok := e.attrs[name]; ok {
		return
	}
	e.SetAttribute(name, value)
}

// SetAttribute sets or replaces an attribute.
func (e *Element) SetAttribute(name string, value *string) {
	if name == "" {
		return
	}
	if prev, ok := e.attrs[name]; ok && entities.SameValue(prev, value) {
		return
	}
	if e.attrs == nil {
		e.attrs = make(entities.Attributes)
	}
	if value != nil {
		value = entities.Value(*value)
	}
	e.attrs[name] = value
	e.dirty = true
}

// RemoveAttribute deletes an attribute if present.
func (e *Element) RemoveAttribute(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	e.dirty = true
}

// AddElement creates an element with tag and appends it to e.
func (e *Element) AddElement(tag string) (*Element, error) {
	child := e.doc.CreateElement(tag)
	if err := e.Append(child); err != nil {
		return nil, err
	}
	return child, nil
}

// AddText creates a text node and appends it to e.
func (e *Element) AddText(text string) (*Element, error) {
	child := e.doc.CreateText(text)
	if err := e.Append(child); err != nil {
		return nil, err
	}
	return child, nil
}

// Append makes child the last child of e. An element keeps its parent for
// life, so a child that already has one is refused.
func (e *Element) Append(child *Element) error {
	switch {
	case e.removed || child.removed:
		return ErrRemoved
	case child.doc != e.doc:
		return ErrForeign
	case e.tag == entities.TextTag:
		return ErrTextLeaf
	case child.parent != nil || child.adopted || e.doc.isRoot(child):
		return ErrAttached
	}
	for p := e; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}

	child.parent = e
	e.children = append(e.children, child)
	if e.attached {
		child.attach()
	}
	return nil
}

// AddEventListener registers fn for eventType, replacing any earlier
// listener of that type. The host is told the first time only.
func (e *Element) AddEventListener(eventType string, fn Listener) error {
	if e.removed {
		return ErrRemoved
	}
	if _, ok := e.listeners[eventType]; !ok {
		payload, err := e.doc.codec.EncodeListener(entities.Listener{ID: e.id, Type: eventType})
		if err != nil {
			return err
		}
		if status := e.doc.host.AddEventListener(payload); status != 0 {
			return fmt.Errorf("%w: %s on %s", ErrListenerRefused, eventType, e.id)
		}
	}
	if e.listeners == nil {
		e.listeners = make(map[string]Listener)
	}
	e.listeners[eventType] = fn
	return nil
}

func (e *Element) attach() {
	e.attached = true
	for _, c := range e.children {
		c.attach()
	}
}

func (e *Element) node() entities.Node {
	n := entities.Node{
		ID:   e.id,
		Tag:  e.tag,
		Text: e.text,
	}
	if e.parent != nil {
		n.ParentID = e.parent.id
	}
	if len(e.attrs) > 0 {
		n.Attributes = maps.Clone(e.attrs)
	}
	return n
}
