package memtree

import (
	"fmt"
	"slices"
	"sync"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/domain/ports"
)

// RootTag is the tag of the container parentless nodes attach to.
const RootTag = "body"

// KeyAttribute is the attribute LookupExternal matches against.
const KeyAttribute = "id"

// Element is a node of the in-memory tree.
type Element struct {
	parent     *Element
	Attributes entities.Attributes
	Tag        string
	Text       string
	Children   []*Element
}

// IsText reports whether the element is a text leaf.
func (e *Element) IsText() bool {
	return e.Tag == entities.TextTag
}

// Parent returns the containing element, or nil when detached.
func (e *Element) Parent() *Element {
	return e.parent
}

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) (*string, bool) {
	v, ok := e.Attributes[name]
	return v, ok
}

// Counters tallies the mutations applied to a Tree.
type Counters struct {
	Created           int `yaml:"created"`
	TextSets          int `yaml:"text_sets"`
	AttributeSets     int `yaml:"attribute_sets"`
	AttributeRemovals int `yaml:"attribute_removals"`
	Appends           int `yaml:"appends"`
	Removals          int `yaml:"removals"`
}

// Total returns the number of mutations of any kind.
func (c Counters) Total() int {
	return c.Created + c.TextSets + c.AttributeSets + c.AttributeRemovals + c.Appends + c.Removals
}

// Tree is an in-memory ports.HostTree. It is safe for concurrent use.
type Tree struct {
	root     *Element
	counters Counters
	mu       sync.RWMutex
}

var (
	_ ports.HostTree       = (*Tree)(nil)
	_ ports.ExternalLookup = (*Tree)(nil)
)

// New creates a tree holding only the root container.
func New() *Tree {
	return &Tree{root: &Element{Tag: RootTag}}
}

// Root implements ports.HostTree.
func (t *Tree) Root() ports.Element {
	return t.root
}

// RootElement returns the root container with its concrete type.
func (t *Tree) RootElement() *Element {
	return t.root
}

// Seed adds a pre-existing element under parent (the root when nil)
// without counting it as a mutation. Seeded elements model host objects
// that exist before the core module runs.
func (t *Tree) Seed(parent *Element, tag string, attrs entities.Attributes) *Element {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parent == nil {
		parent = t.root
	}
	el := &Element{Tag: tag, Attributes: attrs.Clone()}
	attach(parent, el)
	return el
}

// CreateElement implements ports.HostTree.
func (t *Tree) CreateElement(tag string) (ports.Element, error) {
	if tag == "" || tag == entities.TextTag {
		return nil, fmt.Errorf("memtree: invalid element tag %q", tag)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.Created++
	return &Element{Tag: tag}, nil
}

// CreateText implements ports.HostTree.
func (t *Tree) CreateText(text string) (ports.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters.Created++
	return &Element{Tag: entities.TextTag, Text: text}, nil
}

// SetText implements ports.HostTree.
func (t *Tree) SetText(el ports.Element, text string) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e.Text = text
	t.counters.TextSets++
	return nil
}

// SetAttribute implements ports.HostTree.
func (t *Tree) SetAttribute(el ports.Element, name string, value *string) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("memtree: empty attribute name")
	}
	if e.IsText() {
		return fmt.Errorf("memtree: text leaves carry no attributes")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.Attributes == nil {
		e.Attributes = make(entities.Attributes)
	}
	if value != nil {
		value = entities.Value(*value)
	}
	e.Attributes[name] = value
	t.counters.AttributeSets++
	return nil
}

// RemoveAttribute implements ports.HostTree.
func (t *Tree) RemoveAttribute(el ports.Element, name string) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(e.Attributes, name)
	t.counters.AttributeRemovals++
	return nil
}

// AppendChild implements ports.HostTree. An attached child is moved.
func (t *Tree) AppendChild(parent, child ports.Element) error {
	p, err := unwrap(parent)
	if err != nil {
		return err
	}
	c, err := unwrap(child)
	if err != nil {
		return err
	}
	if p.IsText() {
		return fmt.Errorf("memtree: cannot append to a text leaf")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for a := p; a != nil; a = a.parent {
		if a == c {
			return fmt.Errorf("memtree: appending %s would create a cycle", c.Tag)
		}
	}
	detach(c)
	attach(p, c)
	t.counters.Appends++
	return nil
}

// Remove implements ports.HostTree. Removing a detached element is a no-op.
func (t *Tree) Remove(el ports.Element) error {
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	if e == t.root {
		return fmt.Errorf("memtree: cannot remove the root container")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.parent == nil {
		return nil
	}
	detach(e)
	t.counters.Removals++
	return nil
}

// LookupExternal implements ports.ExternalLookup by finding the first
// attached element, in document order, whose KeyAttribute equals key.
func (t *Tree) LookupExternal(key string) (ports.Element, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if el := find(t.root, key); el != nil {
		return el, true
	}
	return nil, false
}

// Counters returns the mutations applied since creation or the last reset.
func (t *Tree) Counters() Counters {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counters
}

// ResetCounters zeroes the mutation counters.
func (t *Tree) ResetCounters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counters = Counters{}
}

func unwrap(el ports.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("memtree: foreign element %T", el)
	}
	return e, nil
}

func attach(parent, child *Element) {
	child.parent = parent
	parent.Children = append(parent.Children, child)
}

func detach(e *Element) {
	if e.parent == nil {
		return
	}
	p := e.parent
	if i := slices.Index(p.Children, e); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	e.parent = nil
}

func find(e *Element, key string) *Element {
	if v, ok := e.Attributes[KeyAttribute]; ok && v != nil && *v == key {
		return e
	}
	for _, c := range e.Children {
		if found := find(c, key); found != nil {
			return found
		}
	}
	return nil
}
