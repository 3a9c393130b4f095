package entities

import (
	"maps"
	"sort"
)

// TextTag is the reserved tag marking a node as a text leaf.
const TextTag = "#text"

// Attributes maps attribute names to optional values.
// A nil value denotes a presence-only (boolean) attribute.
type Attributes map[string]*string

// Value returns a pointer to v, for building attribute maps inline.
func Value(v string) *string {
	return &v
}

// Clone returns a deep copy of the attributes.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for name, v := range a {
		if v == nil {
			out[name] = nil
			continue
		}
		out[name] = Value(*v)
	}
	return out
}

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both maps hold the same names with the same values.
func (a Attributes) Equal(b Attributes) bool {
	return maps.EqualFunc(a, b, SameValue)
}

// SameValue compares two optional attribute values.
func SameValue(x, y *string) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	return *x == *y
}

// Node is a snapshot of a single UI-tree element as described by the core.
type Node struct {
	Attributes Attributes `json:"attributes,omitempty" cbor:"attributes,omitempty"`
	ID         string     `json:"id" cbor:"id"`
	ParentID   string     `json:"parent_id,omitempty" cbor:"parent_id,omitempty"`
	Tag        string     `json:"tag" cbor:"tag"`
	Text       string     `json:"text,omitempty" cbor:"text,omitempty"`
}

// IsText reports whether the node is a text leaf.
func (n Node) IsText() bool {
	return n.Tag == TextTag
}

// HasParent reports whether the node names a containing node.
func (n Node) HasParent() bool {
	return n.ParentID != ""
}

// Clone returns a copy of the node that shares no attribute storage.
func (n Node) Clone() Node {
	n.Attributes = n.Attributes.Clone()
	return n
}

// Equal reports whether two node descriptions are identical.
func (n Node) Equal(o Node) bool {
	return n.ID == o.ID &&
		n.ParentID == o.ParentID &&
		n.Tag == o.Tag &&
		n.Text == o.Text &&
		n.Attributes.Equal(o.Attributes)
}

// Snapshot is a batch of node descriptions submitted in one sync call.
type Snapshot []Node

// IDs returns the node identifiers in batch order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s))
	for i, n := range s {
		ids[i] = n.ID
	}
	return ids
}
