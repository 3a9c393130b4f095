package ports

// Element is an opaque handle to a live host-tree object.
// Implementations must use comparable handles (typically pointers) because
// the identity registry keys a reverse map by element.
type Element any

// HostTree is the mutable UI surface owned by the host.
// Every method mutates the live tree; the reconciler only calls them when a
// description actually changed.
type HostTree interface {
	// Root returns the container that parentless nodes attach to.
	Root() Element

	// CreateElement creates a detached element with the given tag.
	CreateElement(tag string) (Element, error)

	// CreateText creates a detached text leaf.
	CreateText(text string) (Element, error)

	// SetText replaces the text payload of an element or text leaf.
	SetText(el Element, text string) error

	// SetAttribute sets or overwrites an attribute. A nil value sets a
	// presence-only attribute.
	SetAttribute(el Element, name string, value *string) error

	// RemoveAttribute removes an attribute if present.
	RemoveAttribute(el Element, name string) error

	// AppendChild attaches child as the last child of parent.
	AppendChild(parent, child Element) error

	// Remove detaches the element from its parent.
	Remove(el Element) error
}

// ExternalLookup finds pre-existing host objects by an external key, e.g. an
// element carrying a given DOM id.
type ExternalLookup interface {
	LookupExternal(key string) (Element, bool)
}
