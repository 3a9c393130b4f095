package memtree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type dumpNode struct {
	Attributes map[string]*string `yaml:"attributes,omitempty"`
	Tag        string             `yaml:"tag"`
	Text       string             `yaml:"text,omitempty"`
	Children   []dumpNode         `yaml:"children,omitempty"`
}

func toDump(e *Element) dumpNode {
	n := dumpNode{Tag: e.Tag, Text: e.Text}
	if len(e.Attributes) > 0 {
		n.Attributes = e.Attributes.Clone()
	}
	for _, c := range e.Children {
		n.Children = append(n.Children, toDump(c))
	}
	return n
}

// DumpYAML serializes the attached tree, starting at the root container.
func (t *Tree) DumpYAML() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	data, err := yaml.Marshal(toDump(t.root))
	if err != nil {
		return nil, fmt.Errorf("memtree: failed to dump tree: %w", err)
	}
	return data, nil
}

// Render returns a compact markup rendering of the root's children,
// e.g. `<div class="x">hi<br hidden></br></div>`. Attributes are sorted
// by name.
func (t *Tree) Render() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	for _, c := range t.root.Children {
		render(&b, c)
	}
	return b.String()
}

func render(b *strings.Builder, e *Element) {
	if e.IsText() {
		b.WriteString(e.Text)
		return
	}
	b.WriteString("<" + e.Tag)
	for _, name := range e.Attributes.Names() {
		b.WriteString(" " + name)
		if v := e.Attributes[name]; v != nil {
			fmt.Fprintf(b, "=%q", *v)
		}
	}
	b.WriteString(">")
	b.WriteString(e.Text)
	for _, c := range e.Children {
		render(b, c)
	}
	b.WriteString("</" + e.Tag + ">")
}
