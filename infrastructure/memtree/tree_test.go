package memtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

func TestTree_BuildAndRender(t *testing.T) {
	tree := New()

	div, err := tree.CreateElement("div")
	require.NoError(t, err)
	require.NoError(t, tree.SetAttribute(div, "class", entities.Value("x")))
	require.NoError(t, tree.SetAttribute(div, "hidden", nil))
	require.NoError(t, tree.AppendChild(tree.Root(), div))

	text, err := tree.CreateText("hello")
	require.NoError(t, err)
	require.NoError(t, tree.AppendChild(div, text))

	assert.Equal(t, `<div class="x" hidden>hello</div>`, tree.Render())
	assert.Equal(t, Counters{Created: 2, AttributeSets: 2, Appends: 2}, tree.Counters())
	assert.Equal(t, 6, tree.Counters().Total())
}

func TestTree_AppendMovesChild(t *testing.T) {
	tree := New()
	a, _ := tree.CreateElement("a")
	b, _ := tree.CreateElement("b")
	c, _ := tree.CreateElement("c")
	require.NoError(t, tree.AppendChild(tree.Root(), a))
	require.NoError(t, tree.AppendChild(tree.Root(), b))
	require.NoError(t, tree.AppendChild(a, c))
	require.NoError(t, tree.AppendChild(b, c))

	assert.Equal(t, "<a></a><b><c></c></b>", tree.Render())
	assert.Same(t, b, c.(*Element).Parent())
}

func TestTree_AppendRejectsCycles(t *testing.T) {
	tree := New()
	a, _ := tree.CreateElement("a")
	b, _ := tree.CreateElement("b")
	require.NoError(t, tree.AppendChild(a, b))

	assert.Error(t, tree.AppendChild(b, a))
	assert.Error(t, tree.AppendChild(a, a))
}

func TestTree_Remove(t *testing.T) {
	tree := New()
	a, _ := tree.CreateElement("a")
	require.NoError(t, tree.AppendChild(tree.Root(), a))

	require.NoError(t, tree.Remove(a))
	require.NoError(t, tree.Remove(a), "detached element")
	assert.Empty(t, tree.Render())
	assert.Equal(t, 1, tree.Counters().Removals)

	assert.Error(t, tree.Remove(tree.Root()))
}

func TestTree_RejectsForeignElements(t *testing.T) {
	tree := New()
	assert.Error(t, tree.SetText("nope", "x"))
	assert.Error(t, tree.AppendChild(tree.Root(), 42))

	leaf, _ := tree.CreateText("x")
	assert.Error(t, tree.SetAttribute(leaf, "class", nil))
	el, _ := tree.CreateElement("p")
	assert.Error(t, tree.AppendChild(leaf, el))

	_, err := tree.CreateElement(entities.TextTag)
	assert.Error(t, err)
}

func TestTree_LookupExternal(t *testing.T) {
	tree := New()
	app := tree.Seed(nil, "div", entities.Attributes{"id": entities.Value("app")})
	inner := tree.Seed(app, "span", entities.Attributes{"id": entities.Value("inner")})

	el, ok := tree.LookupExternal("inner")
	require.True(t, ok)
	assert.Same(t, inner, el)

	_, ok = tree.LookupExternal("missing")
	assert.False(t, ok)

	assert.Zero(t, tree.Counters().Total(), "seeding is not a mutation")
}

func TestTree_DumpYAML(t *testing.T) {
	tree := New()
	app := tree.Seed(nil, "div", entities.Attributes{"id": entities.Value("app"), "hidden": nil})
	tree.Seed(app, entities.TextTag, nil).Text = "hi"

	data, err := tree.DumpYAML()
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "body", got["tag"])

	children := got["children"].([]any)
	require.Len(t, children, 1)
	div := children[0].(map[string]any)
	assert.Equal(t, map[string]any{"id": "app", "hidden": nil}, div["attributes"])
	assert.Equal(t, []any{map[string]any{"tag": "#text", "text": "hi"}}, div["children"])
}
