package guest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/events"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	"github.com/uu-dev/uu-bridge/identity"
	"github.com/uu-dev/uu-bridge/infrastructure/memtree"
	uulog "github.com/uu-dev/uu-bridge/log"
	"github.com/uu-dev/uu-bridge/reconciler"
	"github.com/uu-dev/uu-bridge/wireformat"
)

// loopback serves a document from an in-process host stack.
type loopback struct {
	reg       *hostfuncs.HandlerRegistry
	tree      *memtree.Tree
	ids       *identity.Registry
	rec       *reconciler.Reconciler
	listeners *events.Bridge
	logs      []string
	uploads   []string
}

func newLoopback(t *testing.T, codec wireformat.Codec) *loopback {
	t.Helper()
	h := &loopback{tree: memtree.New()}
	h.ids = identity.NewRegistry(identity.WithExternalLookup(h.tree))
	h.listeners = events.NewBridge(h.ids)

	var err error
	h.rec, err = reconciler.New(h.tree, h.ids, reconciler.WithRetireHook(h.listeners.Forget))
	require.NoError(t, err)
	h.reg, err = hostfuncs.NewRegistry(hostfuncs.WithBundle(&hostfuncs.Bridge{
		Codec:     codec,
		Tree:      h.rec,
		IDs:       h.ids,
		Listeners: h.listeners,
	}))
	require.NoError(t, err)
	return h
}

func (h *loopback) ConsoleLog(msg []byte) {
	h.logs = append(h.logs, string(msg))
}

func (h *loopback) UUIDv4() string {
	id, _ := h.reg.Invoke(context.Background(), hostfuncs.OpGenerateID, nil)
	return string(id)
}

func (h *loopback) SyncElements(payload []byte) int32 {
	resp, err := h.reg.Invoke(context.Background(), hostfuncs.OpSyncTree, payload)
	if err != nil {
		return ports.StatusFailed
	}
	report, err := hostfuncs.DecodeSyncResponse(resp)
	if err != nil {
		return ports.StatusFailed
	}
	if !report.OK() {
		return ports.StatusNodeErrors
	}
	return ports.StatusOK
}

func (h *loopback) GetElementByID(key []byte) []byte {
	id, err := h.reg.Invoke(context.Background(), hostfuncs.OpLookupByKey, key)
	if err != nil {
		return []byte(wireformat.NullMarker)
	}
	return id
}

func (h *loopback) UploadBytes(msg []byte) ([]byte, bool) {
	op, _ := hostfuncs.SplitMessage(msg)
	h.uploads = append(h.uploads, op)
	resp, err := h.reg.Dispatch(context.Background(), msg)
	return resp, err == nil
}

func (h *loopback) AddEventListener(payload []byte) int32 {
	if _, err := h.reg.Invoke(context.Background(), hostfuncs.OpAddEventListener, payload); err != nil {
		return ports.StatusFailed
	}
	return ports.StatusOK
}

// stubHost answers every call with fixed values.
type stubHost struct {
	status   int32
	listener int32
	next     int
}

func (s *stubHost) ConsoleLog([]byte) {}

func (s *stubHost) UUIDv4() string {
	s.next++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.next)
}

func (s *stubHost) SyncElements([]byte) int32 { return s.status }

func (s *stubHost) GetElementByID([]byte) []byte { return []byte(wireformat.NullMarker) }

func (s *stubHost) UploadBytes([]byte) ([]byte, bool) { return nil, false }

func (s *stubHost) AddEventListener([]byte) int32 { return s.listener }

func TestDocument_SyncBuildsHostTree(t *testing.T) {
	for _, codec := range []wireformat.Codec{wireformat.Flat{}, wireformat.JSON{}, wireformat.NewCBOR()} {
		t.Run(string(codec.Format()), func(t *testing.T) {
			h := newLoopback(t, codec)
			d := NewDocument(h, WithCodec(codec))

			p := d.CreateElement("p")
			p.SetAttribute("class", entities.Value("greeting"))
			_, err := p.AddText("hello")
			require.NoError(t, err)
			require.NoError(t, d.Append(p))

			require.NoError(t, d.Sync())
			assert.Equal(t, `<p class="greeting">hello</p>`, h.tree.Render())
			assert.Empty(t, d.Snapshot())
			assert.False(t, p.Dirty())

			before := h.tree.Counters()
			require.NoError(t, d.Sync())
			assert.Equal(t, before, h.tree.Counters())
		})
	}
}

func TestDocument_SendsOnlyChangedElements(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)

	list := d.CreateElement("ul")
	require.NoError(t, d.Append(list))
	first, err := list.AddElement("li")
	require.NoError(t, err)
	_, err = list.AddElement("li")
	require.NoError(t, err)
	require.NoError(t, d.Sync())

	first.SetText("one")
	first.SetText("one")
	snap := d.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, first.ID(), snap[0].ID)
	assert.Equal(t, list.ID(), snap[0].ParentID)

	require.NoError(t, d.Sync())
	assert.Equal(t, "<ul><li>one</li><li></li></ul>", h.tree.Render())
}

func TestDocument_DetachedElementsWait(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)

	div := d.CreateElement("div")
	_, err := div.AddElement("span")
	require.NoError(t, err)
	assert.Empty(t, d.Snapshot())

	require.NoError(t, d.Append(div))
	assert.Len(t, d.Snapshot(), 2)
}

func TestElement_Attributes(t *testing.T) {
	d := NewDocument(&stubHost{})
	e := d.CreateElement("input")

	e.AddAttribute("type", entities.Value("text"))
	e.AddAttribute("type", entities.Value("checkbox"))
	v, ok := e.Attr("type")
	require.True(t, ok)
	assert.Equal(t, "text", *v)

	e.AddAttribute("disabled", nil)
	v, ok = e.Attr("disabled")
	assert.True(t, ok)
	assert.Nil(t, v)

	e.AddAttribute("", entities.Value("ignored"))
	_, ok = e.Attr("")
	assert.False(t, ok)

	e.RemoveAttribute("type")
	_, ok = e.Attr("type")
	assert.False(t, ok)

	value := "a"
	e.SetAttribute("name", &value)
	value = "b"
	v, _ = e.Attr("name")
	assert.Equal(t, "a", *v, "values are copied")
}

func TestElement_AppendRules(t *testing.T) {
	d := NewDocument(&stubHost{})
	a := d.CreateElement("div")
	b := d.CreateElement("div")
	require.NoError(t, a.Append(b))

	assert.ErrorIs(t, d.CreateElement("div").Append(b), ErrAttached)
	assert.ErrorIs(t, b.Append(a), ErrCycle)
	assert.ErrorIs(t, a.Append(a), ErrCycle)
	assert.ErrorIs(t, d.CreateText("x").Append(d.CreateElement("b")), ErrTextLeaf)
	assert.ErrorIs(t, a.Append(NewDocument(&stubHost{}).CreateElement("i")), ErrForeign)

	require.NoError(t, d.Append(a))
	assert.ErrorIs(t, d.Append(a), ErrAttached)
	assert.ErrorIs(t, d.Append(b), ErrAttached)
	assert.ErrorIs(t, d.CreateElement("div").Append(a), ErrAttached)
	assert.Equal(t, []*Element{b}, a.Children())
	assert.Same(t, a, b.Parent())
}

func TestDocument_Remove(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)

	list := d.CreateElement("ul")
	require.NoError(t, d.Append(list))
	item, err := list.AddElement("li")
	require.NoError(t, err)
	keep := d.CreateElement("footer")
	require.NoError(t, d.Append(keep))
	require.NoError(t, d.Sync())

	d.Remove(list)
	_, ok := d.ElementByID(item.ID())
	assert.False(t, ok)
	assert.ErrorIs(t, list.Append(d.CreateElement("li")), ErrRemoved)

	require.NoError(t, d.Sync())
	assert.Equal(t, "<footer></footer>", h.tree.Render())
	assert.True(t, h.ids.IsRetired(item.ID()))
	assert.Equal(t, []string{string(hostfuncs.OpRemoveElements)}, h.uploads)

	// Never-synced elements are dropped locally.
	draft := d.CreateElement("aside")
	require.NoError(t, d.Append(draft))
	d.Remove(draft)
	require.NoError(t, d.Sync())
	assert.Len(t, h.uploads, 1)
}

func TestDocument_RemoveAfterPartialSync(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)

	good := d.CreateElement("div")
	require.NoError(t, d.Append(good))
	child, err := good.AddText("applied")
	require.NoError(t, err)
	bad := d.CreateElement("")
	require.NoError(t, d.Append(bad))

	require.ErrorIs(t, d.Sync(), ErrNodeErrors)
	require.Equal(t, "<div>applied</div>", h.tree.Render())
	assert.True(t, bad.Dirty())

	d.Remove(good)
	d.Remove(bad)
	require.NoError(t, d.Sync())

	assert.Empty(t, h.tree.Render())
	assert.True(t, h.ids.IsRetired(good.ID()))
	assert.True(t, h.ids.IsRetired(child.ID()))
	_, live := h.ids.Lookup(good.ID())
	assert.False(t, live)
}

func TestDocument_GetElementByName(t *testing.T) {
	h := newLoopback(t, nil)
	h.tree.Seed(nil, "main", entities.Attributes{"id": entities.Value("app")})
	d := NewDocument(h)

	app, ok := d.GetElementByName("app")
	require.True(t, ok)
	assert.Empty(t, app.Tag())
	again, ok := d.GetElementByName("app")
	require.True(t, ok)
	assert.Same(t, app, again)

	_, err := app.AddText("mounted")
	require.NoError(t, err)
	app.SetAttribute("data-ready", nil)
	require.NoError(t, d.Sync())
	assert.Equal(t, `<main data-ready id="app">mounted</main>`, h.tree.Render())

	assert.ErrorIs(t, d.Append(app), ErrAttached)

	_, ok = d.GetElementByName("missing")
	assert.False(t, ok)
}

func TestDocument_EventRoundTrip(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)
	h.listeners.SetTarget(events.TargetFunc(func(_ context.Context, payload []byte) error {
		return d.Dispatch(payload)
	}))

	button := d.CreateElement("button")
	require.NoError(t, d.Append(button))
	require.NoError(t, d.Sync())

	var got []Event
	require.NoError(t, button.AddEventListener("click", func(e Event) { got = append(got, e) }))
	require.True(t, h.listeners.Listening(button.ID(), "click"))

	el, ok := h.ids.Lookup(button.ID())
	require.True(t, ok)
	delivered, err := h.listeners.Dispatch(context.Background(), el, "click", map[string]any{"button": 0, "view": struct{}{}})
	require.NoError(t, err)
	require.True(t, delivered)

	require.Len(t, got, 1)
	assert.Same(t, button, got[0].Target)
	assert.Equal(t, "click", got[0].Type)
	assert.Equal(t, "MouseEvent", got[0].Category)
	assert.Equal(t, map[string]any{"button": float64(0)}, got[0].Fields)
	assert.NotZero(t, got[0].ID)
}

func TestDocument_DispatchIgnoresUnknown(t *testing.T) {
	d := NewDocument(&stubHost{})
	e := d.CreateElement("a")

	assert.NoError(t, d.Dispatch([]byte(`{"uuid":"`+e.ID()+`","type":"click","event":{}}`)))
	assert.NoError(t, d.Dispatch([]byte(`{"uuid":"nobody","type":"click","event":{}}`)))
	assert.Error(t, d.Dispatch([]byte("{")))
}

func TestElement_ListenerRefused(t *testing.T) {
	d := NewDocument(&stubHost{listener: ports.StatusFailed})
	err := d.CreateElement("a").AddEventListener("click", func(Event) {})
	assert.ErrorIs(t, err, ErrListenerRefused)
}

func TestDocument_SyncStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int32
		want   error
	}{
		{"node errors", ports.StatusNodeErrors, ErrNodeErrors},
		{"structural failure", ports.StatusFailed, ErrSyncFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument(&stubHost{status: tt.status})
			e := d.CreateElement("div")
			require.NoError(t, d.Append(e))

			assert.ErrorIs(t, d.Sync(), tt.want)
			assert.True(t, e.Dirty(), "refused elements are sent again")
		})
	}
}

func TestDocument_Logging(t *testing.T) {
	h := newLoopback(t, nil)
	d := NewDocument(h)

	d.Log("plain")
	d.Logger().Info("structured", "n", 1)
	d.Logger().Debug("hidden")

	require.Len(t, h.logs, 2)
	assert.Equal(t, "plain", h.logs[0])
	msg, ok := uulog.DecodeMessage([]byte(h.logs[1]))
	require.True(t, ok)
	assert.Equal(t, "structured", msg.Message)
}

func TestStart(t *testing.T) {
	t.Cleanup(func() { entry, entryOpts, active = nil, nil, nil })

	h := newLoopback(t, nil)
	var clicked bool
	Start(func(d *Document) {
		b := d.CreateElement("button")
		_ = d.Append(b)
		_ = b.AddEventListener("click", func(Event) { clicked = true })
		_ = d.Sync()
	})

	run(h)
	require.NotNil(t, Current())
	assert.Equal(t, "<button></button>", h.tree.Render())
	assert.Empty(t, Current().Snapshot())

	for id := range Current().elements {
		trigger([]byte(`{"uuid":"` + id + `","type":"click","event":{"MouseEvent":{}}}`))
	}
	assert.True(t, clicked)
}
