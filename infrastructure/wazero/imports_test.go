package wazero

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/domain/ports"
	"github.com/uu-dev/uu-bridge/events"
	"github.com/uu-dev/uu-bridge/hostfuncs"
	"github.com/uu-dev/uu-bridge/identity"
	"github.com/uu-dev/uu-bridge/infrastructure/memtree"
	"github.com/uu-dev/uu-bridge/internal/testutil"
	"github.com/uu-dev/uu-bridge/reconciler"
	"github.com/uu-dev/uu-bridge/transport"
	"github.com/uu-dev/uu-bridge/wireformat"
)

const (
	idRoot = "6f1c2f5e-8b1a-4c3d-9e2f-0a1b2c3d4e5f"
	idText = "0d9e8f7a-6b5c-4d3e-8f2a-1b2c3d4e5f60"

	bufBase = 2048
	bufCap  = 256
)

type importsFixture struct {
	im        *Imports
	mem       *testutil.Memory
	buf       *transport.Buffer
	tree      *memtree.Tree
	ids       *identity.Registry
	listeners *events.Bridge
}

func newImportsFixture(t *testing.T) *importsFixture {
	t.Helper()
	tree := memtree.New()
	ids := identity.NewRegistry(identity.WithExternalLookup(tree))
	rec, err := reconciler.New(tree, ids)
	require.NoError(t, err)
	listeners := events.NewBridge(ids)

	registry, err := hostfuncs.NewRegistry(
		hostfuncs.WithMiddleware(hostfuncs.PanicRecoveryMiddleware()),
		hostfuncs.WithBundle(&hostfuncs.Bridge{Tree: rec, IDs: ids, Listeners: listeners}),
	)
	require.NoError(t, err)

	mem := testutil.NewMemory(4096)
	return &importsFixture{
		im:        NewImports(registry, nil, 1024),
		mem:       mem,
		buf:       transport.NewBuffer(mem, transport.Region{Name: transport.RegionGeneral, Base: bufBase, Capacity: bufCap}),
		tree:      tree,
		ids:       ids,
		listeners: listeners,
	}
}

func (f *importsFixture) stage(s string) (offset, length uint32) {
	return 0, f.mem.Put(0, s)
}

func (f *importsFixture) answer(t *testing.T, n uint32) string {
	t.Helper()
	data, ok := f.mem.Read(bufBase, n)
	require.True(t, ok)
	return string(data)
}

func encode(t *testing.T, s entities.Snapshot) string {
	t.Helper()
	data, err := wireformat.Flat{}.EncodeSnapshot(s)
	require.NoError(t, err)
	return string(data)
}

func TestImports_UUIDv4(t *testing.T) {
	f := newImportsFixture(t)

	n := f.im.UUIDv4(context.Background(), f.buf)
	require.Equal(t, uint32(36), n)
	assert.True(t, identity.Validate(f.answer(t, n)))
}

func TestImports_SyncElements(t *testing.T) {
	f := newImportsFixture(t)
	ctx := context.Background()

	off, n := f.stage(encode(t, entities.Snapshot{
		{ID: idRoot, Tag: "p"},
		{ID: idText, ParentID: idRoot, Tag: entities.TextTag, Text: "hi"},
	}))
	status := f.im.SyncElements(ctx, f.mem, f.buf, off, n)
	assert.Equal(t, ports.StatusOK, status)
	assert.Equal(t, "<p>hi</p>", f.tree.Render())

	last, err := f.buf.Last()
	require.NoError(t, err)
	resp, err := hostfuncs.DecodeSyncResponse(last.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
}

func TestImports_SyncElementsNodeErrors(t *testing.T) {
	f := newImportsFixture(t)

	off, n := f.stage(encode(t, entities.Snapshot{
		{ID: idRoot, Tag: "p"},
		{ID: idRoot, Tag: "p"},
	}))
	status := f.im.SyncElements(context.Background(), f.mem, f.buf, off, n)
	assert.Equal(t, ports.StatusNodeErrors, status)
}

func TestImports_SyncElementsReportOverflow(t *testing.T) {
	f := newImportsFixture(t)

	snap := entities.Snapshot{{ID: idRoot, Tag: "p"}}
	for i := 0; i < 4; i++ {
		snap = append(snap, entities.Node{ID: idRoot, Tag: "p"})
	}
	off, n := f.stage(encode(t, snap))
	status := f.im.SyncElements(context.Background(), f.mem, f.buf, off, n)

	assert.Equal(t, ports.StatusNodeErrors, status)
	assert.Equal(t, "<p></p>", f.tree.Render())

	last, err := f.buf.Last()
	require.NoError(t, err)
	resp, err := hostfuncs.DecodeSyncResponse(last.Bytes())
	require.NoError(t, err, "the core still receives a complete report")
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 4, resp.ErrorsOmitted)
	assert.Equal(t, 1, resp.Created)
	assert.False(t, resp.OK())
}

func TestImports_SyncElementsStructuralFailure(t *testing.T) {
	f := newImportsFixture(t)

	off, n := f.stage("not-a-uuid\n\x00\np")
	status := f.im.SyncElements(context.Background(), f.mem, f.buf, off, n)
	assert.Equal(t, ports.StatusFailed, status)
	assert.Empty(t, f.tree.Render())

	last, err := f.buf.Last()
	require.NoError(t, err)
	var resp hostfuncs.ErrorResponse
	require.NoError(t, json.Unmarshal(last.Bytes(), &resp))
	assert.Equal(t, "MALFORMED_MESSAGE", resp.Error)
}

func TestImports_RequestLimits(t *testing.T) {
	f := newImportsFixture(t)
	ctx := context.Background()

	assert.Equal(t, ports.StatusFailed, f.im.SyncElements(ctx, f.mem, f.buf, 0, 2048))
	assert.Equal(t, ports.StatusFailed, f.im.SyncElements(ctx, f.mem, f.buf, 4000, 200))
	assert.Equal(t, ports.UploadFailed, f.im.UploadBytes(ctx, f.mem, f.buf, 0, 4096))
}

func TestImports_GetElementByID(t *testing.T) {
	f := newImportsFixture(t)
	ctx := context.Background()
	f.tree.Seed(nil, "div", entities.Attributes{"id": entities.Value("app")})

	off, n := f.stage("app")
	got := f.answer(t, f.im.GetElementByID(ctx, f.mem, f.buf, off, n))
	require.True(t, identity.Validate(got))

	off, n = f.stage("app")
	assert.Equal(t, got, f.answer(t, f.im.GetElementByID(ctx, f.mem, f.buf, off, n)), "adoption is stable")

	off, n = f.stage("missing")
	assert.Equal(t, wireformat.NullMarker, f.answer(t, f.im.GetElementByID(ctx, f.mem, f.buf, off, n)))

	assert.Equal(t, wireformat.NullMarker, f.answer(t, f.im.GetElementByID(ctx, f.mem, f.buf, 0, 0)))
}

func TestImports_UploadBytes(t *testing.T) {
	f := newImportsFixture(t)
	ctx := context.Background()

	t.Run("dispatches by name", func(t *testing.T) {
		off, n := f.stage(string(hostfuncs.JoinMessage(hostfuncs.OpGenerateID, nil)))
		got := f.im.UploadBytes(ctx, f.mem, f.buf, off, n)
		require.NotEqual(t, ports.UploadFailed, got)
		assert.True(t, identity.Validate(f.answer(t, got)))
	})

	t.Run("unknown operation", func(t *testing.T) {
		off, n := f.stage("frobnicate\x00x")
		assert.Equal(t, ports.UploadFailed, f.im.UploadBytes(ctx, f.mem, f.buf, off, n))

		last, err := f.buf.Last()
		require.NoError(t, err)
		assert.Contains(t, string(last.Bytes()), "UNKNOWN_OPERATION")
	})

	t.Run("response larger than the buffer", func(t *testing.T) {
		var snap entities.Snapshot
		for i := 0; i < 8; i++ {
			snap = append(snap, entities.Node{ID: idText, Tag: "p"})
		}
		msg := hostfuncs.JoinMessage(hostfuncs.OpSyncTree, []byte(encode(t, snap)))
		off, n := f.stage(string(msg))
		assert.Equal(t, ports.UploadFailed, f.im.UploadBytes(ctx, f.mem, f.buf, off, n))

		last, err := f.buf.Last()
		require.NoError(t, err)
		assert.Contains(t, string(last.Bytes()), "BUFFER_OVERFLOW")
	})
}

func TestImports_AddEventListener(t *testing.T) {
	f := newImportsFixture(t)
	ctx := context.Background()

	off, n := f.stage(idRoot + "\nclick")
	assert.Equal(t, ports.StatusOK, f.im.AddEventListener(ctx, f.mem, off, n))
	assert.True(t, f.listeners.Listening(idRoot, "click"))

	off, n = f.stage(strings.Repeat("x", 3))
	assert.Equal(t, ports.StatusFailed, f.im.AddEventListener(ctx, f.mem, off, n))
}

func TestImports_ConsoleLogWithoutSink(t *testing.T) {
	f := newImportsFixture(t)
	off, n := f.stage("hello")
	assert.NotPanics(t, func() {
		f.im.ConsoleLog(context.Background(), f.mem, off, n)
	})
}
