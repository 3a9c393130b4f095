package wireformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

func TestFlat_EncodeLayout(t *testing.T) {
	s := entities.Snapshot{
		{ID: idA, Tag: "div", Text: "hi", Attributes: entities.Attributes{"class": entities.Value("x"), "hidden": nil}},
		{ID: idB, ParentID: idA, Tag: "span"},
	}

	data, err := Flat{}.EncodeSnapshot(s)
	require.NoError(t, err)

	want := idA + "\n\x00\ndiv\nhi\nclass\nx\nhidden\n\x00\n" +
		idB + "\n" + idA + "\nspan\n"
	assert.Equal(t, want, string(data))
}

func TestFlat_Decode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  entities.Snapshot
	}{
		{
			name:  "single node without attributes",
			input: idA + "\n\x00\nh1\nHello",
			want:  entities.Snapshot{{ID: idA, Tag: "h1", Text: "Hello"}},
		},
		{
			name:  "text that looks like an identifier stays positional",
			input: idA + "\n\x00\np\n" + idB,
			want:  entities.Snapshot{{ID: idA, Tag: "p", Text: idB}},
		},
		{
			name:  "attribute value that is an identifier",
			input: idA + "\n\x00\na\n\ndata-ref\n" + idB,
			want: entities.Snapshot{{ID: idA, Tag: "a", Attributes: entities.Attributes{
				"data-ref": entities.Value(idB),
			}}},
		},
		{
			name:  "empty attribute name is ignored",
			input: idA + "\n\x00\ndiv\n\n\nignored\nclass\nx",
			want: entities.Snapshot{{ID: idA, Tag: "div", Attributes: entities.Attributes{
				"class": entities.Value("x"),
			}}},
		},
		{
			name:  "child before parent keeps batch order",
			input: idB + "\n" + idA + "\nli\n\n" + idA + "\n\x00\nul\n",
			want: entities.Snapshot{
				{ID: idB, ParentID: idA, Tag: "li"},
				{ID: idA, Tag: "ul"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flat{}.DecodeSnapshot([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlat_DecodeMalformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantField int
	}{
		{name: "leading field is not an identifier", input: "not-a-uuid\n\x00\ndiv\n", wantField: 0},
		{name: "truncated record", input: idA + "\n\x00\ndiv", wantField: 0},
		{name: "empty parent field", input: idA + "\n\ndiv\n", wantField: 1},
		{name: "attribute without value", input: idA + "\n\x00\ndiv\n\nclass", wantField: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flat{}.DecodeSnapshot([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, bridgeerrors.ErrMalformedMessage)

			var mm *bridgeerrors.MalformedMessageError
			require.ErrorAs(t, err, &mm)
			assert.Equal(t, "flat", mm.Format)
			assert.Equal(t, tt.wantField, mm.Field)
		})
	}
}

func TestFlat_EncodeRefusesDelimiters(t *testing.T) {
	tests := []struct {
		name string
		node entities.Node
	}{
		{name: "invalid id", node: entities.Node{ID: "nope", Tag: "div"}},
		{name: "invalid parent", node: entities.Node{ID: idA, ParentID: "nope", Tag: "div"}},
		{name: "line feed in text", node: entities.Node{ID: idA, Tag: "p", Text: "a\nb"}},
		{name: "null in text", node: entities.Node{ID: idA, Tag: "p", Text: "a\x00b"}},
		{name: "line feed in tag", node: entities.Node{ID: idA, Tag: "p\n"}},
		{name: "line feed in value", node: entities.Node{ID: idA, Tag: "p", Attributes: entities.Attributes{"title": entities.Value("x\ny")}}},
		{name: "null in name", node: entities.Node{ID: idA, Tag: "p", Attributes: entities.Attributes{"ti\x00tle": nil}}},
		{name: "identifier as name", node: entities.Node{ID: idA, Tag: "p", Attributes: entities.Attributes{idB: nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flat{}.EncodeSnapshot(entities.Snapshot{tt.node})
			assert.ErrorIs(t, err, bridgeerrors.ErrMalformedMessage)
		})
	}
}

func TestFlat_EncodeSkipsEmptyAttributeName(t *testing.T) {
	data, err := Flat{}.EncodeSnapshot(entities.Snapshot{{
		ID: idA, Tag: "div", Attributes: entities.Attributes{"": entities.Value("x")},
	}})
	require.NoError(t, err)
	assert.Equal(t, idA+"\n\x00\ndiv\n", string(data))
}

func TestFlat_DecodeIDs(t *testing.T) {
	_, err := Flat{}.DecodeIDs([]byte(idA + "\nbogus"))
	var mm *bridgeerrors.MalformedMessageError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, 1, mm.Field)

	ids, err := Flat{}.DecodeIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFlat_DecodeListener(t *testing.T) {
	_, err := Flat{}.DecodeListener([]byte(idA))
	assert.ErrorIs(t, err, bridgeerrors.ErrMalformedMessage)

	_, err = Flat{}.DecodeListener([]byte("nope\nclick"))
	assert.ErrorIs(t, err, bridgeerrors.ErrMalformedMessage)

	_, err = Flat{}.EncodeListener(entities.Listener{ID: idA, Type: "cl\nick"})
	assert.ErrorIs(t, err, bridgeerrors.ErrMalformedMessage)
}
