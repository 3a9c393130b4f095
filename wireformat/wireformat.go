package wireformat

import (
	"fmt"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

// Format names a wire encoding.
type Format string

// Supported formats.
const (
	FormatFlat Format = "flat"
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// Delimiters used by the flat format.
const (
	FieldSeparator = '\n'
	NullMarker     = "\x00"
)

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatFlat, FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("wireformat: unknown format %q", s)
	}
}

// Codec converts between wire bytes and domain values.
type Codec interface {
	// Format returns the encoding implemented by the codec.
	Format() Format

	EncodeSnapshot(s entities.Snapshot) ([]byte, error)
	DecodeSnapshot(data []byte) (entities.Snapshot, error)

	EncodeIDs(ids []string) ([]byte, error)
	DecodeIDs(data []byte) ([]string, error)

	EncodeListener(l entities.Listener) ([]byte, error)
	DecodeListener(data []byte) (entities.Listener, error)
}

// NewCodec returns the codec for f.
func NewCodec(f Format) (Codec, error) {
	switch f {
	case FormatFlat:
		return Flat{}, nil
	case FormatJSON:
		return JSON{}, nil
	case FormatCBOR:
		return NewCBOR(), nil
	default:
		return nil, fmt.Errorf("wireformat: unknown format %q", f)
	}
}

// EncodeNode encodes a single node as a one-element snapshot.
func EncodeNode(c Codec, n entities.Node) ([]byte, error) {
	return c.EncodeSnapshot(entities.Snapshot{n})
}

// DecodeNode decodes a payload that must hold exactly one node.
func DecodeNode(c Codec, data []byte) (entities.Node, error) {
	s, err := c.DecodeSnapshot(data)
	if err != nil {
		return entities.Node{}, err
	}
	if len(s) != 1 {
		return entities.Node{}, malformed(c.Format(), fmt.Sprintf("expected exactly one node, got %d", len(s)))
	}
	return s[0], nil
}

// normalize drops attributes with empty names and collapses empty maps, so
// every format decodes to the same representation.
func normalize(s entities.Snapshot) entities.Snapshot {
	for i := range s {
		delete(s[i].Attributes, "")
		if len(s[i].Attributes) == 0 {
			s[i].Attributes = nil
		}
	}
	return s
}
