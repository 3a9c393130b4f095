package wireformat

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wireformat: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CBOR is the compact structured format, encoded deterministically so that
// identical snapshots produce identical bytes.
type CBOR struct {
	em cbor.EncMode
}

// NewCBOR returns a CBOR codec using canonical encoding.
func NewCBOR() CBOR {
	return CBOR{em: cborEncMode}
}

// Format implements Codec.
func (CBOR) Format() Format {
	return FormatCBOR
}

func (c CBOR) marshal(v any) ([]byte, error) {
	em := c.em
	if em == nil {
		em = cborEncMode
	}
	data, err := em.Marshal(v)
	if err != nil {
		return nil, malformedErr(FormatCBOR, err)
	}
	return data, nil
}

// EncodeSnapshot implements Codec.
func (c CBOR) EncodeSnapshot(s entities.Snapshot) ([]byte, error) {
	if err := checkUTF8(FormatCBOR, s); err != nil {
		return nil, err
	}
	if s == nil {
		s = entities.Snapshot{}
	}
	return c.marshal(s)
}

// DecodeSnapshot implements Codec.
func (CBOR) DecodeSnapshot(data []byte) (entities.Snapshot, error) {
	if len(data) == 0 {
		return entities.Snapshot{}, nil
	}
	var s entities.Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, malformedErr(FormatCBOR, err)
	}
	if s == nil {
		s = entities.Snapshot{}
	}
	return normalize(s), nil
}

// EncodeIDs implements Codec.
func (c CBOR) EncodeIDs(ids []string) ([]byte, error) {
	if err := checkUTF8Strings(FormatCBOR, "identifier", ids...); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return c.marshal(ids)
}

// DecodeIDs implements Codec.
func (CBOR) DecodeIDs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var ids []string
	if err := cbor.Unmarshal(data, &ids); err != nil {
		return nil, malformedErr(FormatCBOR, err)
	}
	return ids, nil
}

// EncodeListener implements Codec.
func (c CBOR) EncodeListener(l entities.Listener) ([]byte, error) {
	if err := checkUTF8Strings(FormatCBOR, "listener field", l.ID, l.Type); err != nil {
		return nil, err
	}
	return c.marshal(l)
}

// DecodeListener implements Codec.
func (CBOR) DecodeListener(data []byte) (entities.Listener, error) {
	var l entities.Listener
	if err := cbor.Unmarshal(data, &l); err != nil {
		return entities.Listener{}, malformedErr(FormatCBOR, err)
	}
	return l, nil
}
