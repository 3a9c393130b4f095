package wireformat

import (
	"encoding/json"

	"github.com/uu-dev/uu-bridge/domain/entities"
)

// JSON encodes a snapshot as a JSON array of node objects.
type JSON struct{}

// Format implements Codec.
func (JSON) Format() Format {
	return FormatJSON
}

// EncodeSnapshot implements Codec.
func (JSON) EncodeSnapshot(s entities.Snapshot) ([]byte, error) {
	if err := checkUTF8(FormatJSON, s); err != nil {
		return nil, err
	}
	if s == nil {
		s = entities.Snapshot{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, malformedErr(FormatJSON, err)
	}
	return data, nil
}

// DecodeSnapshot implements Codec.
func (JSON) DecodeSnapshot(data []byte) (entities.Snapshot, error) {
	if len(data) == 0 {
		return entities.Snapshot{}, nil
	}
	var s entities.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, malformedErr(FormatJSON, err)
	}
	if s == nil {
		s = entities.Snapshot{}
	}
	return normalize(s), nil
}

// EncodeIDs implements Codec.
func (JSON) EncodeIDs(ids []string) ([]byte, error) {
	if err := checkUTF8Strings(FormatJSON, "identifier", ids...); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, malformedErr(FormatJSON, err)
	}
	return data, nil
}

// DecodeIDs implements Codec.
func (JSON) DecodeIDs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, malformedErr(FormatJSON, err)
	}
	return ids, nil
}

// EncodeListener implements Codec.
func (JSON) EncodeListener(l entities.Listener) ([]byte, error) {
	if err := checkUTF8Strings(FormatJSON, "listener field", l.ID, l.Type); err != nil {
		return nil, err
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, malformedErr(FormatJSON, err)
	}
	return data, nil
}

// DecodeListener implements Codec.
func (JSON) DecodeListener(data []byte) (entities.Listener, error) {
	var l entities.Listener
	if err := json.Unmarshal(data, &l); err != nil {
		return entities.Listener{}, malformedErr(FormatJSON, err)
	}
	return l, nil
}
