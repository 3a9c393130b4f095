package wireformat

import (
	"fmt"
	"strings"

	"github.com/uu-dev/uu-bridge/domain/entities"
	"github.com/uu-dev/uu-bridge/identity"
)

// fixedFields is the number of positional fields opening every flat record.
const fixedFields = 4

// Flat is the line-feed delimited format.
type Flat struct{}

// Format implements Codec.
func (Flat) Format() Format {
	return FormatFlat
}

// EncodeSnapshot implements Codec.
func (f Flat) EncodeSnapshot(s entities.Snapshot) ([]byte, error) {
	fields := make([]string, 0, len(s)*fixedFields)
	for _, n := range s {
		var err error
		if fields, err = f.appendNode(fields, n); err != nil {
			return nil, err
		}
	}
	return []byte(strings.Join(fields, string(FieldSeparator))), nil
}

func (f Flat) appendNode(fields []string, n entities.Node) ([]string, error) {
	if !identity.Validate(n.ID) {
		return nil, malformed(FormatFlat, fmt.Sprintf("node id %q is not a valid identifier", n.ID))
	}

	parent := NullMarker
	if n.HasParent() {
		if !identity.Validate(n.ParentID) {
			return nil, malformed(FormatFlat, fmt.Sprintf("parent id %q of node %s is not a valid identifier", n.ParentID, n.ID))
		}
		parent = n.ParentID
	}
	if err := checkFlatField(n.ID, "tag", n.Tag); err != nil {
		return nil, err
	}
	if err := checkFlatField(n.ID, "text", n.Text); err != nil {
		return nil, err
	}
	fields = append(fields, n.ID, parent, n.Tag, n.Text)

	for _, name := range n.Attributes.Names() {
		if name == "" {
			continue
		}
		if err := checkFlatField(n.ID, "attribute name", name); err != nil {
			return nil, err
		}
		if identity.Validate(name) {
			return nil, malformed(FormatFlat, fmt.Sprintf("attribute name %q of node %s would be read as an identifier", name, n.ID))
		}

		value := NullMarker
		if v := n.Attributes[name]; v != nil {
			if err := checkFlatField(n.ID, "value of attribute "+name, *v); err != nil {
				return nil, err
			}
			value = *v
		}
		fields = append(fields, name, value)
	}
	return fields, nil
}

func checkFlatField(id, what, v string) error {
	if strings.ContainsAny(v, string(FieldSeparator)+NullMarker) {
		return malformed(FormatFlat, fmt.Sprintf("%s of node %s contains a reserved delimiter", what, id))
	}
	return nil
}

// DecodeSnapshot implements Codec.
func (Flat) DecodeSnapshot(data []byte) (entities.Snapshot, error) {
	if len(data) == 0 {
		return entities.Snapshot{}, nil
	}

	fields := strings.Split(string(data), string(FieldSeparator))
	var s entities.Snapshot

	for i := 0; i < len(fields); {
		if !identity.Validate(fields[i]) {
			return nil, malformedAt(FormatFlat, i, fmt.Sprintf("expected node identifier, got %q", truncate(fields[i])))
		}
		if i+fixedFields > len(fields) {
			return nil, malformedAt(FormatFlat, i, "truncated node record")
		}

		n := entities.Node{
			ID:   fields[i],
			Tag:  fields[i+2],
			Text: fields[i+3],
		}
		switch parent := fields[i+1]; parent {
		case NullMarker:
		case "":
			return nil, malformedAt(FormatFlat, i+1, "empty parent field")
		default:
			n.ParentID = parent
		}
		i += fixedFields

		for i < len(fields) && !identity.Validate(fields[i]) {
			if i+1 >= len(fields) {
				return nil, malformedAt(FormatFlat, i, fmt.Sprintf("attribute %q has no value field", truncate(fields[i])))
			}
			name, value := fields[i], fields[i+1]
			i += 2
			if name == "" {
				continue
			}
			if n.Attributes == nil {
				n.Attributes = make(entities.Attributes)
			}
			if value == NullMarker {
				n.Attributes[name] = nil
			} else {
				n.Attributes[name] = entities.Value(value)
			}
		}
		s = append(s, n)
	}
	return normalize(s), nil
}

// EncodeIDs implements Codec.
func (Flat) EncodeIDs(ids []string) ([]byte, error) {
	for _, id := range ids {
		if !identity.Validate(id) {
			return nil, malformed(FormatFlat, fmt.Sprintf("%q is not a valid identifier", id))
		}
	}
	return []byte(strings.Join(ids, string(FieldSeparator))), nil
}

// DecodeIDs implements Codec.
func (Flat) DecodeIDs(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	ids := strings.Split(string(data), string(FieldSeparator))
	for i, id := range ids {
		if !identity.Validate(id) {
			return nil, malformedAt(FormatFlat, i, fmt.Sprintf("expected identifier, got %q", truncate(id)))
		}
	}
	return ids, nil
}

// EncodeListener implements Codec.
func (Flat) EncodeListener(l entities.Listener) ([]byte, error) {
	if !identity.Validate(l.ID) {
		return nil, malformed(FormatFlat, fmt.Sprintf("%q is not a valid identifier", l.ID))
	}
	if l.Type == "" || strings.ContainsAny(l.Type, string(FieldSeparator)+NullMarker) {
		return nil, malformed(FormatFlat, fmt.Sprintf("invalid event type %q", l.Type))
	}
	return []byte(l.ID + string(FieldSeparator) + l.Type), nil
}

// DecodeListener implements Codec.
func (Flat) DecodeListener(data []byte) (entities.Listener, error) {
	fields := strings.Split(string(data), string(FieldSeparator))
	if len(fields) != 2 {
		return entities.Listener{}, malformed(FormatFlat, fmt.Sprintf("listener needs 2 fields, got %d", len(fields)))
	}
	if !identity.Validate(fields[0]) {
		return entities.Listener{}, malformedAt(FormatFlat, 0, fmt.Sprintf("expected identifier, got %q", truncate(fields[0])))
	}
	return entities.Listener{ID: fields[0], Type: fields[1]}, nil
}

// truncate shortens a field for error messages.
func truncate(s string) string {
	const maxLen = 48
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
