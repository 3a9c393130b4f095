package wireformat

import (
	"fmt"
	"unicode/utf8"

	"github.com/uu-dev/uu-bridge/domain/entities"
	bridgeerrors "github.com/uu-dev/uu-bridge/domain/errors"
)

func malformed(f Format, reason string) error {
	return bridgeerrors.Malformed(string(f), reason)
}

func malformedAt(f Format, field int, reason string) error {
	return &bridgeerrors.MalformedMessageError{Format: string(f), Field: field, Reason: reason}
}

func malformedErr(f Format, err error) error {
	return &bridgeerrors.MalformedMessageError{Format: string(f), Err: err, Field: -1}
}

// checkUTF8 refuses snapshots holding invalid UTF-8, which the structured
// formats would otherwise alter (JSON) or fail to decode (CBOR).
func checkUTF8(f Format, s entities.Snapshot) error {
	for _, n := range s {
		if err := checkUTF8Strings(f, "field of node "+n.ID, n.ID, n.ParentID, n.Tag, n.Text); err != nil {
			return err
		}
		for name, v := range n.Attributes {
			if !utf8.ValidString(name) || (v != nil && !utf8.ValidString(*v)) {
				return malformed(f, fmt.Sprintf("attribute of node %s is not valid UTF-8", n.ID))
			}
		}
	}
	return nil
}

func checkUTF8Strings(f Format, what string, values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) {
			return malformed(f, what+" is not valid UTF-8")
		}
	}
	return nil
}
