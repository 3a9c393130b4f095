package identity

import (
	"github.com/google/uuid"
)

// CanonicalLength is the length of a rendered identifier.
const CanonicalLength = 36

// Generator mints identifiers.
type Generator func() string

// NewID returns a freshly minted version 4 identifier.
func NewID() string {
	return uuid.New().String()
}

// Validate reports whether s is a canonical version 4 identifier.
// Upper-case hex digits are accepted; braces, URN prefixes and the
// undashed form are not.
func Validate(s string) bool {
	if len(s) != CanonicalLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch i {
		case 8, 13, 18, 23:
			if s[i] != '-' {
				return false
			}
		default:
			if !isHex(s[i]) {
				return false
			}
		}
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
