package manifest

import (
	"fmt"

	"github.com/google/uuid"
)

// GUID is the 128-bit content address of a chunk.
//
// It is exposed both as raw bytes ([GUID.Bytes]) and as the canonical
// hyphenated hex string ([GUID.String]); the two representations always
// agree because both derive from the same underlying value.
type GUID uuid.UUID

// GUIDFromBytes builds a GUID from exactly 16 raw bytes.
func GUIDFromBytes(b []byte) (GUID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return GUID{}, fmt.Errorf("manifest: bad guid length %d", len(b))
	}
	return GUID(u), nil
}

// ParseGUID parses the canonical hyphenated hex form (plain 32-digit hex is
// accepted too).
func ParseGUID(s string) (GUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, fmt.Errorf("manifest: bad guid %q: %w", s, err)
	}
	return GUID(u), nil
}

// Bytes returns the 16 raw bytes of the GUID.
func (g GUID) Bytes() []byte {
	b := [16]byte(g)
	return b[:]
}

// String returns the canonical hyphenated lowercase hex form.
func (g GUID) String() string {
	return uuid.UUID(g).String()
}

// IsZero reports whether the GUID is all zero bytes.
func (g GUID) IsZero() bool {
	return g == GUID{}
}
