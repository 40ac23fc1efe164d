package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	dErrors "proptoken/pkg/domain-errors"
)

// IdentityLength is the size in bytes of an account reference.
const IdentityLength = 32

// Identity is an opaque, fixed-size account reference. It is comparable and
// therefore usable directly as a map key. The zero value means "no identity"
// and is never a valid caller, owner or administrator.
type Identity [IdentityLength]byte

// PropertyID identifies a property within one owner's sequence. Uniqueness is
// scoped to the owner, not the registry.
type PropertyID uint32

// ParseIdentity parses the hex form of an identity. A leading "0x" is
// accepted; surrounding whitespace is not.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != hex.EncodedLen(IdentityLength) {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("identity must be %d hex characters", hex.EncodedLen(IdentityLength)))
	}
	var out Identity
	if _, err := hex.Decode(out[:], []byte(raw)); err != nil {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must be hex encoded")
	}
	if out.IsZero() {
		return Identity{}, dErrors.New(dErrors.CodeInvalidInput, "identity must not be zero")
	}
	return out, nil
}

// MustParseIdentity is ParseIdentity for constants and tests.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NewRandomIdentity returns a random non-zero identity.
func NewRandomIdentity() (Identity, error) {
	var out Identity
	for out.IsZero() {
		if _, err := rand.Read(out[:]); err != nil {
			return Identity{}, fmt.Errorf("read random identity: %w", err)
		}
	}
	return out, nil
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// String returns the lowercase hex form without prefix.
func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

// Short is a log-friendly abbreviation.
func (i Identity) Short() string {
	s := i.String()
	return s[:8] + "…" + s[len(s)-4:]
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
