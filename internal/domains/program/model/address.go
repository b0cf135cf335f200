package model

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const AddressSize = ed25519.PublicKeySize

var ErrInvalidAddress = errors.New("invalid account address")

// Address is a 32-byte account key rendered in base58.
type Address [AddressSize]byte

// SystemProgramID owns every plain balance account and performs allocations.
var SystemProgramID = Address{}

// DefaultProgramID is the id the hello program is deployed under.
const DefaultProgramID = "FsPEZ6YaVCqwCmrUZxCTvwqamMXdzy3XsQ4TSpKY1ieq"

func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(trimmed)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(raw))
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func AddressFromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Address{}, fmt.Errorf("%w: public key length %d", ErrInvalidAddress, len(pub))
	}
	var out Address
	copy(out[:], pub)
	return out, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) PublicKey() ed25519.PublicKey {
	out := make([]byte, AddressSize)
	copy(out, a[:])
	return out
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
