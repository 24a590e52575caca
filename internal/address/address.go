// Package address provides the canonical Bluetooth device address type
// shared by every component that identifies a device.
package address

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a 48-bit Bluetooth MAC, stored as six raw bytes. It is an
// opaque, case-insensitive identity key: two addresses are equal iff their
// six bytes are equal.
type Address [6]byte

// Parse accepts either colon-separated hex ("AA:BB:CC:DD:EE:FF") or bare
// 12-hex-digit form ("AABBCCDDEEFF"), case-insensitively.
func Parse(s string) (Address, error) {
	var a Address
	clean := strings.ReplaceAll(s, ":", "")
	clean = strings.ReplaceAll(clean, "-", "")
	if len(clean) != 12 {
		return a, fmt.Errorf("address: %q is not a 48-bit MAC", s)
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return a, fmt.Errorf("address: %q: %w", s, err)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParse is Parse but panics on error; intended for tests and literals.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the canonical colon-separated uppercase-hex form.
func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// IsZero reports whether a is the zero address (never a real device).
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText renders the canonical colon-separated form, so Address
// serializes as a plain JSON string (and is usable as a JSON map key).
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText is MarshalText's inverse.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
