package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a Solana public key.
const PublicKeyLength = 32

// ErrInvalidAddress is returned for strings that are not base58 32-byte public keys.
var ErrInvalidAddress = errors.New("invalid solana address")

// DecodeAddress decodes a base58 public key.
func DecodeAddress(address string) ([]byte, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}
	b, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != PublicKeyLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAddress, len(b))
	}
	return b, nil
}

// ValidateAddress checks that address is a base58 32-byte public key.
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// IsOnCurve reports whether the 32 bytes decode to an ed25519 point.
// Program derived addresses are required to be off the curve.
func IsOnCurve(key []byte) bool {
	if len(key) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(key)
	return err == nil
}
