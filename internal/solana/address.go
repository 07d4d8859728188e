// Package solana validates Solana account addresses as they arrive from
// the activity feed.
package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Address validation errors.
var (
	ErrEmptyAddress  = errors.New("empty address")
	ErrInvalidBase58 = errors.New("address is not valid base58")
	ErrInvalidLength = errors.New("address does not decode to 32 bytes")
)

// ValidateAddress checks that s is a well-formed Solana account address:
// base58, 32 bytes decoded. Program-derived addresses are off the ed25519
// curve, so curve membership is not required here.
func ValidateAddress(s string) error {
	if s == "" {
		return ErrEmptyAddress
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBase58, s)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: %s decodes to %d bytes", ErrInvalidLength, s, len(decoded))
	}
	return nil
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet addresses are on-curve public keys; token mints created by
// programs may not be.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
