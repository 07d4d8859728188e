package solana

import (
	"errors"
	"testing"
)

// Base58 encoding of the ed25519 generator point, a known on-curve key.
const onCurveAddress = "6x5SYnLroiN7WYq8NQYU9KHcH4YjpBbwpUfVu3EB7ieH"

// The system program address, 32 zero bytes.
const systemProgram = "11111111111111111111111111111111"

// Base58 encoding of y=2 (little-endian), which has no matching x on the
// ed25519 curve. Well-formed as an address, off-curve as a key.
const offCurveAddress = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr error
	}{
		{"known key", onCurveAddress, nil},
		{"system program", systemProgram, nil},
		{"empty", "", ErrEmptyAddress},
		{"not base58", "not-an-address!", ErrInvalidBase58},
		{"zero character", "0x1234", ErrInvalidBase58},
		{"too short", "abc", ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAddress(%q) = %v, want nil", tt.address, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAddress(%q) = %v, want %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	if !IsOnCurve(onCurveAddress) {
		t.Error("the generator point must be on curve")
	}
	if IsOnCurve(offCurveAddress) {
		t.Error("a y with no curve point must not be on curve")
	}
	if err := ValidateAddress(offCurveAddress); err != nil {
		t.Errorf("off-curve addresses are still well-formed: %v", err)
	}
	if IsOnCurve("abc") {
		t.Error("short input must not be on curve")
	}
	if IsOnCurve("not-an-address!") {
		t.Error("invalid base58 must not be on curve")
	}
}
