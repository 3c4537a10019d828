package store

import (
	"fmt"
	"strings"
)

const (
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	base32Alphabet = "abcdefghijklmnopqrstuvwxyz234567"

	cidV0Length    = 46 // "Qm" + 44 base58 characters
	cidV1MinLength = 10
)

// ValidateAddress checks that a content address is a plausible CID
// before any network call is made: either a CIDv0 (46-character base58
// string starting with "Qm") or a lowercase base32 CIDv1 (starting with
// "b"). Anything else fails fast with ErrInvalidAddress.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	if strings.HasPrefix(address, "Qm") {
		if len(address) != cidV0Length {
			return fmt.Errorf("%w: CIDv0 must be %d characters, got %d", ErrInvalidAddress, cidV0Length, len(address))
		}
		if !containsOnly(address, base58Alphabet) {
			return fmt.Errorf("%w: CIDv0 contains non-base58 characters", ErrInvalidAddress)
		}
		return nil
	}

	if strings.HasPrefix(address, "b") {
		if len(address) < cidV1MinLength {
			return fmt.Errorf("%w: CIDv1 too short", ErrInvalidAddress)
		}
		if !containsOnly(address, base32Alphabet) {
			return fmt.Errorf("%w: CIDv1 contains non-base32 characters", ErrInvalidAddress)
		}
		return nil
	}

	return fmt.Errorf("%w: unrecognized address prefix", ErrInvalidAddress)
}

func containsOnly(s, alphabet string) bool {
	for _, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
