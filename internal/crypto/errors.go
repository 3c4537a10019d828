package crypto

import "errors"

var (
	// ErrKeyGeneration is returned when the platform entropy source fails.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrInvalidKeySize is returned when a symmetric key has the wrong size.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when a nonce has the wrong size.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrPlaintextTooLarge is returned when a plaintext exceeds MaxPlaintextSize.
	ErrPlaintextTooLarge = errors.New("plaintext too large")

	// ErrIntegrity is returned when an authentication tag does not verify.
	// It covers both a wrong key and tampered data; the two are not
	// distinguished.
	ErrIntegrity = errors.New("authentication failed")

	// ErrInvalidCurvePoint is returned when a public key is not a valid
	// point on the expected curve, or is a small-order point that would
	// produce a weak shared secret.
	ErrInvalidCurvePoint = errors.New("invalid curve point")

	// ErrUnsupportedCurve is returned for an unknown curve family or
	// exchange suite.
	ErrUnsupportedCurve = errors.New("unsupported curve family")

	// ErrUnwrapFailure is returned when key unwrapping fails. Wrong
	// capability and corrupted wrapped key collapse into this one error.
	ErrUnwrapFailure = errors.New("key unwrap failed")

	// ErrWeakPassphrase is returned when a passphrase is shorter than
	// MinPassphraseLength.
	ErrWeakPassphrase = errors.New("passphrase too short")

	// ErrInvalidPassphrase is returned when passphrase-based unwrapping
	// fails. Wrong passphrase and corrupted data are deliberately not
	// distinguished, so the error is not a passphrase oracle.
	ErrInvalidPassphrase = errors.New("invalid passphrase or corrupted data")

	// ErrInvalidWrappedKey is returned when a wrapped key structure is
	// malformed for the method it claims.
	ErrInvalidWrappedKey = errors.New("invalid wrapped key")

	// ErrSuiteMismatch is returned when a capability's exchange suite does
	// not match the wrapped key's suite.
	ErrSuiteMismatch = errors.New("exchange suite mismatch")
)
