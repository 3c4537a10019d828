package crypto

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"

	"github.com/agl/ed25519/extra25519"
	"github.com/cloudflare/circl/group"
)

// CurveFamily identifies the signature curve of a wallet identity key.
type CurveFamily string

const (
	// CurveEd25519 is the Ed25519 signature curve.
	CurveEd25519 CurveFamily = "ed25519"
	// CurveSr25519 is the Sr25519 (Schnorr over ristretto255) signature
	// curve used by substrate wallets.
	CurveSr25519 CurveFamily = "sr25519"
)

// ExchangeSuite identifies the Diffie-Hellman group a key-wrapping
// exchange runs in.
type ExchangeSuite string

const (
	// SuiteX25519 is Curve25519 Montgomery-ladder Diffie-Hellman.
	SuiteX25519 ExchangeSuite = "x25519"
	// SuiteRistretto255 is Diffie-Hellman in the ristretto255 prime-order
	// group.
	SuiteRistretto255 ExchangeSuite = "ristretto255"
)

// ExchangePublicKey is a Diffie-Hellman-capable public key derived from a
// wallet signing key.
type ExchangePublicKey struct {
	Suite ExchangeSuite
	Bytes []byte
}

// smallOrderPoints is the list of canonical Curve25519 encodings with
// order dividing 8 (the libsodium blacklist). DH against any of these
// yields a secret known to the attacker.
var smallOrderPoints = [][ExchangeKeySize]byte{
	// 0 (order 4)
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	// 1 (order 1)
	{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	// 325606250916557431795983626356110631294008115727848805560023387167927233504 (order 8)
	{0xe0, 0xeb, 0x7a, 0x7c, 0x3b, 0x41, 0xb8, 0xae, 0x16, 0x56, 0xe3, 0xfa, 0xf1, 0x9f, 0xc4, 0x6a,
		0xda, 0x09, 0x8d, 0xeb, 0x9c, 0x32, 0xb1, 0xfd, 0x86, 0x62, 0x05, 0x16, 0x5f, 0x49, 0xb8, 0x00},
	// 39382357235489614581723060781553021112529911719440698176882885853963445705823 (order 8)
	{0x5f, 0x9c, 0x95, 0xbc, 0xa3, 0x50, 0x8c, 0x24, 0xb1, 0xd0, 0xb1, 0x55, 0x9c, 0x83, 0xef, 0x5b,
		0x04, 0x44, 0x5c, 0xc4, 0x58, 0x1c, 0x8e, 0x86, 0xd8, 0x22, 0x4e, 0xdd, 0xd0, 0x9f, 0x11, 0x57},
	// p-1 (order 2)
	{0xec, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	// p (order 4)
	{0xed, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	// p+1 (order 1)
	{0xee, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
}

// ConvertSigningKey maps a wallet signature-curve public key to a
// Diffie-Hellman-capable exchange public key.
//
// Ed25519 keys are converted to X25519 with the birational
// Edwards-to-Montgomery map, the same conversion aries-framework-go and
// libsodium use; an Ed25519 signing keypair and its converted X25519 pair
// agree on shared secrets. Sr25519 public keys are already elements of
// the prime-order ristretto255 group, so conversion is canonical decode
// plus validation and the exchange runs in ristretto255 directly.
//
// Invalid encodings, non-canonical points and small-order points are
// rejected with ErrInvalidCurvePoint rather than silently producing a
// weak key.
func ConvertSigningKey(signingPublicKey []byte, family CurveFamily) (*ExchangePublicKey, error) {
	switch family {
	case CurveEd25519:
		return convertEd25519(signingPublicKey)
	case CurveSr25519:
		return convertSr25519(signingPublicKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, family)
	}
}

func convertEd25519(pub []byte) (*ExchangePublicKey, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: %d-byte ed25519 key", ErrInvalidCurvePoint, len(pub))
	}

	var edPub, xPub [ExchangeKeySize]byte
	copy(edPub[:], pub)

	if !extra25519.PublicKeyToCurve25519(&xPub, &edPub) {
		return nil, fmt.Errorf("%w: not a valid edwards25519 point", ErrInvalidCurvePoint)
	}
	if isSmallOrder(xPub) {
		return nil, fmt.Errorf("%w: small-order point", ErrInvalidCurvePoint)
	}

	return &ExchangePublicKey{Suite: SuiteX25519, Bytes: xPub[:]}, nil
}

func convertSr25519(pub []byte) (*ExchangePublicKey, error) {
	if len(pub) != ExchangeKeySize {
		return nil, fmt.Errorf("%w: %d-byte sr25519 key", ErrInvalidCurvePoint, len(pub))
	}

	e := group.Ristretto255.NewElement()
	if err := e.UnmarshalBinary(pub); err != nil {
		return nil, fmt.Errorf("%w: not a canonical ristretto255 encoding", ErrInvalidCurvePoint)
	}
	if e.IsIdentity() {
		return nil, fmt.Errorf("%w: identity element", ErrInvalidCurvePoint)
	}

	// Re-marshal so the exchange key is the canonical encoding.
	canonical, err := e.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurvePoint, err)
	}

	return &ExchangePublicKey{Suite: SuiteRistretto255, Bytes: canonical}, nil
}

// validateExchangeKey rejects malformed or weak exchange public keys
// before they are used for wrapping.
func validateExchangeKey(pub *ExchangePublicKey) error {
	if pub == nil || len(pub.Bytes) != ExchangeKeySize {
		return fmt.Errorf("%w: wrong exchange key size", ErrInvalidCurvePoint)
	}

	switch pub.Suite {
	case SuiteX25519:
		var p [ExchangeKeySize]byte
		copy(p[:], pub.Bytes)
		if isSmallOrder(p) {
			return fmt.Errorf("%w: small-order point", ErrInvalidCurvePoint)
		}
		return nil
	case SuiteRistretto255:
		e := group.Ristretto255.NewElement()
		if err := e.UnmarshalBinary(pub.Bytes); err != nil {
			return fmt.Errorf("%w: not a canonical ristretto255 encoding", ErrInvalidCurvePoint)
		}
		if e.IsIdentity() {
			return fmt.Errorf("%w: identity element", ErrInvalidCurvePoint)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCurve, pub.Suite)
	}
}

func isSmallOrder(p [ExchangeKeySize]byte) bool {
	// The high bit of a Curve25519 encoding is ignored by the ladder.
	p[31] &= 0x7f

	for i := range smallOrderPoints {
		if subtle.ConstantTimeCompare(p[:], smallOrderPoints[i][:]) == 1 {
			return true
		}
	}
	return false
}
