package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/cloudflare/circl/group"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/agl/ed25519/extra25519"
)

// WrapMethod tags how a symmetric key was wrapped.
type WrapMethod string

const (
	// WrapMethodRecipientKey wraps under an ECDH-derived key for a
	// recipient exchange public key.
	WrapMethodRecipientKey WrapMethod = "recipient-key"
	// WrapMethodPassphrase wraps under a PBKDF2-derived key for a
	// walletless recipient.
	WrapMethodPassphrase WrapMethod = "passphrase"
)

// WrappedKey is a symmetric key encrypted under a wrapping key so it can
// travel alongside the content it protects. Immutable once created.
//
// Recipient-key wraps carry the ephemeral exchange public key; passphrase
// wraps carry the PBKDF2 salt.
type WrappedKey struct {
	Method     WrapMethod    `json:"method"`
	Suite      ExchangeSuite `json:"suite,omitempty"`
	Ciphertext []byte        `json:"ciphertext"`
	Nonce      []byte        `json:"nonce"`
	Ephemeral  []byte        `json:"ephemeral,omitempty"`
	Salt       []byte        `json:"salt,omitempty"`
}

// ExchangeCapability performs the recipient side of a Diffie-Hellman
// exchange without exposing the private key. Wallet-backed flows inject
// an implementation that keeps the key behind the wallet boundary;
// NewX25519Capability and friends cover local keys and tests.
type ExchangeCapability interface {
	// Suite reports the exchange suite the capability operates in.
	Suite() ExchangeSuite
	// SharedSecret computes the DH shared secret with the given ephemeral
	// public key.
	SharedSecret(ephemeralPublicKey []byte) ([]byte, error)
}

// WrapKey encrypts a symmetric key to a recipient exchange public key.
//
// A fresh ephemeral keypair is generated in the recipient's suite, an
// ECDH shared secret is computed against the recipient key, a wrapping
// key is derived with HKDF-SHA-512, and the symmetric key is encrypted
// with AES-256-GCM. The ephemeral private key and the shared secret are
// zeroed before returning.
func WrapKey(key SymmetricKey, recipient *ExchangePublicKey) (*WrappedKey, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if err := validateExchangeKey(recipient); err != nil {
		return nil, err
	}

	var ephemeralPub, shared []byte
	var err error

	switch recipient.Suite {
	case SuiteX25519:
		ephemeralPub, shared, err = exchangeX25519(recipient.Bytes)
	case SuiteRistretto255:
		ephemeralPub, shared, err = exchangeRistretto(recipient.Bytes)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedCurve, recipient.Suite)
	}
	if err != nil {
		return nil, err
	}
	defer SymmetricKey(shared).Zero()

	wrappingKey, err := deriveWrapKey(shared, ephemeralPub, recipient.Suite)
	if err != nil {
		return nil, err
	}
	defer SymmetricKey(wrappingKey).Zero()

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	ciphertext, err := sealAESGCM(wrappingKey, nonce, key)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		Method:     WrapMethodRecipientKey,
		Suite:      recipient.Suite,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Ephemeral:  ephemeralPub,
	}, nil
}

// UnwrapKey recovers a symmetric key from a recipient-key wrap using an
// injected exchange capability. Tag failure, a wrong capability and a
// corrupted wrap all collapse into ErrUnwrapFailure.
func UnwrapKey(wrapped *WrappedKey, capability ExchangeCapability) (SymmetricKey, error) {
	if wrapped.Method != WrapMethodRecipientKey {
		return nil, fmt.Errorf("%w: method %q", ErrInvalidWrappedKey, wrapped.Method)
	}
	if len(wrapped.Ephemeral) != ExchangeKeySize || len(wrapped.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: malformed recipient-key wrap", ErrInvalidWrappedKey)
	}
	if capability.Suite() != wrapped.Suite {
		return nil, fmt.Errorf("%w: wrap is %q, capability is %q", ErrSuiteMismatch, wrapped.Suite, capability.Suite())
	}

	shared, err := capability.SharedSecret(wrapped.Ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrapFailure, err)
	}
	defer SymmetricKey(shared).Zero()

	wrappingKey, err := deriveWrapKey(shared, wrapped.Ephemeral, wrapped.Suite)
	if err != nil {
		return nil, err
	}
	defer SymmetricKey(wrappingKey).Zero()

	key, err := openAESGCM(wrappingKey, wrapped.Nonce, wrapped.Ciphertext)
	if err != nil {
		return nil, ErrUnwrapFailure
	}
	if len(key) != KeySize {
		return nil, ErrUnwrapFailure
	}
	return key, nil
}

// deriveWrapKey derives the AES wrapping key from a DH shared secret with
// HKDF-SHA-512. The salt is the hash of the ephemeral public key and the
// info string binds the context and exchange suite, so wraps in different
// suites never derive the same key.
func deriveWrapKey(shared, ephemeralPub []byte, suite ExchangeSuite) ([]byte, error) {
	saltHash := sha256.Sum256(ephemeralPub)

	info := make([]byte, 0, len(HKDFContext)+1+len(suite))
	info = append(info, HKDFContext...)
	info = append(info, ':')
	info = append(info, suite...)

	reader := hkdf.New(sha512.New, shared, saltHash[:], info)
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// exchangeX25519 generates an ephemeral X25519 keypair and computes the
// shared secret against the recipient key. curve25519.X25519 rejects
// low-order results, so a malicious recipient key cannot force a known
// secret.
func exchangeX25519(recipientPub []byte) (ephemeralPub, shared []byte, err error) {
	ephemeralPriv := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rand.Reader, ephemeralPriv); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	defer SymmetricKey(ephemeralPriv).Zero()

	ephemeralPub, err = curve25519.X25519(ephemeralPriv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	shared, err = curve25519.X25519(ephemeralPriv, recipientPub)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCurvePoint, err)
	}
	return ephemeralPub, shared, nil
}

// exchangeRistretto is the ristretto255 analogue of exchangeX25519.
func exchangeRistretto(recipientPub []byte) (ephemeralPub, shared []byte, err error) {
	g := group.Ristretto255

	recipient := g.NewElement()
	if err := recipient.UnmarshalBinary(recipientPub); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCurvePoint, err)
	}

	scalar := g.RandomNonZeroScalar(rand.Reader)

	ephemeralPub, err = g.NewElement().MulGen(scalar).MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	sharedElem := g.NewElement().Mul(recipient, scalar)
	if sharedElem.IsIdentity() {
		return nil, nil, fmt.Errorf("%w: shared secret is identity", ErrInvalidCurvePoint)
	}
	shared, err = sharedElem.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return ephemeralPub, shared, nil
}

// x25519Capability holds a raw X25519 private scalar. Intended for local
// keys and tests; wallet flows should inject their own capability.
type x25519Capability struct {
	priv []byte
}

func (c *x25519Capability) Suite() ExchangeSuite { return SuiteX25519 }

func (c *x25519Capability) SharedSecret(ephemeralPublicKey []byte) ([]byte, error) {
	return curve25519.X25519(c.priv, ephemeralPublicKey)
}

// NewX25519Capability wraps a raw 32-byte X25519 private key as an
// exchange capability.
func NewX25519Capability(privateKey []byte) (ExchangeCapability, error) {
	if len(privateKey) != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(privateKey), curve25519.ScalarSize)
	}
	priv := make([]byte, curve25519.ScalarSize)
	copy(priv, privateKey)
	return &x25519Capability{priv: priv}, nil
}

// NewEd25519Capability converts an Ed25519 private key to its X25519
// counterpart and wraps it as an exchange capability. The conversion
// matches ConvertSigningKey on the public side: shared secrets agree.
func NewEd25519Capability(privateKey ed25519.PrivateKey) (ExchangeCapability, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(privateKey), ed25519.PrivateKeySize)
	}

	var edPriv [ed25519.PrivateKeySize]byte
	copy(edPriv[:], privateKey)

	var xPriv [curve25519.ScalarSize]byte
	extra25519.PrivateKeyToCurve25519(&xPriv, &edPriv)

	return &x25519Capability{priv: xPriv[:]}, nil
}

// ristrettoCapability holds a ristretto255 private scalar.
type ristrettoCapability struct {
	scalar group.Scalar
}

func (c *ristrettoCapability) Suite() ExchangeSuite { return SuiteRistretto255 }

func (c *ristrettoCapability) SharedSecret(ephemeralPublicKey []byte) ([]byte, error) {
	g := group.Ristretto255

	ephemeral := g.NewElement()
	if err := ephemeral.UnmarshalBinary(ephemeralPublicKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCurvePoint, err)
	}

	shared := g.NewElement().Mul(ephemeral, c.scalar)
	if shared.IsIdentity() {
		return nil, fmt.Errorf("%w: shared secret is identity", ErrInvalidCurvePoint)
	}
	return shared.MarshalBinary()
}

// NewRistrettoCapability wraps an encoded ristretto255 scalar as an
// exchange capability.
func NewRistrettoCapability(scalarBytes []byte) (ExchangeCapability, error) {
	scalar := group.Ristretto255.NewScalar()
	if err := scalar.UnmarshalBinary(scalarBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeySize, err)
	}
	return &ristrettoCapability{scalar: scalar}, nil
}

// GenerateExchangeKeyPair creates a fresh exchange keypair in the given
// suite, returning the public key and a matching capability. Used by
// tests and by recipients who manage their own exchange keys instead of
// converting a wallet signing key.
func GenerateExchangeKeyPair(suite ExchangeSuite) (*ExchangePublicKey, ExchangeCapability, error) {
	switch suite {
	case SuiteX25519:
		priv := make([]byte, curve25519.ScalarSize)
		if _, err := io.ReadFull(rand.Reader, priv); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		pub, err := curve25519.X25519(priv, curve25519.Basepoint)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		return &ExchangePublicKey{Suite: SuiteX25519, Bytes: pub}, &x25519Capability{priv: priv}, nil

	case SuiteRistretto255:
		g := group.Ristretto255
		scalar := g.RandomNonZeroScalar(rand.Reader)
		pub, err := g.NewElement().MulGen(scalar).MarshalBinary()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		return &ExchangePublicKey{Suite: SuiteRistretto255, Bytes: pub}, &ristrettoCapability{scalar: scalar}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, suite)
	}
}
