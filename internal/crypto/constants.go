package crypto

const (
	// HKDFContext is the context string used in HKDF key derivation
	// for domain separation.
	HKDFContext = "chronovault:keywrap:v1"

	// KeySize is the size of an AES-256 key in bytes.
	KeySize = 32
	// NonceSize is the size of an AES-GCM nonce in bytes.
	NonceSize = 12
	// TagSize is the size of an AES-GCM authentication tag in bytes.
	TagSize = 16

	// ExchangeKeySize is the size of an X25519 or ristretto255 public key
	// in bytes.
	ExchangeKeySize = 32

	// DigestSize is the size of a SHA-256 content digest in bytes.
	DigestSize = 32

	// SaltSize is the size of the random PBKDF2 salt in bytes.
	SaltSize = 16
	// PBKDF2Iterations is the PBKDF2-SHA-256 iteration count for
	// passphrase-derived wrapping keys.
	PBKDF2Iterations = 100_000
	// MinPassphraseLength is the minimum accepted passphrase length.
	MinPassphraseLength = 8

	// MaxPlaintextSize is the largest plaintext accepted by Encrypt.
	// AES-GCM with a 96-bit nonce tops out near 64 GiB per message; the
	// cap here is far below that and bounds client memory use.
	MaxPlaintextSize = 256 << 20
)

// AlgorithmAESGCM is the algorithm identifier carried by encrypted payloads.
const AlgorithmAESGCM = "AES-256-GCM"
