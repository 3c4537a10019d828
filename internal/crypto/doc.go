// Package crypto implements the cryptographic pipeline for ChronoVault
// messages: authenticated content encryption, content-integrity digests,
// and key wrapping for both wallet-backed and walletless recipients.
//
// # Algorithm Suite
//
//   - AES-256-GCM: Authenticated encryption for message content and for
//     wrapped symmetric keys. Provides confidentiality and integrity.
//
//   - X25519 / ristretto255: Diffie-Hellman key agreement for wrapping a
//     message key to a recipient. Ed25519 wallet keys are converted to
//     X25519 with the birational Edwards-to-Montgomery map; Sr25519 wallet
//     keys are ristretto255 elements and are used in that group directly.
//
//   - HKDF-SHA-512 (RFC 5869): Derives AES wrapping keys from DH shared
//     secrets with domain separation.
//
//   - PBKDF2-SHA-256 (100,000 iterations): Derives wrapping keys from
//     recipient passphrases for walletless delivery.
//
//   - SHA-256: Content-integrity digests, always computed over ciphertext
//     so transport corruption is detected before decryption is attempted.
//
// # Key Lifetime
//
// A symmetric key protects exactly one message. Callers must call
// [SymmetricKey.Zero] as soon as both the ciphertext and the wrapped key
// derived from it exist. Keys are never written to persistent storage by
// this package.
//
// Recipient private keys never enter this package: unwrapping takes an
// [ExchangeCapability], an injected operation that performs the DH step,
// so wallet-backed flows keep the private key behind the wallet boundary.
package crypto
