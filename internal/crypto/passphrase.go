package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// derivePassphraseKey stretches a passphrase into an AES-256 wrapping key
// with PBKDF2-SHA-256.
func derivePassphraseKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// WrapKeyWithPassphrase encrypts a symmetric key under a key derived from
// a recipient passphrase, for recipients without a registered wallet key.
// Passphrases shorter than MinPassphraseLength are rejected.
func WrapKeyWithPassphrase(key SymmetricKey, passphrase string) (*WrappedKey, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(passphrase) < MinPassphraseLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrWeakPassphrase, MinPassphraseLength)
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	wrappingKey := derivePassphraseKey(passphrase, salt)
	defer SymmetricKey(wrappingKey).Zero()

	ciphertext, err := sealAESGCM(wrappingKey, nonce, key)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		Method:     WrapMethodPassphrase,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
	}, nil
}

// UnwrapKeyWithPassphrase recovers a symmetric key from a passphrase
// wrap. A wrong passphrase and corrupted data both return
// ErrInvalidPassphrase; the error deliberately does not distinguish them.
func UnwrapKeyWithPassphrase(wrapped *WrappedKey, passphrase string) (SymmetricKey, error) {
	if wrapped.Method != WrapMethodPassphrase {
		return nil, fmt.Errorf("%w: method %q", ErrInvalidWrappedKey, wrapped.Method)
	}
	if len(wrapped.Salt) != SaltSize || len(wrapped.Nonce) != NonceSize {
		return nil, fmt.Errorf("%w: malformed passphrase wrap", ErrInvalidWrappedKey)
	}

	wrappingKey := derivePassphraseKey(passphrase, wrapped.Salt)
	defer SymmetricKey(wrappingKey).Zero()

	key, err := openAESGCM(wrappingKey, wrapped.Nonce, wrapped.Ciphertext)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}
	if len(key) != KeySize {
		return nil, ErrInvalidPassphrase
	}
	return key, nil
}

// SealWithPassphrase encrypts an arbitrary blob under a passphrase using
// the redeem-artifact wire layout:
//
//	[16-byte salt][12-byte nonce][ciphertext || tag]
func SealWithPassphrase(plaintext []byte, passphrase string) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrWeakPassphrase, MinPassphraseLength)
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	key := derivePassphraseKey(passphrase, salt)
	defer SymmetricKey(key).Zero()

	ciphertext, err := sealAESGCM(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, SaltSize+NonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// OpenWithPassphrase decrypts a blob produced by SealWithPassphrase.
// Any failure, including a wrong passphrase, returns ErrInvalidPassphrase.
func OpenWithPassphrase(blob []byte, passphrase string) ([]byte, error) {
	if len(blob) < SaltSize+NonceSize+TagSize {
		return nil, ErrInvalidPassphrase
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize : SaltSize+NonceSize]
	ciphertext := blob[SaltSize+NonceSize:]

	key := derivePassphraseKey(passphrase, salt)
	defer SymmetricKey(key).Zero()

	plaintext, err := openAESGCM(key, nonce, ciphertext)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}
	return plaintext, nil
}
