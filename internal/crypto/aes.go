package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// SymmetricKey is a 256-bit content-encryption key. One key protects
// exactly one message; call Zero once the ciphertext and the wrapped key
// derived from it have both been produced.
type SymmetricKey []byte

// Zero overwrites the key material in place.
func (k SymmetricKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// EncryptedPayload is the output of Encrypt. Ciphertext includes the
// 16-byte GCM authentication tag.
type EncryptedPayload struct {
	Ciphertext []byte
	Nonce      []byte
	Algorithm  string
	KeyBits    int
}

// GenerateKey creates a fresh 256-bit symmetric key from crypto/rand.
func GenerateKey() (SymmetricKey, error) {
	key := make(SymmetricKey, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return key, nil
}

// Encrypt encrypts plaintext under key with AES-256-GCM and a fresh
// 96-bit nonce. The nonce is never reused: it is drawn from crypto/rand
// on every call and the key itself is single-message.
func Encrypt(plaintext []byte, key SymmetricKey) (*EncryptedPayload, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(plaintext) > MaxPlaintextSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPlaintextTooLarge, len(plaintext), MaxPlaintextSize)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	ciphertext, err := sealAESGCM(key, nonce, plaintext)
	if err != nil {
		return nil, err
	}

	return &EncryptedPayload{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Algorithm:  AlgorithmAESGCM,
		KeyBits:    KeySize * 8,
	}, nil
}

// Decrypt decrypts an encrypted payload. It returns ErrIntegrity if the
// authentication tag does not verify (wrong key or tampered data) and
// never returns partially decrypted output.
func Decrypt(payload *EncryptedPayload, key SymmetricKey) ([]byte, error) {
	if payload.Algorithm != AlgorithmAESGCM {
		return nil, fmt.Errorf("unsupported algorithm %q", payload.Algorithm)
	}
	return openAESGCM(key, payload.Nonce, payload.Ciphertext)
}

// EncodePayload serializes a payload to the on-wire message blob layout:
// nonce (12 bytes) || ciphertext || tag (16 bytes).
func EncodePayload(payload *EncryptedPayload) []byte {
	out := make([]byte, 0, len(payload.Nonce)+len(payload.Ciphertext))
	out = append(out, payload.Nonce...)
	out = append(out, payload.Ciphertext...)
	return out
}

// DecodePayload parses the on-wire message blob layout produced by
// EncodePayload.
func DecodePayload(blob []byte) (*EncryptedPayload, error) {
	if len(blob) < NonceSize+TagSize {
		return nil, fmt.Errorf("%w: blob of %d bytes is too short", ErrIntegrity, len(blob))
	}
	return &EncryptedPayload{
		Ciphertext: blob[NonceSize:],
		Nonce:      blob[:NonceSize],
		Algorithm:  AlgorithmAESGCM,
		KeyBits:    KeySize * 8,
	}, nil
}

// sealAESGCM encrypts with AES-256-GCM. Returns ciphertext || tag.
func sealAESGCM(key, nonce, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// openAESGCM decrypts AES-256-GCM output produced by sealAESGCM.
func openAESGCM(key, nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

func newGCM(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeySize)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), NonceSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
