package chronovault

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/chronovault/client-go/internal/crypto"
	"github.com/chronovault/client-go/internal/store"
)

// RedeemArtifact is the claim document for a walletless recipient. It is
// the decrypted content of an encoded artifact; everything needed to
// locate, verify and unwrap the message once the unlock time passes.
//
// Timestamps are unix seconds.
type RedeemArtifact struct {
	KeyBlobAddress     string `json:"keyBlobAddress"`
	MessageBlobAddress string `json:"messageBlobAddress"`
	IntegrityHash      string `json:"integrityHash"`
	UnlockTimestamp    int64  `json:"unlockTimestamp"`
	Sender             string `json:"sender"`
	Instructions       string `json:"instructions"`
	ExpiresAt          int64  `json:"expiresAt"`
}

// UnlockTime returns the unlock timestamp as a time.Time.
func (a *RedeemArtifact) UnlockTime() time.Time {
	return time.Unix(a.UnlockTimestamp, 0)
}

// ExpiryTime returns the expiry timestamp as a time.Time.
func (a *RedeemArtifact) ExpiryTime() time.Time {
	return time.Unix(a.ExpiresAt, 0)
}

// Expired reports whether the artifact is past its expiry at the given
// time.
func (a *RedeemArtifact) Expired(now time.Time) bool {
	return !now.Before(a.ExpiryTime())
}

// validate rejects artifacts whose addresses or digest are malformed.
// Decode failures on these fields mean the artifact was corrupted after
// decryption succeeded, which points at a buggy producer rather than a
// wrong passphrase.
func (a *RedeemArtifact) validate() error {
	if err := store.ValidateAddress(a.KeyBlobAddress); err != nil {
		return &ValidationError{Field: "keyBlobAddress", Err: err}
	}
	if err := store.ValidateAddress(a.MessageBlobAddress); err != nil {
		return &ValidationError{Field: "messageBlobAddress", Err: err}
	}
	if _, err := crypto.ParseDigestHex(a.IntegrityHash); err != nil {
		return &ValidationError{Field: "integrityHash", Err: err}
	}
	return nil
}

// EncodeRedeemArtifact seals an artifact under a passphrase into the
// portable wire form:
//
//	[16-byte salt][12-byte nonce][ciphertext || tag]
//
// where the ciphertext decrypts to the artifact's JSON document. The key
// is derived with PBKDF2-SHA-256 at 100000 iterations.
func EncodeRedeemArtifact(artifact *RedeemArtifact, passphrase string) ([]byte, error) {
	if err := artifact.validate(); err != nil {
		return nil, err
	}

	doc, err := json.Marshal(artifact)
	if err != nil {
		return nil, &ParseError{Op: "encode artifact", Reason: err.Error()}
	}

	blob, err := crypto.SealWithPassphrase(doc, passphrase)
	if err != nil {
		return nil, wrapError(err)
	}
	return blob, nil
}

// DecodeRedeemArtifact decrypts and parses an encoded artifact. A wrong
// passphrase and a corrupted artifact are indistinguishable; both return
// an error matching ErrInvalidPassphrase. A document that decrypts but
// does not have exactly the expected shape is a ParseError.
func DecodeRedeemArtifact(blob []byte, passphrase string) (*RedeemArtifact, error) {
	doc, err := crypto.OpenWithPassphrase(blob, passphrase)
	if err != nil {
		return nil, wrapError(err)
	}

	var artifact RedeemArtifact
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&artifact); err != nil {
		return nil, &ParseError{Op: "decode artifact", Reason: err.Error()}
	}
	if err := artifact.validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// RedeemResult is the outcome of sealing a redeemable message.
type RedeemResult struct {
	// Artifact is the claim document, before encoding.
	Artifact *RedeemArtifact
	// Encoded is the passphrase-sealed artifact handed to the recipient
	// out of band.
	Encoded []byte
	// MessageBlob and KeyBlob locate the uploaded blobs.
	MessageBlob ContentDescriptor
	KeyBlob     ContentDescriptor
	// Digest is the integrity digest of the encrypted message blob.
	Digest Digest
}

// SealRedeemable runs the sealing pipeline for a recipient identified
// only by a shared passphrase: the message key is wrapped under the
// passphrase instead of a wallet key, and the claim document is sealed
// under the same passphrase into a portable artifact.
//
// The expiry must be in the future and after the unlock time. Client-side
// the unlock time is advisory; withholding the key blob until unlock is
// the ledger's job.
func (c *Client) SealRedeemable(ctx context.Context, plaintext []byte, passphrase string, unlockAt, expiresAt time.Time, instructions string) (*RedeemResult, error) {
	now := time.Now()
	if !expiresAt.After(now) {
		return nil, &ValidationError{Field: "expiresAt", Reason: "must be in the future", Err: ErrArtifactExpired}
	}
	if !expiresAt.After(unlockAt) {
		return nil, &ValidationError{Field: "expiresAt", Reason: "must be after the unlock time"}
	}
	if len(plaintext) > MaxMessageSize {
		return nil, &CapacityError{Size: int64(len(plaintext)), Limit: MaxMessageSize}
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, wrapError(err)
	}
	defer key.Zero()

	payload, err := crypto.Encrypt(plaintext, key)
	if err != nil {
		return nil, wrapError(err)
	}
	messageBlob := crypto.EncodePayload(payload)
	digest := crypto.ComputeDigest(messageBlob)

	wrapped, err := crypto.WrapKeyWithPassphrase(key, passphrase)
	if err != nil {
		return nil, wrapError(err)
	}
	keyBlob, err := json.Marshal(wrapped)
	if err != nil {
		return nil, &ParseError{Op: "seal", Reason: err.Error()}
	}

	messageDesc, keyDesc, err := c.uploadPair(ctx, messageBlob, keyBlob, nil)
	if err != nil {
		return nil, err
	}

	artifact := &RedeemArtifact{
		KeyBlobAddress:     keyDesc.Address,
		MessageBlobAddress: messageDesc.Address,
		IntegrityHash:      digest.Hex(),
		UnlockTimestamp:    unlockAt.Unix(),
		Sender:             c.cfg.sender,
		Instructions:       instructions,
		ExpiresAt:          expiresAt.Unix(),
	}

	encoded, err := EncodeRedeemArtifact(artifact, passphrase)
	if err != nil {
		return nil, err
	}

	return &RedeemResult{
		Artifact:    artifact,
		Encoded:     encoded,
		MessageBlob: *messageDesc,
		KeyBlob:     *keyDesc,
		Digest:      digest,
	}, nil
}

// RedeemMessage runs the full claim flow from an encoded artifact: decode
// it with the passphrase, download both blobs, verify the message digest,
// unwrap the key with the same passphrase and decrypt. Expired artifacts
// are rejected before any network call.
func (c *Client) RedeemMessage(ctx context.Context, encodedArtifact []byte, passphrase string) ([]byte, error) {
	artifact, err := DecodeRedeemArtifact(encodedArtifact, passphrase)
	if err != nil {
		return nil, err
	}
	if artifact.Expired(time.Now()) {
		return nil, &ValidationError{Field: "expiresAt", Reason: "artifact expired", Err: ErrArtifactExpired}
	}

	expected, err := crypto.ParseDigestHex(artifact.IntegrityHash)
	if err != nil {
		return nil, &ValidationError{Field: "integrityHash", Err: err}
	}

	messageBlob, keyBlob, err := c.downloadPair(ctx, artifact.MessageBlobAddress, artifact.KeyBlobAddress)
	if err != nil {
		return nil, err
	}

	if !crypto.VerifyDigest(messageBlob, expected) {
		actual := crypto.ComputeDigest(messageBlob)
		return nil, &IntegrityError{
			Address:  artifact.MessageBlobAddress,
			Expected: expected.Hex(),
			Actual:   actual.Hex(),
		}
	}

	var wrapped WrappedKey
	if err := json.Unmarshal(keyBlob, &wrapped); err != nil {
		return nil, &ParseError{Op: "redeem", Reason: "key blob is not a wrapped key"}
	}

	key, err := crypto.UnwrapKeyWithPassphrase(&wrapped, passphrase)
	if err != nil {
		return nil, wrapError(err)
	}
	defer key.Zero()

	payload, err := crypto.DecodePayload(messageBlob)
	if err != nil {
		return nil, wrapError(err)
	}
	plaintext, err := crypto.Decrypt(payload, key)
	if err != nil {
		return nil, wrapError(err)
	}
	return plaintext, nil
}
