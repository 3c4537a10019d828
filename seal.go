package chronovault

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"sync"

	"github.com/chronovault/client-go/internal/crypto"
)

// Key and digest types, re-exported from the crypto layer.
type (
	// CurveFamily identifies the signature curve of a wallet identity key.
	CurveFamily = crypto.CurveFamily
	// ExchangeSuite identifies the Diffie-Hellman group a key wrap runs in.
	ExchangeSuite = crypto.ExchangeSuite
	// ExchangePublicKey is a Diffie-Hellman-capable public key derived
	// from a wallet signing key. Messages are sealed to one of these.
	ExchangePublicKey = crypto.ExchangePublicKey
	// ExchangeCapability performs the recipient side of the key exchange
	// without exposing the private key. Wallet-backed recipients inject an
	// implementation that keeps the key behind the wallet boundary.
	ExchangeCapability = crypto.ExchangeCapability
	// WrappedKey is a message key encrypted to a recipient.
	WrappedKey = crypto.WrappedKey
	// Digest is the SHA-256 integrity digest of an encrypted message blob.
	Digest = crypto.Digest
)

// Supported curve families and exchange suites.
const (
	CurveEd25519      = crypto.CurveEd25519
	CurveSr25519      = crypto.CurveSr25519
	SuiteX25519       = crypto.SuiteX25519
	SuiteRistretto255 = crypto.SuiteRistretto255
)

// MaxMessageSize is the largest plaintext SealMessage accepts.
const MaxMessageSize = crypto.MaxPlaintextSize

// ConvertSigningKey maps a wallet signature-curve public key to an
// exchange public key messages can be sealed to. Ed25519 keys convert to
// X25519; Sr25519 keys stay in the ristretto255 group. Invalid and weak
// keys are rejected.
func ConvertSigningKey(signingPublicKey []byte, family CurveFamily) (*ExchangePublicKey, error) {
	key, err := crypto.ConvertSigningKey(signingPublicKey, family)
	if err != nil {
		return nil, wrapError(err)
	}
	return key, nil
}

// NewEd25519Capability derives the exchange capability matching an
// Ed25519 signing key. It agrees on shared secrets with the exchange key
// ConvertSigningKey derives from the signing public key.
func NewEd25519Capability(privateKey ed25519.PrivateKey) (ExchangeCapability, error) {
	capability, err := crypto.NewEd25519Capability(privateKey)
	if err != nil {
		return nil, wrapError(err)
	}
	return capability, nil
}

// NewX25519Capability wraps a raw 32-byte X25519 private key as an
// exchange capability.
func NewX25519Capability(privateKey []byte) (ExchangeCapability, error) {
	capability, err := crypto.NewX25519Capability(privateKey)
	if err != nil {
		return nil, wrapError(err)
	}
	return capability, nil
}

// GenerateExchangeKeyPair creates a fresh exchange keypair in the given
// suite, for recipients who manage exchange keys directly instead of
// converting a wallet signing key.
func GenerateExchangeKeyPair(suite ExchangeSuite) (*ExchangePublicKey, ExchangeCapability, error) {
	pub, capability, err := crypto.GenerateExchangeKeyPair(suite)
	if err != nil {
		return nil, nil, wrapError(err)
	}
	return pub, capability, nil
}

// ComputeDigest hashes an encrypted blob with SHA-256.
func ComputeDigest(data []byte) Digest {
	return crypto.ComputeDigest(data)
}

// ParseDigestHex parses a hex-encoded SHA-256 digest, the form recorded
// on a ledger.
func ParseDigestHex(s string) (Digest, error) {
	d, err := crypto.ParseDigestHex(s)
	if err != nil {
		return d, &ValidationError{Field: "digest", Err: err}
	}
	return d, nil
}

// SealResult is the outcome of sealing a message: everything a caller
// needs to record on a ledger so the recipient can later claim it.
type SealResult struct {
	// MessageBlob locates the encrypted message.
	MessageBlob ContentDescriptor `json:"messageBlob"`
	// KeyBlob locates the wrapped message key.
	KeyBlob ContentDescriptor `json:"keyBlob"`
	// Digest is the SHA-256 digest of the encrypted message blob, to be
	// verified on download before decryption.
	Digest Digest `json:"-"`
	// DigestHex is the ledger form of Digest.
	DigestHex string `json:"integrityHash"`
	// WrappedKey describes how the message key was wrapped.
	WrappedKey *WrappedKey `json:"wrappedKey"`
}

// SealMessage runs the sealing pipeline for a wallet-backed recipient:
// generate a fresh message key, encrypt the plaintext with AES-256-GCM,
// digest the encrypted blob, wrap the key to the recipient exchange key,
// and upload both blobs. The message key is zeroed before returning.
//
// The two uploads run concurrently with no ordering guarantee. Each is
// only accepted once its accessibility probe passed, so holding a
// SealResult means both blobs were retrievable at least once.
func (c *Client) SealMessage(ctx context.Context, plaintext []byte, recipient *ExchangePublicKey, opts ...SealOption) (*SealResult, error) {
	var sealCfg sealConfig
	for _, opt := range opts {
		opt(&sealCfg)
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

	wrapped, err := crypto.WrapKey(key, recipient)
	if err != nil {
		return nil, wrapError(err)
	}
	keyBlob, err := json.Marshal(wrapped)
	if err != nil {
		return nil, &ParseError{Op: "seal", Reason: err.Error()}
	}

	messageDesc, keyDesc, err := c.uploadPair(ctx, messageBlob, keyBlob, sealCfg.onProgress)
	if err != nil {
		return nil, err
	}

	return &SealResult{
		MessageBlob: *messageDesc,
		KeyBlob:     *keyDesc,
		Digest:      digest,
		DigestHex:   digest.Hex(),
		WrappedKey:  wrapped,
	}, nil
}

// OpenMessage downloads and decrypts a sealed message. The encrypted blob
// is verified against the expected digest before any decryption; content
// that fails the check is discarded.
func (c *Client) OpenMessage(ctx context.Context, messageAddress, keyAddress string, expected Digest, capability ExchangeCapability) ([]byte, error) {
	messageBlob, keyBlob, err := c.downloadPair(ctx, messageAddress, keyAddress)
	if err != nil {
		return nil, err
	}

	if !crypto.VerifyDigest(messageBlob, expected) {
		actual := crypto.ComputeDigest(messageBlob)
		return nil, &IntegrityError{
			Address:  messageAddress,
			Expected: expected.Hex(),
			Actual:   actual.Hex(),
		}
	}

	var wrapped WrappedKey
	if err := json.Unmarshal(keyBlob, &wrapped); err != nil {
		return nil, &ParseError{Op: "open", Reason: "key blob is not a wrapped key"}
	}

	key, err := crypto.UnwrapKey(&wrapped, capability)
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

// uploadPair stores the message and key blobs concurrently. Progress is
// reported for the message blob only; the key blob is a few hundred bytes.
func (c *Client) uploadPair(ctx context.Context, messageBlob, keyBlob []byte, onProgress func(int)) (messageDesc, keyDesc *ContentDescriptor, err error) {
	var wg sync.WaitGroup
	var messageErr, keyErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		messageDesc, messageErr = c.store.Upload(ctx, messageBlob, onProgress)
	}()
	go func() {
		defer wg.Done()
		keyDesc, keyErr = c.store.Upload(ctx, keyBlob, nil)
	}()
	wg.Wait()

	if messageErr != nil {
		return nil, nil, wrapError(messageErr)
	}
	if keyErr != nil {
		return nil, nil, wrapError(keyErr)
	}
	return messageDesc, keyDesc, nil
}

// downloadPair fetches the message and key blobs concurrently.
func (c *Client) downloadPair(ctx context.Context, messageAddress, keyAddress string) (messageBlob, keyBlob []byte, err error) {
	var wg sync.WaitGroup
	var messageErr, keyErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		messageBlob, messageErr = c.store.Download(ctx, messageAddress)
	}()
	go func() {
		defer wg.Done()
		keyBlob, keyErr = c.store.Download(ctx, keyAddress)
	}()
	wg.Wait()

	if messageErr != nil {
		return nil, nil, wrapError(messageErr)
	}
	if keyErr != nil {
		return nil, nil, wrapError(keyErr)
	}
	return messageBlob, keyBlob, nil
}
