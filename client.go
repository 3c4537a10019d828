package chronovault

import (
	"context"
	"net/http"
	"sync"

	"github.com/chronovault/client-go/internal/store"
	"github.com/chronovault/client-go/internal/transport"
)

// ContentDescriptor identifies a stored blob. Descriptors are only
// issued after the blob passed an accessibility probe.
type ContentDescriptor = store.ContentDescriptor

// defaultHTTPClient is shared by clients that do not bring their own.
// Attempt deadlines come from the retry engine, so the client itself
// carries no timeout.
var defaultHTTPClient = sync.OnceValue(func() *http.Client {
	return &http.Client{}
})

// Client seals and opens time-locked messages against a content-addressed
// blob store. A Client is safe for concurrent use.
//
// The Client handles the cryptographic pipeline and blob placement only.
// Recording SealResults on a ledger and gating key release on unlock time
// belong to the caller.
type Client struct {
	cfg   clientConfig
	store *store.Store
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxAttempts < 1 {
		return nil, &ValidationError{Field: "maxAttempts", Reason: "must be at least 1"}
	}
	if cfg.baseDelay <= 0 {
		return nil, &ValidationError{Field: "baseDelay", Reason: "must be positive"}
	}
	if cfg.jitterFraction < 0 || cfg.jitterFraction >= 1 {
		return nil, &ValidationError{Field: "jitterFraction", Reason: "must be in [0, 1)"}
	}
	if cfg.probeAttempts < 1 {
		return nil, &ValidationError{Field: "probeAttempts", Reason: "must be at least 1"}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = defaultHTTPClient()
	}

	transfer := transport.Policy{
		MaxAttempts:    cfg.maxAttempts,
		BaseDelay:      cfg.baseDelay,
		JitterFraction: cfg.jitterFraction,
	}
	probe := transfer
	probe.MaxAttempts = cfg.probeAttempts
	probe.Timeout = cfg.probeTimeout

	blobStore := store.New(store.Config{
		APIURL:      cfg.apiURL,
		GatewayHost: cfg.gatewayHost,
		GatewayBase: cfg.gatewayBase,
		Provider:    cfg.provider,
		HTTPClient:  httpClient,
		Transfer:    transfer,
		Probe:       probe,
		Timeouts:    cfg.timeouts,
	})

	return &Client{cfg: cfg, store: blobStore}, nil
}

// GatewayURL resolves a content address to the URL it is readable at.
func (c *Client) GatewayURL(address string) string {
	return c.store.GatewayURL(address)
}

// Probe checks that a content address currently resolves on the gateway,
// under the probe retry budget.
func (c *Client) Probe(ctx context.Context, address string) error {
	return wrapError(c.store.Probe(ctx, address))
}
