package chronovault

import (
	"net/http"
	"time"

	"github.com/chronovault/client-go/internal/store"
)

const (
	defaultAPIURL      = "http://127.0.0.1:5001"
	defaultGatewayHost = "ipfs.dweb.link"
	defaultProvider    = "ipfs"

	defaultMaxAttempts    = 3
	defaultBaseDelay      = time.Second
	defaultJitterFraction = 0.2

	defaultProbeAttempts = 5
	defaultProbeTimeout  = 15 * time.Second
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	apiURL      string
	gatewayHost string
	gatewayBase string
	provider    string
	httpClient  *http.Client
	sender      string

	maxAttempts    int
	baseDelay      time.Duration
	jitterFraction float64
	timeouts       store.Timeouts

	probeAttempts int
	probeTimeout  time.Duration
}

// sealConfig holds configuration for sealing a message.
type sealConfig struct {
	onProgress func(percent int)
}

// Option configures the client.
type Option func(*clientConfig)

// SealOption configures a seal operation.
type SealOption func(*sealConfig)

func defaultClientConfig() clientConfig {
	return clientConfig{
		apiURL:         defaultAPIURL,
		gatewayHost:    defaultGatewayHost,
		provider:       defaultProvider,
		maxAttempts:    defaultMaxAttempts,
		baseDelay:      defaultBaseDelay,
		jitterFraction: defaultJitterFraction,
		timeouts:       store.DefaultTimeouts(),
		probeAttempts:  defaultProbeAttempts,
		probeTimeout:   defaultProbeTimeout,
	}
}

// WithAPIURL sets the base URL of the content store add endpoint.
func WithAPIURL(url string) Option {
	return func(c *clientConfig) {
		c.apiURL = url
	}
}

// WithGatewayHost sets the host used for subdomain gateway resolution:
// https://{address}.{host}/.
// Default: ipfs.dweb.link
func WithGatewayHost(host string) Option {
	return func(c *clientConfig) {
		c.gatewayHost = host
	}
}

// WithGatewayEndpoint switches to path-style gateway resolution:
// {base}/ipfs/{address}. Intended for local gateways.
func WithGatewayEndpoint(base string) Option {
	return func(c *clientConfig) {
		c.gatewayBase = base
	}
}

// WithProvider sets the provider tag stamped on content descriptors.
func WithProvider(provider string) Option {
	return func(c *clientConfig) {
		c.provider = provider
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithSender sets the sender identity recorded in redeem artifacts.
func WithSender(sender string) Option {
	return func(c *clientConfig) {
		c.sender = sender
	}
}

// WithMaxAttempts sets the attempt budget for transfers.
// Default: 3
func WithMaxAttempts(attempts int) Option {
	return func(c *clientConfig) {
		c.maxAttempts = attempts
	}
}

// WithBaseDelay sets the base retry delay. The delay before attempt n is
// baseDelay doubled per prior retry, with jitter applied.
// Default: 1 second
func WithBaseDelay(delay time.Duration) Option {
	return func(c *clientConfig) {
		c.baseDelay = delay
	}
}

// WithJitterFraction sets the jitter fraction applied to retry delays.
// Random jitter in [-f, +f] of the delay prevents synchronized retries
// across clients.
// Default: 0.2 (20%)
func WithJitterFraction(fraction float64) Option {
	return func(c *clientConfig) {
		c.jitterFraction = fraction
	}
}

// WithUploadTimeouts sets the per-attempt timeout for each blob size
// class: small is up to 1 MiB, medium up to 32 MiB, large above.
// Default: 30s / 2m / 5m
func WithUploadTimeouts(small, medium, large time.Duration) Option {
	return func(c *clientConfig) {
		c.timeouts = store.Timeouts{Small: small, Medium: medium, Large: large}
	}
}

// WithProbeAttempts sets the attempt budget for post-upload accessibility
// probes. The probe budget is independent of the transfer budget.
// Default: 5
func WithProbeAttempts(attempts int) Option {
	return func(c *clientConfig) {
		c.probeAttempts = attempts
	}
}

// WithProbeTimeout sets the per-attempt timeout for accessibility probes.
// Default: 15 seconds
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.probeTimeout = timeout
	}
}

// WithProgress sets a callback for upload progress of the message blob.
// The reported percentage is monotonic in [0, 100]; 100 is reported only
// after the uploaded content passed its accessibility probe.
func WithProgress(fn func(percent int)) SealOption {
	return func(c *sealConfig) {
		c.onProgress = fn
	}
}
