package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/chronovault/client-go/internal/transport"
)

// ContentDescriptor identifies a stored blob. One is only ever issued
// after a successful accessibility probe; holding a descriptor means the
// blob was retrievable at least once.
type ContentDescriptor struct {
	// Address is the content address (CID) of the blob.
	Address string `json:"address"`
	// Size is the blob size in bytes.
	Size int64 `json:"size"`
	// Provider tags which storage network holds the blob.
	Provider string `json:"provider"`
}

// SizeClass buckets blobs for timeout budgeting: larger blobs get a
// longer per-attempt budget.
type SizeClass int

const (
	// SizeClassSmall is up to 1 MiB.
	SizeClassSmall SizeClass = iota
	// SizeClassMedium is up to 32 MiB.
	SizeClassMedium
	// SizeClassLarge is everything above.
	SizeClassLarge
)

// ClassOf returns the size class for a blob of n bytes.
func ClassOf(n int64) SizeClass {
	switch {
	case n <= 1<<20:
		return SizeClassSmall
	case n <= 32<<20:
		return SizeClassMedium
	default:
		return SizeClassLarge
	}
}

// Timeouts holds the per-attempt timeout for each size class.
type Timeouts struct {
	Small  time.Duration
	Medium time.Duration
	Large  time.Duration
}

// For returns the timeout for a size class.
func (t Timeouts) For(class SizeClass) time.Duration {
	switch class {
	case SizeClassSmall:
		return t.Small
	case SizeClassMedium:
		return t.Medium
	default:
		return t.Large
	}
}

// DefaultTimeouts returns the documented default per-class budgets.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Small:  30 * time.Second,
		Medium: 2 * time.Minute,
		Large:  5 * time.Minute,
	}
}

// Config configures a Store. Zero fields fall back to documented
// defaults.
type Config struct {
	// APIURL is the base URL of the IPFS-compatible add endpoint.
	APIURL string
	// GatewayHost is the host used for subdomain gateway resolution:
	// https://{address}.{GatewayHost}/.
	GatewayHost string
	// GatewayBase, if set, switches to path-style gateway resolution:
	// {GatewayBase}/ipfs/{address}. Used for local gateways and tests.
	GatewayBase string
	// Provider is the provider tag stamped on descriptors.
	Provider string
	// HTTPClient is the client used for all calls. The transport engine
	// owns deadlines, so the client itself carries no timeout.
	HTTPClient *http.Client
	// Transfer is the retry policy template for uploads and downloads;
	// its Timeout is replaced per call from Timeouts.
	Transfer transport.Policy
	// Probe is the independently budgeted retry policy for
	// accessibility probes.
	Probe transport.Policy
	// Timeouts are the per-size-class attempt budgets.
	Timeouts Timeouts
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	probe := transport.DefaultPolicy()
	probe.MaxAttempts = 5
	probe.Timeout = 15 * time.Second

	return Config{
		APIURL:      "http://127.0.0.1:5001",
		GatewayHost: "ipfs.dweb.link",
		Provider:    "ipfs",
		Transfer:    transport.DefaultPolicy(),
		Probe:       probe,
		Timeouts:    DefaultTimeouts(),
	}
}

// Store is the content-addressed blob store client.
type Store struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a Store from cfg, filling unset fields from
// DefaultConfig.
func New(cfg Config) *Store {
	def := DefaultConfig()
	if cfg.APIURL == "" {
		cfg.APIURL = def.APIURL
	}
	if cfg.GatewayHost == "" {
		cfg.GatewayHost = def.GatewayHost
	}
	if cfg.Provider == "" {
		cfg.Provider = def.Provider
	}
	if cfg.Transfer.MaxAttempts == 0 {
		cfg.Transfer = def.Transfer
	}
	if cfg.Probe.MaxAttempts == 0 {
		cfg.Probe = def.Probe
	}
	if cfg.Timeouts == (Timeouts{}) {
		cfg.Timeouts = def.Timeouts
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Store{cfg: cfg, httpClient: client}
}

// GatewayURL resolves a content address to its gateway URL.
func (s *Store) GatewayURL(address string) string {
	if s.cfg.GatewayBase != "" {
		return strings.TrimSuffix(s.cfg.GatewayBase, "/") + "/ipfs/" + address
	}
	return "https://" + address + "." + s.cfg.GatewayHost + "/"
}

// Upload stores a blob and returns its descriptor. The transfer runs
// under the retry engine with a timeout from the blob's size class;
// progress is reported monotonically in [0, 100] with a guaranteed final
// 100 on success.
//
// After the transfer succeeds, a second, independently budgeted retry
// loop probes the gateway for the returned address. The descriptor is
// only returned once that probe passes; otherwise the upload fails with
// ErrVerificationFailed even though the remote may hold the bytes.
func (s *Store) Upload(ctx context.Context, blob []byte, onProgress func(percent int)) (*ContentDescriptor, error) {
	progress := newProgressTracker(onProgress)

	policy := s.cfg.Transfer
	policy.Timeout = s.cfg.Timeouts.For(ClassOf(int64(len(blob))))

	address, err := transport.Execute(ctx, "upload", policy, func(ctx context.Context) (string, error) {
		progress.reset()
		return s.add(ctx, blob, progress)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	if _, err := transport.Execute(ctx, "verify", s.cfg.Probe, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.probe(ctx, address)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	progress.finish()

	return &ContentDescriptor{
		Address:  address,
		Size:     int64(len(blob)),
		Provider: s.cfg.Provider,
	}, nil
}

// Download fetches a blob by content address. The address format is
// validated before any network call; a malformed address fails fast. The
// fetch timeout is chosen from the remote blob's size when the gateway
// reports it, falling back to the large-class budget.
func (s *Store) Download(ctx context.Context, address string) ([]byte, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	policy := s.cfg.Transfer
	policy.Timeout = s.cfg.Timeouts.For(s.remoteSizeClass(ctx, address))

	blob, err := transport.Execute(ctx, "download", policy, func(ctx context.Context) ([]byte, error) {
		return s.get(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	return blob, nil
}

// Probe checks that a content address currently resolves on the
// gateway, under the probe retry budget.
func (s *Store) Probe(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	_, err := transport.Execute(ctx, "verify", s.cfg.Probe, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.probe(ctx, address)
	})
	return err
}

// ProbeOnce performs a single accessibility check without the probe
// retry budget, for callers that drive their own retry behavior.
func (s *Store) ProbeOnce(ctx context.Context, address string) error {
	if err := ValidateAddress(address); err != nil {
		return err
	}
	return s.probe(ctx, address)
}

// addResponse is the one accepted response shape of the add endpoint
// (Kubo /api/v0/add for a single file). Anything else is a ParseError.
type addResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// add performs one upload attempt and returns the content address.
func (s *Store) add(ctx context.Context, blob []byte, progress *progressTracker) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "blob")
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(blob); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	url := strings.TrimSuffix(s.cfg.APIURL, "/") + "/api/v0/add?pin=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, progress.reader(body.Bytes()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &transport.NetworkError{Err: err, URL: url}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(url, resp)
	}

	var parsed addResponse
	dec := json.NewDecoder(resp.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return "", &ParseError{Op: "upload", Reason: err.Error()}
	}
	if parsed.Hash == "" {
		return "", &ParseError{Op: "upload", Reason: "missing Hash field"}
	}
	if err := ValidateAddress(parsed.Hash); err != nil {
		return "", &ParseError{Op: "upload", Reason: fmt.Sprintf("returned address %q is not a valid CID", parsed.Hash)}
	}

	return parsed.Hash, nil
}

// probe performs one accessibility check against the gateway.
func (s *Store) probe(ctx context.Context, address string) error {
	url := s.GatewayURL(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &transport.NetworkError{Err: err, URL: url}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(url, resp)
	}
	return nil
}

// get performs one download attempt.
func (s *Store) get(ctx context.Context, address string) ([]byte, error) {
	url := s.GatewayURL(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &transport.NetworkError{Err: err, URL: url}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(url, resp)
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transport.NetworkError{Err: err, URL: url}
	}
	return blob, nil
}

// remoteSizeClass asks the gateway for the blob's size to pick a
// download budget. A failed HEAD falls back to the large class rather
// than failing the download.
func (s *Store) remoteSizeClass(ctx context.Context, address string) SizeClass {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.GatewayURL(address), nil)
	if err != nil {
		return SizeClassLarge
	}

	headCtx, cancel := context.WithTimeout(ctx, s.cfg.Probe.Timeout)
	defer cancel()

	resp, err := s.httpClient.Do(req.WithContext(headCtx))
	if err != nil {
		return SizeClassLarge
	}
	resp.Body.Close()

	if resp.ContentLength <= 0 {
		return SizeClassLarge
	}
	return ClassOf(resp.ContentLength)
}

func statusError(url string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{
		URL:        url,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
