package chronovault

import (
	"net/http"
	"testing"
	"time"
)

func TestOptionsApply(t *testing.T) {
	httpClient := &http.Client{Timeout: 0}

	cfg := defaultClientConfig()
	opts := []Option{
		WithAPIURL("http://kubo.internal:5001"),
		WithGatewayHost("w3s.link"),
		WithGatewayEndpoint("http://127.0.0.1:8080"),
		WithProvider("web3.storage"),
		WithHTTPClient(httpClient),
		WithSender("alice"),
		WithMaxAttempts(7),
		WithBaseDelay(250 * time.Millisecond),
		WithJitterFraction(0.5),
		WithUploadTimeouts(10*time.Second, time.Minute, 10*time.Minute),
		WithProbeAttempts(2),
		WithProbeTimeout(3 * time.Second),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.apiURL != "http://kubo.internal:5001" {
		t.Errorf("apiURL = %q", cfg.apiURL)
	}
	if cfg.gatewayHost != "w3s.link" {
		t.Errorf("gatewayHost = %q", cfg.gatewayHost)
	}
	if cfg.gatewayBase != "http://127.0.0.1:8080" {
		t.Errorf("gatewayBase = %q", cfg.gatewayBase)
	}
	if cfg.provider != "web3.storage" {
		t.Errorf("provider = %q", cfg.provider)
	}
	if cfg.httpClient != httpClient {
		t.Error("httpClient not applied")
	}
	if cfg.sender != "alice" {
		t.Errorf("sender = %q", cfg.sender)
	}
	if cfg.maxAttempts != 7 {
		t.Errorf("maxAttempts = %d", cfg.maxAttempts)
	}
	if cfg.baseDelay != 250*time.Millisecond {
		t.Errorf("baseDelay = %v", cfg.baseDelay)
	}
	if cfg.jitterFraction != 0.5 {
		t.Errorf("jitterFraction = %v", cfg.jitterFraction)
	}
	if cfg.timeouts.Medium != time.Minute {
		t.Errorf("timeouts.Medium = %v", cfg.timeouts.Medium)
	}
	if cfg.probeAttempts != 2 {
		t.Errorf("probeAttempts = %d", cfg.probeAttempts)
	}
	if cfg.probeTimeout != 3*time.Second {
		t.Errorf("probeTimeout = %v", cfg.probeTimeout)
	}
}

func TestSealOptions(t *testing.T) {
	var cfg sealConfig
	called := false
	WithProgress(func(int) { called = true })(&cfg)

	if cfg.onProgress == nil {
		t.Fatal("onProgress not set")
	}
	cfg.onProgress(50)
	if !called {
		t.Error("progress callback not invoked")
	}
}
