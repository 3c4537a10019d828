package chronovault

import (
	"context"
	"time"

	"github.com/chronovault/client-go/internal/store"
	"github.com/chronovault/client-go/internal/transport"
)

// AvailabilityState is the observed availability of a stored blob:
// Disconnected, Connecting, Connected or Reconnecting, where "connected"
// means the gateway currently resolves the address.
type AvailabilityState = transport.ConnState

// Availability states.
const (
	Disconnected = transport.Disconnected
	Connecting   = transport.Connecting
	Connected    = transport.Connected
	Reconnecting = transport.Reconnecting
)

// AvailabilityEvent is one observed availability transition.
type AvailabilityEvent = transport.StateChange

// defaultMonitorInterval is the probe cadence while an address resolves.
const defaultMonitorInterval = 30 * time.Second

// AvailabilityMonitor watches a content address on the gateway. It is
// used by senders who want to know if a blob stops resolving before its
// unlock time, for example to re-pin it elsewhere.
//
// A lost address is re-probed with exponential backoff under a bounded
// attempt budget; the budget resets whenever the address resolves again.
type AvailabilityMonitor struct {
	client   *Client
	address  string
	interval time.Duration
	rec      *transport.Reconnector
}

// MonitorAvailability creates a monitor for a content address. A zero
// interval uses the default cadence.
func (c *Client) MonitorAvailability(address string, interval time.Duration) (*AvailabilityMonitor, error) {
	if err := store.ValidateAddress(address); err != nil {
		return nil, wrapError(err)
	}
	if interval <= 0 {
		interval = defaultMonitorInterval
	}

	m := &AvailabilityMonitor{
		client:   c,
		address:  address,
		interval: interval,
	}

	policy := transport.Policy{
		MaxAttempts:    c.cfg.maxAttempts,
		BaseDelay:      c.cfg.baseDelay,
		JitterFraction: c.cfg.jitterFraction,
	}
	m.rec = transport.NewReconnector(m.watch, policy)
	return m, nil
}

// Run drives the monitor until the context is canceled or the address
// stays unresolvable through a full reconnect budget, in which case a
// TransportError with the attempt count is returned.
func (m *AvailabilityMonitor) Run(ctx context.Context) error {
	return wrapError(m.rec.Run(ctx))
}

// State returns the current availability state.
func (m *AvailabilityMonitor) State() AvailabilityState {
	return m.rec.State()
}

// Events returns the stream of availability transitions. The channel is
// buffered; a slow consumer loses events rather than stalling the
// monitor.
func (m *AvailabilityMonitor) Events() <-chan AvailabilityEvent {
	return m.rec.Events()
}

// watch is one monitoring session: confirm the address resolves, report
// ready, then keep probing at the configured cadence until a probe fails.
func (m *AvailabilityMonitor) watch(ctx context.Context, ready func()) error {
	if err := m.probeOnce(ctx); err != nil {
		return err
	}
	ready()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.probeOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// probeOnce is a single gateway check without the probe retry budget; the
// monitor's own state machine owns retry behavior.
func (m *AvailabilityMonitor) probeOnce(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.client.cfg.probeTimeout)
	defer cancel()
	return m.client.store.ProbeOnce(probeCtx, m.address)
}
