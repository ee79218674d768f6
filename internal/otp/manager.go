// Package otp manages per-election one-time passwords issued by the election
// backend: generation, the short validity window, and the live countdown shown
// at the center.
package otp

import (
	"context"
	"log"
	"sync"
	"time"

	"voteguard/gateway/internal/audit"
	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/clock"
)

const (
	// tickInterval drives the shared countdown loop.
	tickInterval = time.Second

	// zeroBuffer is the band just past expiry during which the countdown still
	// reads 0; beyond it the record is dropped entirely.
	zeroBuffer = 2 * time.Second
)

// API is the slice of the backend client the manager needs.
type API interface {
	GenerateOTP(ctx context.Context, electionID string) (*backend.OTPGrant, error)
}

// Grant is one issued OTP: the code and when it stops being accepted.
type Grant struct {
	Code      string
	ExpiresAt time.Time
}

// Manager tracks at most one live OTP per election. A single ticker sweeps all
// records; expiry of one election's OTP never touches another's. Safe for
// concurrent use.
type Manager struct {
	api    API
	clk    clock.Clock
	audit  audit.AuditLogger
	window time.Duration

	mu      sync.Mutex
	records map[string]Grant
	ticker  clock.Ticker
	stop    chan struct{}
}

// NewManager returns a manager whose nominal validity window is window. The
// sweep loop starts immediately; Close stops it.
func NewManager(api API, clk clock.Clock, auditLogger audit.AuditLogger, window time.Duration) *Manager {
	m := &Manager{
		api:     api,
		clk:     clk,
		audit:   auditLogger,
		window:  window,
		records: make(map[string]Grant),
		ticker:  clk.NewTicker(tickInterval),
		stop:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Generate requests a fresh OTP for electionID and stores it, superseding any
// previous grant for that election. The stored expiry is the server's, clamped
// to the nominal window when the server's value is implausible.
func (m *Manager) Generate(ctx context.Context, electionID string) (Grant, error) {
	wire, err := m.api.GenerateOTP(ctx, electionID)
	if err != nil {
		return Grant{}, err
	}
	now := m.clk.Now()
	expiresAt, perr := backend.ParseTimestamp(wire.ExpiresAt)
	if perr != nil {
		log.Printf("otp: unparsable expiry %q for election %s, using nominal window: %v", wire.ExpiresAt, electionID, perr)
		expiresAt = now.Add(m.window)
	}
	expiresAt = m.clampExpiry(now, expiresAt, electionID)

	grant := Grant{Code: wire.OTP, ExpiresAt: expiresAt}
	m.mu.Lock()
	m.records[electionID] = grant
	m.mu.Unlock()
	m.audit.LogEvent(ctx, "", audit.ActionOTPGenerate, "election:"+electionID, "")
	return grant, nil
}

// clampExpiry guards against server clocks the terminal cannot trust: an
// expiry already in the past, or further out than 2.5x the nominal window,
// is replaced with now+window.
func (m *Manager) clampExpiry(now, expiresAt time.Time, electionID string) time.Time {
	max := now.Add(m.window * 5 / 2)
	if expiresAt.Before(now) || expiresAt.After(max) {
		log.Printf("otp: implausible expiry %v for election %s, clamping to nominal window", expiresAt, electionID)
		return now.Add(m.window)
	}
	return expiresAt
}

// Current returns the live grant for electionID, if one is tracked.
func (m *Manager) Current(electionID string) (Grant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.records[electionID]
	return g, ok
}

// TimeLeft returns the whole seconds remaining on electionID's OTP. Within the
// short buffer past expiry it reads 0; once the record has been swept (or was
// never created) the second return is false.
func (m *Manager) TimeLeft(electionID string) (int, bool) {
	m.mu.Lock()
	g, ok := m.records[electionID]
	m.mu.Unlock()
	if !ok {
		return 0, false
	}
	remaining := g.ExpiresAt.Sub(m.clk.Now())
	if remaining <= 0 {
		if remaining < -zeroBuffer {
			return 0, false
		}
		return 0, true
	}
	return int(remaining / time.Second), true
}

// Invalidate drops electionID's grant immediately, such as after a successful
// center activation consumed it.
func (m *Manager) Invalidate(electionID string) {
	m.mu.Lock()
	delete(m.records, electionID)
	m.mu.Unlock()
}

// Close stops the sweep loop. Tracked grants are discarded with the process.
func (m *Manager) Close() {
	m.ticker.Stop()
	close(m.stop)
}

func (m *Manager) sweepLoop() {
	for {
		select {
		case <-m.ticker.C():
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// sweep drops records that are past expiry by more than the zero buffer.
func (m *Manager) sweep() {
	now := m.clk.Now()
	m.mu.Lock()
	for id, g := range m.records {
		if now.Sub(g.ExpiresAt) > zeroBuffer {
			delete(m.records, id)
		}
	}
	m.mu.Unlock()
}
