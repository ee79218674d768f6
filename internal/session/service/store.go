// Package service holds the terminal's session store: the single owner of the
// authenticated identity, its persistence, and its expiry watchdog.
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"voteguard/gateway/internal/audit"
	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/clock"
	"voteguard/gateway/internal/policy/engine"
	"voteguard/gateway/internal/session/domain"
	"voteguard/gateway/internal/session/repository"
)

// Sentinel errors for the session store.
var (
	ErrNoActiveSession = errors.New("no active session")
)

// serverLogoutTimeout bounds the fire-and-forget server-side invalidation so a
// dead collaborator can never delay local cleanup.
const serverLogoutTimeout = 5 * time.Second

// API is the slice of the backend client the session store needs.
type API interface {
	AdminLogout(ctx context.Context, sessionID string) error
	RefreshAdminSession(ctx context.Context, sessionID string) (string, error)
}

// Store owns the terminal's one session. All reads and writes of the persisted
// blob go through it; it is the single place that performs logout. Safe for
// concurrent use.
type Store struct {
	repo   repository.Repository
	api    API
	policy engine.Evaluator
	clk    clock.Clock
	audit  audit.AuditLogger

	watchdogInterval time.Duration
	refreshThreshold time.Duration

	mu     sync.Mutex
	cur    *domain.Session
	ticker clock.Ticker
	stop   chan struct{}
}

// NewStore returns a session store. The watchdog is armed by Restore/Login and
// disarmed by Logout; Close disarms it for shutdown.
func NewStore(
	repo repository.Repository,
	api API,
	policy engine.Evaluator,
	clk clock.Clock,
	auditLogger audit.AuditLogger,
	watchdogInterval, refreshThreshold time.Duration,
) *Store {
	return &Store{
		repo:             repo,
		api:              api,
		policy:           policy,
		clk:              clk,
		audit:            auditLogger,
		watchdogInterval: watchdogInterval,
		refreshThreshold: refreshThreshold,
	}
}

// Restore loads the persisted session at startup. An already-expired blob is
// logged out (cleared) instead of restored. Must run before any protected
// surface is served.
func (s *Store) Restore(ctx context.Context) error {
	sess, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if sess.Expired(s.clk.Now()) {
		s.Logout(ctx)
		return nil
	}
	s.mu.Lock()
	s.cur = sess
	s.armLocked()
	s.mu.Unlock()
	return nil
}

// Login atomically persists and activates a new session: the blob is written
// first, and in-memory state changes only when the write succeeded.
func (s *Store) Login(ctx context.Context, sess *domain.Session) error {
	if err := sess.Validate(s.clk.Now()); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return err
	}
	s.mu.Lock()
	copied := *sess
	s.cur = &copied
	s.armLocked()
	s.mu.Unlock()
	s.audit.LogEvent(ctx, sess.SubjectID, audit.ActionLogin, "session", string(sess.Role))
	return nil
}

// Logout clears the session. Server-side invalidation is fire-and-forget; the
// local state and persisted blob are cleared unconditionally, so logout always
// succeeds locally even when the collaborator is unreachable.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	cur := s.cur
	s.cur = nil
	s.disarmLocked()
	s.mu.Unlock()

	if cur != nil && cur.SessionID != "" && cur.Role != domain.RoleVoter {
		go func() {
			sctx, cancel := context.WithTimeout(context.Background(), serverLogoutTimeout)
			defer cancel()
			if err := s.api.AdminLogout(sctx, cur.SessionID); err != nil {
				log.Printf("session: server-side logout failed: %v", err)
			}
		}()
	}
	if err := s.repo.Clear(ctx); err != nil {
		log.Printf("session: failed to clear persisted session: %v", err)
	}
	if cur != nil {
		s.audit.LogEvent(ctx, cur.SubjectID, audit.ActionLogout, "session", "")
	}
}

// Refresh requests a new expiry for the live session. Only the expiry changes;
// any failure (network, rejection, unparsable expiry) logs the session out.
// Calling Refresh with no active session is an error and mutates nothing.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()
	if cur == nil {
		return ErrNoActiveSession
	}

	wire, err := s.api.RefreshAdminSession(ctx, cur.SessionID)
	if err != nil {
		s.Logout(ctx)
		return err
	}
	expiresAt, err := backend.ParseTimestamp(wire)
	if err != nil {
		s.Logout(ctx)
		return err
	}

	s.mu.Lock()
	if s.cur == nil || s.cur.SessionID != cur.SessionID {
		s.mu.Unlock()
		return ErrNoActiveSession
	}
	updated := *s.cur
	updated.ExpiresAt = expiresAt
	if err := s.repo.Save(ctx, &updated); err != nil {
		s.mu.Unlock()
		s.Logout(ctx)
		return err
	}
	s.cur = &updated
	s.mu.Unlock()
	s.audit.LogEvent(ctx, cur.SubjectID, audit.ActionRefresh, "session", "")
	return nil
}

// IsAuthenticated reports whether a live, unexpired session with a non-empty
// identity exists right now.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.Validate(s.clk.Now()) == nil
}

// Current returns a copy of the live session, or nil.
func (s *Store) Current() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	copied := *s.cur
	return &copied
}

// Token returns the live session's bearer token, or "" when no session is
// held. The backend client uses it to authenticate its calls.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// HasRole reports whether the live session's role meets required, per the
// access policy. Unauthenticated sessions and evaluator failures deny.
func (s *Store) HasRole(ctx context.Context, required domain.Role) bool {
	if !s.IsAuthenticated() {
		return false
	}
	cur := s.Current()
	allowed, err := s.policy.Allows(ctx, string(cur.Role), string(required))
	if err != nil {
		log.Printf("session: role policy evaluation failed: %v", err)
		return false
	}
	return allowed
}

// Close disarms the watchdog. Called at shutdown; the session itself is kept.
func (s *Store) Close() {
	s.mu.Lock()
	s.disarmLocked()
	s.mu.Unlock()
}

// armLocked (re)starts the watchdog for the current session. Caller holds mu.
func (s *Store) armLocked() {
	s.disarmLocked()
	s.ticker = s.clk.NewTicker(s.watchdogInterval)
	s.stop = make(chan struct{})
	go s.watch(s.ticker, s.stop)
}

// disarmLocked stops the watchdog if armed. Caller holds mu.
func (s *Store) disarmLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Store) watch(ticker clock.Ticker, stop chan struct{}) {
	for {
		select {
		case <-ticker.C():
			s.watchdogTick(context.Background())
		case <-stop:
			return
		}
	}
}

// watchdogTick runs once per watchdog interval: expired sessions are logged
// out; admin sessions inside the refresh threshold are refreshed (a failed
// refresh logs out). Voter sessions are never refreshed: the collaborator has
// no voter refresh call, and the ballot flow enforces its own shorter timer.
func (s *Store) watchdogTick(ctx context.Context) {
	s.mu.Lock()
	cur := s.cur
	s.mu.Unlock()
	if cur == nil {
		return
	}
	remaining := cur.ExpiresAt.Sub(s.clk.Now())
	switch {
	case remaining <= 0:
		s.Logout(ctx)
	case remaining < s.refreshThreshold && cur.Role != domain.RoleVoter:
		if err := s.Refresh(ctx); err != nil {
			log.Printf("session: watchdog refresh failed: %v", err)
		}
	}
}
