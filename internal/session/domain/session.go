package domain

import (
	"errors"
	"time"
)

// Role is the authenticated subject's role. The hierarchy is
// SUPER_ADMIN > ADMIN > VOTER; comparison lives in the policy engine.
type Role string

const (
	RoleVoter      Role = "VOTER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// LoginMethod records how the session was established.
type LoginMethod string

const (
	LoginBiometric LoginMethod = "BIOMETRIC"
	LoginFallback  LoginMethod = "FALLBACK"
)

// Session is the authenticated identity held by this terminal: one voter or
// one admin, its server session id and bearer token, and its expiry.
type Session struct {
	SubjectID string
	Username  string
	Role      Role
	SessionID string
	IssuedVia LoginMethod
	Token     string
	ExpiresAt time.Time
}

// Validate checks the invariants a live session must hold: non-empty subject
// and role, and an expiry strictly in the future at now.
func (s *Session) Validate(now time.Time) error {
	if s.SubjectID == "" {
		return errors.New("session: subject id is required")
	}
	if s.Role == "" {
		return errors.New("session: role is required")
	}
	if !s.ExpiresAt.After(now) {
		return errors.New("session: expiry is not in the future")
	}
	return nil
}

// Expired reports whether the session's expiry has elapsed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
