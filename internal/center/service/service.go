// Package service implements voting-center activation: exchanging an election
// code and a fresh OTP for this terminal's binding to an election.
package service

import (
	"context"
	"errors"
	"strings"

	"voteguard/gateway/internal/audit"
	"voteguard/gateway/internal/center/domain"
	"voteguard/gateway/internal/center/repository"
	"voteguard/gateway/internal/clock"
	"voteguard/gateway/internal/electioncode"
)

// Sentinel errors for center activation.
var (
	ErrInvalidElectionCode = errors.New("center: election code must be 6 alphanumeric characters")
	ErrMissingOTP          = errors.New("center: otp is required")
	ErrMissingLocation     = errors.New("center: center location is required")
)

// API is the slice of the backend client the activation flow needs.
type API interface {
	SetupCenter(ctx context.Context, electionCode, otp, location string) (string, error)
}

// Activation is the result of a successful center setup: the confirmed code
// and the URL-safe token the terminal's voter-facing paths are built from.
type Activation struct {
	ElectionCode string
	EncodedToken string
}

// Service runs the activation flow and keeps the terminal's current binding.
type Service struct {
	api   API
	repo  repository.Repository
	clk   clock.Clock
	audit audit.AuditLogger
}

// New returns an activation service.
func New(api API, repo repository.Repository, clk clock.Clock, auditLogger audit.AuditLogger) *Service {
	return &Service{api: api, repo: repo, clk: clk, audit: auditLogger}
}

// Activate validates the inputs, confirms the code and OTP with the backend,
// and persists the resulting binding. Validation failures never reach the
// backend. The binding is only replaced after the backend confirmed the setup.
func (s *Service) Activate(ctx context.Context, code, otpCode, location string) (*Activation, error) {
	code = strings.TrimSpace(code)
	otpCode = strings.TrimSpace(otpCode)
	location = strings.TrimSpace(location)

	if !electioncode.IsValidCode(code) {
		return nil, ErrInvalidElectionCode
	}
	if otpCode == "" {
		return nil, ErrMissingOTP
	}
	if location == "" {
		return nil, ErrMissingLocation
	}

	confirmed, err := s.api.SetupCenter(ctx, code, otpCode, location)
	if err != nil {
		return nil, err
	}
	if confirmed == "" {
		confirmed = code
	}

	binding := &domain.Binding{
		ElectionCode: confirmed,
		EncodedToken: electioncode.Encode(confirmed),
		Location:     location,
		ActivatedAt:  s.clk.Now(),
	}
	if err := s.repo.Save(ctx, binding); err != nil {
		return nil, err
	}
	s.audit.LogEvent(ctx, "", audit.ActionCenterActivate, "election-code:"+confirmed, location)

	return &Activation{ElectionCode: confirmed, EncodedToken: binding.EncodedToken}, nil
}

// Binding returns the terminal's current binding, or nil when the terminal has
// never been activated.
func (s *Service) Binding(ctx context.Context) (*domain.Binding, error) {
	return s.repo.Load(ctx)
}
