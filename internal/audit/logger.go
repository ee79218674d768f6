// Package audit records protocol events (logins, logouts, refreshes, OTP
// generation, center activation, vote casts) for this terminal.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"voteguard/gateway/internal/audit/domain"
	auditrepo "voteguard/gateway/internal/audit/repository"
)

// Actions recorded by the gateway's protocol flows.
const (
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionRefresh        = "session_refresh"
	ActionOTPGenerate    = "otp_generate"
	ActionCenterActivate = "center_activate"
	ActionVoteCast       = "vote_cast"
)

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, subjectID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo       auditrepo.Repository
	terminalID string
}

// NewLogger returns an AuditLogger that persists to repo under terminalID.
// repo may be nil; then events are dropped.
func NewLogger(repo auditrepo.Repository, terminalID string) *Logger {
	return &Logger{repo: repo, terminalID: terminalID}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, subjectID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		TerminalID: l.terminalID,
		SubjectID:  subjectID,
		Action:     action,
		Resource:   resource,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
