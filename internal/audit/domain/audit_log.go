package domain

import "time"

// AuditLog is one recorded protocol event at this terminal (login, logout,
// refresh, OTP generation, center activation, vote cast).
type AuditLog struct {
	ID         string
	TerminalID string
	SubjectID  string
	Action     string
	Resource   string
	Metadata   string
	CreatedAt  time.Time
}
