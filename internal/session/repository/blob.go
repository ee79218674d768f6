package repository

import (
	"encoding/json"
	"time"

	"voteguard/gateway/internal/session/domain"
)

// blob is the persisted session layout: a single JSON object keyed by the
// terminal. adminId/voterId mirror the layout the voting-center front ends
// already use, so an operator can inspect the row directly.
type blob struct {
	SessionID   string `json:"sessionId"`
	AdminID     string `json:"adminId,omitempty"`
	VoterID     string `json:"voterId,omitempty"`
	Username    string `json:"username,omitempty"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
	LoginMethod string `json:"loginMethod,omitempty"`
	Token       string `json:"token,omitempty"`
}

func marshalSession(s *domain.Session) ([]byte, error) {
	b := blob{
		SessionID:   s.SessionID,
		Username:    s.Username,
		Role:        string(s.Role),
		ExpiresAt:   s.ExpiresAt.UTC().Format(time.RFC3339),
		LoginMethod: string(s.IssuedVia),
		Token:       s.Token,
	}
	if s.Role == domain.RoleVoter {
		b.VoterID = s.SubjectID
	} else {
		b.AdminID = s.SubjectID
	}
	return json.Marshal(b)
}

// unmarshalSession returns nil for unparsable content: a corrupt blob is
// treated as "no session", never as an error the caller must handle.
func unmarshalSession(raw []byte) *domain.Session {
	var b blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	expiresAt, err := time.Parse(time.RFC3339, b.ExpiresAt)
	if err != nil {
		return nil
	}
	subject := b.AdminID
	if subject == "" {
		subject = b.VoterID
	}
	return &domain.Session{
		SubjectID: subject,
		Username:  b.Username,
		Role:      domain.Role(b.Role),
		SessionID: b.SessionID,
		IssuedVia: domain.LoginMethod(b.LoginMethod),
		Token:     b.Token,
		ExpiresAt: expiresAt.UTC(),
	}
}
