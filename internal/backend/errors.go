package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a collaborator failure. Services branch on it: auth errors
// propagate to the session store (the single logout point), network errors are
// surfaced to the caller's UI without mutating protocol state, protocol
// violations terminate the current flow.
type Kind int

const (
	// KindValidation is a client-side field/format failure; never sent.
	KindValidation Kind = iota
	// KindAuth is a 401/403 from an authenticated call.
	KindAuth
	// KindExpiry is a session or OTP reported past its expiry.
	KindExpiry
	// KindNetwork is a timeout or unreachable collaborator.
	KindNetwork
	// KindProtocol is a fatal state violation (e.g. voter has already voted).
	KindProtocol
	// KindServer is any other server-side rejection; message is verbatim.
	KindServer
)

// Error is a classified collaborator error. Message carries the server's
// rejection reason verbatim when one was given.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend: unexpected status %d", e.Status)
	}
	return "backend: request failed"
}

func kindOf(err error) (Kind, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

// IsAuth reports whether err is a 401/403 collaborator rejection.
func IsAuth(err error) bool { k, ok := kindOf(err); return ok && k == KindAuth }

// IsNetwork reports whether err is a timeout or connection failure.
func IsNetwork(err error) bool { k, ok := kindOf(err); return ok && k == KindNetwork }

// IsProtocol reports whether err is a fatal protocol violation.
func IsProtocol(err error) bool { k, ok := kindOf(err); return ok && k == KindProtocol }

// IsAlreadyVoted reports whether err is the already-voted rejection, which the
// vote flow must treat as an immediate terminal transition.
func IsAlreadyVoted(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	m := strings.ToLower(be.Message)
	return strings.Contains(m, "already voted") || strings.Contains(m, "already cast")
}

// classifyLoginMessage refines a voter-login rejection into the kinds the login
// screen distinguishes. The collaborator reports all of them as 400s with a
// message, so the message text is the only discriminator.
func classifyLoginMessage(status int, msg string) *Error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "already voted") || strings.Contains(lower, "already cast") ||
		strings.Contains(lower, "inactive") {
		return &Error{Kind: KindProtocol, Status: status, Message: msg}
	}
	return &Error{Kind: KindServer, Status: status, Message: msg}
}
