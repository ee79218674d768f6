// Package handler exposes OTP generation and the live countdown over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/httpx"
	"voteguard/gateway/internal/otp"
)

// SessionEnder is the slice of the session store this handler needs: auth
// rejections from the collaborator force a logout through it.
type SessionEnder interface {
	Logout(ctx context.Context)
}

// HTTP serves the per-election OTP endpoints.
type HTTP struct {
	manager  *otp.Manager
	sessions SessionEnder
}

// NewHTTP returns the OTP handler.
func NewHTTP(manager *otp.Manager, sessions SessionEnder) *HTTP {
	return &HTTP{manager: manager, sessions: sessions}
}

// Register mounts the handler's routes. The router guards them with the admin
// role requirement.
func (h *HTTP) Register(r chi.Router) {
	r.Post("/elections/{electionID}/otp", h.generate)
	r.Get("/elections/{electionID}/otp", h.current)
}

func (h *HTTP) generate(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")
	grant, err := h.manager.Generate(r.Context(), electionID)
	if err != nil {
		if backend.IsAuth(err) {
			h.sessions.Logout(r.Context())
		}
		httpx.RespondError(w, err)
		return
	}
	left, _ := h.manager.TimeLeft(electionID)
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"otp":         grant.Code,
		"expiresAt":   grant.ExpiresAt,
		"secondsLeft": left,
	})
}

func (h *HTTP) current(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")
	grant, ok := h.manager.Current(electionID)
	left, live := h.manager.TimeLeft(electionID)
	if !ok || !live {
		httpx.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "no active OTP for this election"})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"otp":         grant.Code,
		"expiresAt":   grant.ExpiresAt,
		"secondsLeft": left,
	})
}
