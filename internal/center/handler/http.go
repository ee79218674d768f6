// Package handler exposes center activation over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/center/service"
	"voteguard/gateway/internal/httpx"
)

// SessionEnder is the slice of the session store this handler needs: auth
// rejections from the collaborator force a logout through it.
type SessionEnder interface {
	Logout(ctx context.Context)
}

// HTTP serves the center-setup endpoint.
type HTTP struct {
	svc      *service.Service
	sessions SessionEnder
}

// NewHTTP returns the center activation handler.
func NewHTTP(svc *service.Service, sessions SessionEnder) *HTTP {
	return &HTTP{svc: svc, sessions: sessions}
}

// Register mounts the handler's routes. The router guards them with the admin
// role requirement.
func (h *HTTP) Register(r chi.Router) {
	r.Post("/center-setup", h.setup)
	r.Get("/center-setup", h.current)
}

func (h *HTTP) setup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElectionCode   string `json:"electionCode"`
		OTP            string `json:"otp"`
		CenterLocation string `json:"centerLocation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	act, err := h.svc.Activate(r.Context(), req.ElectionCode, req.OTP, req.CenterLocation)
	if err != nil {
		if backend.IsAuth(err) {
			h.sessions.Logout(r.Context())
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"electionCode": act.ElectionCode,
		"encodedToken": act.EncodedToken,
		"loginPath":    "/" + act.EncodedToken + "/login",
	})
}

func (h *HTTP) current(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Binding(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if b == nil {
		httpx.RespondJSON(w, http.StatusOK, map[string]bool{"activated": false})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"activated":    true,
		"electionCode": b.ElectionCode,
		"encodedToken": b.EncodedToken,
		"location":     b.Location,
		"activatedAt":  b.ActivatedAt,
	})
}
