// Package handler exposes the admin session surface over HTTP: biometric and
// fallback login, logout, refresh, and the session status read.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/httpx"
	"voteguard/gateway/internal/security"
	"voteguard/gateway/internal/session/domain"
	sessionsvc "voteguard/gateway/internal/session/service"
)

// maxFingerprintBytes bounds the uploaded fingerprint sample.
const maxFingerprintBytes = 5 << 20

// API is the slice of the backend client the admin handler needs.
type API interface {
	AdminLogin(ctx context.Context, adminID string, fingerprint []byte) (*backend.AdminSession, error)
	AdminLoginFallback(ctx context.Context, adminID, fallbackCode string) (*backend.AdminSession, error)
}

// HTTP serves the admin session endpoints.
type HTTP struct {
	api   API
	store *sessionsvc.Store
}

// NewHTTP returns the admin session handler.
func NewHTTP(api API, store *sessionsvc.Store) *HTTP {
	return &HTTP{api: api, store: store}
}

// Register mounts the handler's routes.
func (h *HTTP) Register(r chi.Router) {
	r.Post("/admin/login", h.login)
	r.Post("/admin/login/fallback", h.loginFallback)
	r.Post("/admin/logout", h.logout)
	r.Post("/admin/session/refresh", h.refresh)
	r.Get("/session", h.status)
}

// login authenticates an admin with a fingerprint sample (multipart).
func (h *HTTP) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFingerprintBytes); err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form"})
		return
	}
	adminID := r.FormValue("adminId")
	if adminID == "" {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "adminId is required"})
		return
	}
	file, _, err := r.FormFile("fingerprint")
	if err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "fingerprint sample is required"})
		return
	}
	defer file.Close()
	fingerprint, err := io.ReadAll(io.LimitReader(file, maxFingerprintBytes))
	if err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "unable to read fingerprint sample"})
		return
	}

	wire, err := h.api.AdminLogin(r.Context(), adminID, fingerprint)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.activate(w, r, wire, domain.LoginBiometric)
}

// loginFallback authenticates an admin with a fallback code (JSON).
func (h *HTTP) loginFallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminID      string `json:"adminId"`
		FallbackCode string `json:"fallbackCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AdminID == "" || req.FallbackCode == "" {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "adminId and fallbackCode are required"})
		return
	}

	wire, err := h.api.AdminLoginFallback(r.Context(), req.AdminID, req.FallbackCode)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.activate(w, r, wire, domain.LoginFallback)
}

// activate turns a backend admin session into the terminal's local session.
// The wire expiry is parsed defensively; when unusable, the token's own exp
// claim is the fallback.
func (h *HTTP) activate(w http.ResponseWriter, r *http.Request, wire *backend.AdminSession, via domain.LoginMethod) {
	expiresAt, err := backend.ParseTimestamp(wire.ExpiresAt)
	if err != nil {
		claims, cerr := security.ClaimsFromToken(wire.Token)
		if cerr != nil {
			httpx.RespondJSON(w, http.StatusBadGateway, map[string]string{"error": "login response carried no usable expiry"})
			return
		}
		expiresAt = claims.ExpiresAt
	}

	role := domain.Role(wire.Role)
	if role == "" {
		if claims, cerr := security.ClaimsFromToken(wire.Token); cerr == nil && claims.Role != "" {
			role = domain.Role(claims.Role)
		}
	}

	sess := &domain.Session{
		SubjectID: wire.AdminID,
		Username:  wire.Username,
		Role:      role,
		SessionID: wire.SessionID,
		IssuedVia: via,
		Token:     wire.Token,
		ExpiresAt: expiresAt,
	}
	if err := h.store.Login(r.Context(), sess); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, sessionView(sess))
}

func (h *HTTP) logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(r.Context())
	httpx.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTP) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Refresh(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, sessionView(h.store.Current()))
}

func (h *HTTP) status(w http.ResponseWriter, r *http.Request) {
	cur := h.store.Current()
	if cur == nil || !h.store.IsAuthenticated() {
		httpx.RespondJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, sessionView(cur))
}

func sessionView(s *domain.Session) map[string]interface{} {
	return map[string]interface{}{
		"authenticated": true,
		"subjectId":     s.SubjectID,
		"username":      s.Username,
		"role":          string(s.Role),
		"loginMethod":   string(s.IssuedVia),
		"expiresAt":     s.ExpiresAt.Format(time.RFC3339),
	}
}
