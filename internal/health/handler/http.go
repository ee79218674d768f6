// Package handler exposes the gateway's liveness probe.
package handler

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voteguard/gateway/internal/httpx"
	"voteguard/gateway/internal/policy/engine"
)

// HTTP serves /healthz. db may be nil for database-less terminals.
type HTTP struct {
	policy engine.Evaluator
	db     *sql.DB
}

// NewHTTP returns the health handler.
func NewHTTP(policy engine.Evaluator, db *sql.DB) *HTTP {
	return &HTTP{policy: policy, db: db}
}

// Register mounts the handler's routes.
func (h *HTTP) Register(r chi.Router) {
	r.Get("/healthz", h.healthz)
}

func (h *HTTP) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.HealthCheck(r.Context()); err != nil {
		httpx.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "policy engine unavailable"})
		return
	}
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			httpx.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
