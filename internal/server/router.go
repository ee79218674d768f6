// Package server assembles the gateway's HTTP surface: public voter paths,
// admin paths behind the role guard, and the liveness probe.
package server

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"voteguard/gateway/internal/backend"
	centerhandler "voteguard/gateway/internal/center/handler"
	centersvc "voteguard/gateway/internal/center/service"
	healthhandler "voteguard/gateway/internal/health/handler"
	"voteguard/gateway/internal/httpx"
	"voteguard/gateway/internal/otp"
	otphandler "voteguard/gateway/internal/otp/handler"
	"voteguard/gateway/internal/policy/engine"
	"voteguard/gateway/internal/session/domain"
	sessionhandler "voteguard/gateway/internal/session/handler"
	sessionsvc "voteguard/gateway/internal/session/service"
	"voteguard/gateway/internal/vote"
	votehandler "voteguard/gateway/internal/vote/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Backend  *backend.Client
	Sessions *sessionsvc.Store
	Center   *centersvc.Service
	OTP      *otp.Manager
	Flow     *vote.Flow
	Policy   engine.Evaluator
	DB       *sql.DB
}

// NewRouter builds the gateway's router. Traces and metrics flow through
// otelhttp using the globally registered providers.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	healthhandler.NewHTTP(deps.Policy, deps.DB).Register(r)
	sessionhandler.NewHTTP(deps.Backend, deps.Sessions).Register(r)
	votehandler.NewHTTP(deps.Backend, deps.Sessions, deps.Flow).Register(r)

	r.Group(func(admin chi.Router) {
		admin.Use(requireRole(deps.Sessions, domain.RoleAdmin))
		centerhandler.NewHTTP(deps.Center, deps.Sessions).Register(admin)
		otphandler.NewHTTP(deps.OTP, deps.Sessions).Register(admin)
	})

	return otelhttp.NewHandler(r, "voteguard-gateway")
}

// requireRole gates a subtree on the terminal's live session meeting the
// required role per the access policy.
func requireRole(sessions *sessionsvc.Store, required domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.IsAuthenticated() {
				httpx.RespondJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
				return
			}
			if !sessions.HasRole(r.Context(), required) {
				httpx.RespondJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient role"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
