// Package handler exposes voter login and the ballot flow over HTTP. Voter
// paths are scoped by the URL-safe election token minted at center activation.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/electioncode"
	"voteguard/gateway/internal/httpx"
	"voteguard/gateway/internal/security"
	"voteguard/gateway/internal/session/domain"
	sessionsvc "voteguard/gateway/internal/session/service"
	"voteguard/gateway/internal/vote"
)

// maxFingerprintBytes bounds the uploaded fingerprint sample.
const maxFingerprintBytes = 5 << 20

// API is the slice of the backend client the voter handler needs.
type API interface {
	VoterLogin(ctx context.Context, voterID, extraField string, fingerprint []byte, electionCode string) (*backend.VoterSession, error)
}

// HTTP serves voter login and the ballot endpoints.
type HTTP struct {
	api   API
	store *sessionsvc.Store
	flow  *vote.Flow
}

// NewHTTP returns the voter handler.
func NewHTTP(api API, store *sessionsvc.Store, flow *vote.Flow) *HTTP {
	return &HTTP{api: api, store: store, flow: flow}
}

// Register mounts the handler's routes.
func (h *HTTP) Register(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/{encodedElectionCode}/login", h.login)
	r.Get("/ballot", h.ballot)
	r.Get("/{encodedElectionCode}/ballot", h.ballot)
	r.Get("/ballot/candidates", h.candidates)
	r.Post("/ballot/select-election", h.selectElection)
	r.Post("/ballot/select", h.selectCandidate)
	r.Post("/ballot/confirm", h.confirm)
	r.Post("/ballot/cancel", h.cancel)
	r.Post("/ballot/retry", h.retry)
}

// login authenticates a voter (multipart) and opens the ballot. A login path
// scoped by an election token that does not decode is unknown territory.
func (h *HTTP) login(w http.ResponseWriter, r *http.Request) {
	electionCode, ok := h.pathElectionCode(r)
	if !ok {
		httpx.RespondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown election token"})
		return
	}

	if err := r.ParseMultipartForm(maxFingerprintBytes); err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "expected multipart form"})
		return
	}
	voterID := r.FormValue("voterId")
	if voterID == "" {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "voterId is required"})
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

	wire, err := h.api.VoterLogin(r.Context(), voterID, r.FormValue("extraField"), fingerprint, electionCode)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	claims, err := security.ClaimsFromToken(wire.Token)
	if err != nil {
		httpx.RespondJSON(w, http.StatusBadGateway, map[string]string{"error": "login response carried an unusable token"})
		return
	}
	role := domain.Role(wire.Role)
	if role == "" {
		role = domain.Role(claims.Role)
	}
	if role == "" {
		role = domain.RoleVoter
	}

	sess := &domain.Session{
		SubjectID: claims.Subject,
		Role:      role,
		IssuedVia: domain.LoginBiometric,
		Token:     wire.Token,
		ExpiresAt: claims.ExpiresAt,
	}
	if err := h.store.Login(r.Context(), sess); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.flow.Begin(r.Context()); err != nil {
		if errors.Is(err, vote.ErrAlreadyVoted) {
			httpx.RespondJSON(w, http.StatusConflict, outcomeView(vote.OutcomeAlreadyVoted))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snapshotView(h.flow.Snapshot()))
}

// ballot reports the flow's current state, or the closing outcome once the
// ballot has ended.
func (h *HTTP) ballot(w http.ResponseWriter, r *http.Request) {
	if snap := h.flow.Snapshot(); snap != nil {
		httpx.RespondJSON(w, http.StatusOK, snapshotView(snap))
		return
	}
	httpx.RespondJSON(w, http.StatusOK, outcomeView(h.flow.Outcome()))
}

func (h *HTTP) candidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.flow.Candidates(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

func (h *HTTP) selectElection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElectionID string `json:"electionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if err := h.flow.SelectElection(req.ElectionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snapshotView(h.flow.Snapshot()))
}

func (h *HTTP) selectCandidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID string `json:"candidateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if err := h.flow.SelectCandidate(req.CandidateID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snapshotView(h.flow.Snapshot()))
}

func (h *HTTP) confirm(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Confirm(r.Context()); err != nil {
		if errors.Is(err, vote.ErrAlreadyVoted) || backend.IsAlreadyVoted(err) {
			httpx.RespondJSON(w, http.StatusConflict, outcomeView(vote.OutcomeAlreadyVoted))
			return
		}
		httpx.RespondError(w, err)
		return
	}
	if snap := h.flow.Snapshot(); snap != nil {
		view := snapshotView(snap)
		if snap.State == vote.StateCast {
			view["outcome"] = vote.OutcomeVoteSuccess
			view["redirect"] = "/login?" + vote.OutcomeVoteSuccess
		}
		httpx.RespondJSON(w, http.StatusOK, view)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, outcomeView(h.flow.Outcome()))
}

func (h *HTTP) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Cancel(); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snapshotView(h.flow.Snapshot()))
}

func (h *HTTP) retry(w http.ResponseWriter, r *http.Request) {
	if err := h.flow.Retry(); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, snapshotView(h.flow.Snapshot()))
}

// pathElectionCode decodes the election token from the URL, when present.
// The second return is false only when a token is present but does not decode.
func (h *HTTP) pathElectionCode(r *http.Request) (string, bool) {
	token := chi.URLParam(r, "encodedElectionCode")
	if token == "" {
		return "", true
	}
	code := electioncode.Decode(token)
	if code == "" {
		return "", false
	}
	return code, true
}

func snapshotView(s *vote.Snapshot) map[string]interface{} {
	if s == nil {
		return map[string]interface{}{"active": false}
	}
	view := map[string]interface{}{
		"active":      true,
		"state":       string(s.State),
		"secondsLeft": s.SecondsLeft,
	}
	if s.ElectionID != "" {
		view["electionId"] = s.ElectionID
	}
	if s.CandidateID != "" {
		view["candidateId"] = s.CandidateID
	}
	if len(s.Elections) > 0 {
		view["elections"] = s.Elections
	}
	return view
}

func outcomeView(outcome string) map[string]interface{} {
	view := map[string]interface{}{"active": false}
	if outcome != "" {
		view["outcome"] = outcome
		view["redirect"] = "/login?" + outcome
	}
	return view
}
