package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"voteguard/gateway/internal/backend"
	centersvc "voteguard/gateway/internal/center/service"
	sessionsvc "voteguard/gateway/internal/session/service"
	"voteguard/gateway/internal/vote"
)

// RespondJSON writes v as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpx: encode response: %v", err)
	}
}

// RespondError maps an error to a status code and writes {"error": message}.
// Backend rejection reasons pass through verbatim.
func RespondError(w http.ResponseWriter, err error) {
	var be *backend.Error
	if errors.As(err, &be) {
		RespondJSON(w, statusForBackend(be), map[string]string{"error": be.Message})
		return
	}
	RespondJSON(w, statusForLocal(err), map[string]string{"error": err.Error()})
}

func statusForBackend(be *backend.Error) int {
	switch be.Kind {
	case backend.KindValidation:
		return http.StatusBadRequest
	case backend.KindAuth, backend.KindExpiry:
		return http.StatusUnauthorized
	case backend.KindProtocol:
		return http.StatusConflict
	case backend.KindNetwork:
		return http.StatusBadGateway
	default:
		if be.Status >= 400 {
			return be.Status
		}
		return http.StatusBadGateway
	}
}

func statusForLocal(err error) int {
	switch {
	case errors.Is(err, sessionsvc.ErrNoActiveSession),
		errors.Is(err, vote.ErrNoVoterSession):
		return http.StatusUnauthorized
	case errors.Is(err, vote.ErrAlreadyVoted),
		errors.Is(err, vote.ErrBallotClosed),
		errors.Is(err, vote.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, vote.ErrNoActiveBallot),
		errors.Is(err, vote.ErrNoEligibleElections),
		errors.Is(err, centersvc.ErrInvalidElectionCode),
		errors.Is(err, centersvc.ErrMissingOTP),
		errors.Is(err, centersvc.ErrMissingLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
