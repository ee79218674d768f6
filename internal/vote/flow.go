package vote

import (
	"context"
	"errors"
	"sync"
	"time"

	"voteguard/gateway/internal/audit"
	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/clock"
	"voteguard/gateway/internal/session/domain"
)

// Outcome markers carried on the post-ballot redirect.
const (
	OutcomeVoteSuccess    = "vote_success"
	OutcomeSessionExpired = "session_expired"
	OutcomeAlreadyVoted   = "already_voted"
)

// Sentinel errors for the ballot flow.
var (
	ErrNoVoterSession      = errors.New("vote: no authenticated voter session")
	ErrNoActiveBallot      = errors.New("vote: no ballot in progress")
	ErrAlreadyVoted        = errors.New("vote: voter has already cast a ballot")
	ErrNoEligibleElections = errors.New("vote: voter has no eligible elections")
)

// API is the slice of the backend client the ballot flow needs.
type API interface {
	HasVoted(ctx context.Context, voterID string) (bool, error)
	EligibleElections(ctx context.Context, voterID string) ([]backend.Election, error)
	Candidates(ctx context.Context, electionID string) ([]backend.Candidate, error)
	CastVote(ctx context.Context, candidateID, voterID, electionID string) error
}

// SessionEnder is the slice of the session store the flow needs: the live
// identity and the one way out.
type SessionEnder interface {
	Current() *domain.Session
	Logout(ctx context.Context)
}

// Snapshot is the flow's externally visible state.
type Snapshot struct {
	State       State
	ElectionID  string
	CandidateID string
	Elections   []backend.Election
	SecondsLeft int
}

// Flow drives one voter's ballot at a time. It owns the ballot session timer
// (expiry forces logout) and the short post-cast countdown. Safe for
// concurrent use.
type Flow struct {
	api      API
	sessions SessionEnder
	clk      clock.Clock
	audit    audit.AuditLogger

	ballotTTL     time.Duration
	castCountdown time.Duration

	mu        sync.Mutex
	m         *Machine
	voterID   string
	elections []backend.Election
	deadline  time.Time
	outcome   string
	timer     clock.Ticker
	timerStop chan struct{}
}

// NewFlow returns a ballot flow. ballotTTL bounds the whole ballot session;
// castCountdown is the pause between a confirmed cast and the forced logout.
func NewFlow(api API, sessions SessionEnder, clk clock.Clock, auditLogger audit.AuditLogger, ballotTTL, castCountdown time.Duration) *Flow {
	return &Flow{
		api:           api,
		sessions:      sessions,
		clk:           clk,
		audit:         auditLogger,
		ballotTTL:     ballotTTL,
		castCountdown: castCountdown,
	}
}

// Begin opens a ballot for the authenticated voter. A voter who already cast
// is logged out immediately with the already-voted marker. Election selection
// is only entered when more than one election is eligible.
func (f *Flow) Begin(ctx context.Context) error {
	sess := f.sessions.Current()
	if sess == nil || sess.Role != domain.RoleVoter {
		return ErrNoVoterSession
	}
	voterID := sess.SubjectID

	voted, err := f.api.HasVoted(ctx, voterID)
	if err != nil {
		f.endForAuth(ctx, err)
		return err
	}
	if voted {
		f.mu.Lock()
		f.clearLocked()
		f.outcome = OutcomeAlreadyVoted
		f.mu.Unlock()
		f.sessions.Logout(ctx)
		return ErrAlreadyVoted
	}

	elections, err := f.api.EligibleElections(ctx, voterID)
	if err != nil {
		f.endForAuth(ctx, err)
		return err
	}
	if len(elections) == 0 {
		return ErrNoEligibleElections
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.voterID = voterID
	f.elections = elections
	f.outcome = ""
	if len(elections) > 1 {
		f.m = NewMachine("", true)
	} else {
		f.m = NewMachine(elections[0].ID, false)
	}
	f.deadline = f.clk.Now().Add(f.ballotTTL)
	f.armTimerLocked(f.ballotTTL, f.expire)
	return nil
}

// SelectElection fixes the ballot's election.
func (f *Flow) SelectElection(electionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		return ErrNoActiveBallot
	}
	return f.m.SelectElection(electionID)
}

// SelectCandidate records the voter's choice.
func (f *Flow) SelectCandidate(candidateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		return ErrNoActiveBallot
	}
	return f.m.SelectCandidate(candidateID)
}

// Cancel abandons the confirmation step.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		return ErrNoActiveBallot
	}
	return f.m.Cancel()
}

// Retry returns a failed ballot to candidate selection.
func (f *Flow) Retry() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		return ErrNoActiveBallot
	}
	return f.m.Retry()
}

// Confirm casts the ballot. Exactly one cast request is issued per attempt;
// a confirm that lands while the request is in flight is absorbed. On success
// the ballot timer stops immediately and the post-cast countdown begins; the
// session ends when it fires. A cast the backend reports as duplicate ends
// the session with the already-voted marker; a rejected session token ends it
// with the session-expired marker.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.m == nil {
		f.mu.Unlock()
		return ErrNoActiveBallot
	}
	cast, err := f.m.Confirm()
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if !cast {
		f.mu.Unlock()
		return nil
	}
	candidateID := f.m.CandidateID()
	electionID := f.m.ElectionID()
	voterID := f.voterID
	f.mu.Unlock()

	castErr := f.api.CastVote(ctx, candidateID, voterID, electionID)

	f.mu.Lock()
	if f.m == nil {
		// The ballot timer expired during the request; the session is gone.
		f.mu.Unlock()
		return castErr
	}
	if castErr != nil {
		if backend.IsAlreadyVoted(castErr) {
			f.clearLocked()
			f.outcome = OutcomeAlreadyVoted
			f.mu.Unlock()
			f.sessions.Logout(ctx)
			return castErr
		}
		if backend.IsAuth(castErr) {
			f.clearLocked()
			f.outcome = OutcomeSessionExpired
			f.mu.Unlock()
			f.sessions.Logout(ctx)
			return castErr
		}
		f.m.CastFailed()
		f.mu.Unlock()
		return castErr
	}

	f.m.CastSucceeded()
	f.outcome = OutcomeVoteSuccess
	f.deadline = f.clk.Now().Add(f.castCountdown)
	f.armTimerLocked(f.castCountdown, f.completeLogout)
	f.mu.Unlock()

	f.audit.LogEvent(ctx, voterID, audit.ActionVoteCast, "election:"+electionID, "")
	return nil
}

// Candidates lists the candidates for the ballot's election.
func (f *Flow) Candidates(ctx context.Context) ([]backend.Candidate, error) {
	f.mu.Lock()
	if f.m == nil {
		f.mu.Unlock()
		return nil, ErrNoActiveBallot
	}
	electionID := f.m.ElectionID()
	f.mu.Unlock()
	candidates, err := f.api.Candidates(ctx, electionID)
	if err != nil {
		f.endForAuth(ctx, err)
		return nil, err
	}
	return candidates, nil
}

// Snapshot returns the flow's current state, or nil when no ballot is open.
func (f *Flow) Snapshot() *Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		return nil
	}
	left := int(f.deadline.Sub(f.clk.Now()) / time.Second)
	if left < 0 {
		left = 0
	}
	elections := make([]backend.Election, len(f.elections))
	copy(elections, f.elections)
	return &Snapshot{
		State:       f.m.State(),
		ElectionID:  f.m.ElectionID(),
		CandidateID: f.m.CandidateID(),
		Elections:   elections,
		SecondsLeft: left,
	}
}

// Outcome returns the marker for the most recently ended ballot.
func (f *Flow) Outcome() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome
}

// Abandon drops any ballot in progress without casting, such as when the
// voter logs out through another path.
func (f *Flow) Abandon() {
	f.mu.Lock()
	f.clearLocked()
	f.mu.Unlock()
}

// Close stops any running timer for shutdown.
func (f *Flow) Close() {
	f.Abandon()
}

// expire fires when the ballot session timer elapses: the ballot is dropped
// and the voter is logged out with the session-expired marker. A ballot that
// already reached Cast keeps its success countdown instead.
func (f *Flow) expire() {
	f.mu.Lock()
	if f.m == nil || f.m.State() == StateCast {
		f.mu.Unlock()
		return
	}
	f.clearLocked()
	f.outcome = OutcomeSessionExpired
	f.mu.Unlock()
	f.sessions.Logout(context.Background())
}

// endForAuth ends the session when the collaborator rejected its token: the
// ballot is dropped and the voter is logged out with the session-expired
// marker. Reports whether err was an auth rejection.
func (f *Flow) endForAuth(ctx context.Context, err error) bool {
	if !backend.IsAuth(err) {
		return false
	}
	f.mu.Lock()
	f.clearLocked()
	f.outcome = OutcomeSessionExpired
	f.mu.Unlock()
	f.sessions.Logout(ctx)
	return true
}

// completeLogout fires when the post-cast countdown elapses.
func (f *Flow) completeLogout() {
	f.mu.Lock()
	f.clearLocked()
	f.mu.Unlock()
	f.sessions.Logout(context.Background())
}

// clearLocked drops the ballot and stops any timer. Caller holds mu.
func (f *Flow) clearLocked() {
	f.m = nil
	f.voterID = ""
	f.elections = nil
	f.deadline = time.Time{}
	f.stopTimerLocked()
}

// armTimerLocked replaces the running timer with a single-shot fire after d.
// Caller holds mu.
func (f *Flow) armTimerLocked(d time.Duration, fire func()) {
	f.stopTimerLocked()
	ticker := f.clk.NewTicker(d)
	stop := make(chan struct{})
	f.timer = ticker
	f.timerStop = stop
	go func() {
		select {
		case <-ticker.C():
			fire()
		case <-stop:
		}
	}()
}

// stopTimerLocked stops the running timer if any. Caller holds mu.
func (f *Flow) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.timerStop != nil {
		close(f.timerStop)
		f.timerStop = nil
	}
}
