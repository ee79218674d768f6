package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"voteguard/gateway/internal/audit"
	"voteguard/gateway/internal/backend"
	"voteguard/gateway/internal/clock"
	"voteguard/gateway/internal/session/domain"
)

type fakeAPI struct {
	mu            sync.Mutex
	hasVoted      bool
	elections     []backend.Election
	candidates    []backend.Candidate
	candidatesErr error
	castErr       error
	castCalls     []string
}

func (f *fakeAPI) HasVoted(ctx context.Context, voterID string) (bool, error) {
	return f.hasVoted, nil
}

func (f *fakeAPI) EligibleElections(ctx context.Context, voterID string) ([]backend.Election, error) {
	return f.elections, nil
}

func (f *fakeAPI) Candidates(ctx context.Context, electionID string) ([]backend.Candidate, error) {
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}
	return f.candidates, nil
}

func (f *fakeAPI) CastVote(ctx context.Context, candidateID, voterID, electionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.castCalls = append(f.castCalls, fmt.Sprintf("%s/%s/%s", candidateID, voterID, electionID))
	return f.castErr
}

func (f *fakeAPI) casts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.castCalls))
	copy(out, f.castCalls)
	return out
}

type fakeSessions struct {
	mu      sync.Mutex
	cur     *domain.Session
	logouts int
}

func (f *fakeSessions) Current() *domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cur == nil {
		return nil
	}
	copied := *f.cur
	return &copied
}

func (f *fakeSessions) Logout(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur = nil
	f.logouts++
}

func (f *fakeSessions) loggedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur == nil
}

func voterSession(now time.Time) *domain.Session {
	return &domain.Session{
		SubjectID: "VOT001",
		Role:      domain.RoleVoter,
		Token:     "tok",
		ExpiresAt: now.Add(time.Hour),
	}
}

func newTestFlow(t *testing.T, api *fakeAPI) (*Flow, *fakeSessions, *clock.Fake) {
	t.Helper()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	sessions := &fakeSessions{cur: voterSession(now)}
	clk := clock.NewFake(now)
	f := NewFlow(api, sessions, clk, audit.NewLogger(nil, "terminal-1"), 120*time.Second, 5*time.Second)
	t.Cleanup(f.Close)
	return f, sessions, clk
}

func oneElection() []backend.Election {
	return []backend.Election{{ID: "e1", Name: "General"}}
}

func TestBeginSingleElectionSkipsSelection(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, _, _ := newTestFlow(t, api)

	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	snap := f.Snapshot()
	if snap == nil || snap.State != StateSelectingCandidate || snap.ElectionID != "e1" {
		t.Fatalf("Snapshot = %+v, want candidate selection for e1", snap)
	}
	if snap.SecondsLeft != 120 {
		t.Fatalf("SecondsLeft = %d, want 120", snap.SecondsLeft)
	}
}

func TestBeginMultipleElectionsOffersSelection(t *testing.T) {
	api := &fakeAPI{elections: []backend.Election{{ID: "e1"}, {ID: "e2"}}}
	f, _, _ := newTestFlow(t, api)

	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	snap := f.Snapshot()
	if snap.State != StateSelectingElection {
		t.Fatalf("State = %s, want %s", snap.State, StateSelectingElection)
	}
	if len(snap.Elections) != 2 {
		t.Fatalf("Elections = %d, want 2", len(snap.Elections))
	}
	if err := f.SelectElection("e2"); err != nil {
		t.Fatalf("SelectElection: %v", err)
	}
	if got := f.Snapshot().ElectionID; got != "e2" {
		t.Fatalf("ElectionID = %q, want e2", got)
	}
}

func TestBeginAlreadyVotedForcesLogout(t *testing.T) {
	api := &fakeAPI{hasVoted: true, elections: oneElection()}
	f, sessions, _ := newTestFlow(t, api)

	if err := f.Begin(context.Background()); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("Begin = %v, want ErrAlreadyVoted", err)
	}
	if !sessions.loggedOut() {
		t.Fatal("already-voted entry must log the voter out")
	}
	if f.Outcome() != OutcomeAlreadyVoted {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeAlreadyVoted)
	}
}

func TestBeginWithoutVoterSession(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, sessions, _ := newTestFlow(t, api)
	sessions.Logout(context.Background())

	if err := f.Begin(context.Background()); !errors.Is(err, ErrNoVoterSession) {
		t.Fatalf("Begin = %v, want ErrNoVoterSession", err)
	}
}

func TestBeginNoEligibleElections(t *testing.T) {
	api := &fakeAPI{}
	f, _, _ := newTestFlow(t, api)

	if err := f.Begin(context.Background()); !errors.Is(err, ErrNoEligibleElections) {
		t.Fatalf("Begin = %v, want ErrNoEligibleElections", err)
	}
}

func TestConfirmCastsExactlyOnce(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}

	if err := f.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	casts := api.casts()
	if len(casts) != 1 || casts[0] != "c1/VOT001/e1" {
		t.Fatalf("cast requests = %v, want one for c1/VOT001/e1", casts)
	}
	if f.Snapshot().State != StateCast {
		t.Fatalf("State = %s, want %s", f.Snapshot().State, StateCast)
	}
	if f.Outcome() != OutcomeVoteSuccess {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeVoteSuccess)
	}
	if sessions.loggedOut() {
		t.Fatal("logout must wait for the post-cast countdown")
	}

	if err := f.Confirm(context.Background()); !errors.Is(err, ErrBallotClosed) {
		t.Fatalf("Confirm after cast = %v, want ErrBallotClosed", err)
	}
	if len(api.casts()) != 1 {
		t.Fatal("a closed ballot must never cast again")
	}

	f.completeLogout()
	if !sessions.loggedOut() {
		t.Fatal("countdown must end the voter session")
	}
	if f.Snapshot() != nil {
		t.Fatal("ballot must be gone after the countdown")
	}
}

func TestCastFailureAllowsRetry(t *testing.T) {
	api := &fakeAPI{elections: oneElection(), castErr: &backend.Error{Kind: backend.KindNetwork, Message: "backend unreachable"}}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}

	if err := f.Confirm(context.Background()); err == nil {
		t.Fatal("expected cast failure")
	}
	if f.Snapshot().State != StateFailed {
		t.Fatalf("State = %s, want %s", f.Snapshot().State, StateFailed)
	}
	if sessions.loggedOut() {
		t.Fatal("a failed cast must keep the session for a retry")
	}

	api.castErr = nil
	if err := f.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if err := f.SelectCandidate("c2"); err != nil {
		t.Fatalf("SelectCandidate after retry: %v", err)
	}
	if err := f.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm after retry: %v", err)
	}
	if got := api.casts(); len(got) != 2 || got[1] != "c2/VOT001/e1" {
		t.Fatalf("cast requests = %v", got)
	}
}

func TestDuplicateCastEndsSession(t *testing.T) {
	api := &fakeAPI{elections: oneElection(), castErr: &backend.Error{Kind: backend.KindProtocol, Message: "Voter has already voted"}}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}

	if err := f.Confirm(context.Background()); err == nil {
		t.Fatal("expected duplicate-cast error")
	}
	if !sessions.loggedOut() {
		t.Fatal("duplicate cast must end the session")
	}
	if f.Outcome() != OutcomeAlreadyVoted {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeAlreadyVoted)
	}
}

func TestBallotTimerExpiryForcesLogout(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, sessions, clk := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	clk.Advance(120 * time.Second)

	f.expire()

	if !sessions.loggedOut() {
		t.Fatal("ballot expiry must log the voter out")
	}
	if f.Outcome() != OutcomeSessionExpired {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeSessionExpired)
	}
	if f.Snapshot() != nil {
		t.Fatal("expired ballot must be dropped")
	}
}

func TestExpiryAfterCastIsIgnored(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	if err := f.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	f.expire()

	if f.Outcome() != OutcomeVoteSuccess {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeVoteSuccess)
	}
	if sessions.loggedOut() {
		t.Fatal("a cast ballot keeps its countdown; expiry must not cut it short")
	}
}

func TestAuthRejectedCastEndsSession(t *testing.T) {
	api := &fakeAPI{elections: oneElection(), castErr: &backend.Error{Kind: backend.KindAuth, Status: 401}}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}

	if err := f.Confirm(context.Background()); err == nil {
		t.Fatal("expected auth rejection")
	}
	if !sessions.loggedOut() {
		t.Fatal("a rejected session token must log the voter out")
	}
	if f.Outcome() != OutcomeSessionExpired {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeSessionExpired)
	}
	if f.Snapshot() != nil {
		t.Fatal("ballot must be dropped after an auth rejection")
	}
}

func TestAuthRejectedCandidatesEndsSession(t *testing.T) {
	api := &fakeAPI{elections: oneElection(), candidatesErr: &backend.Error{Kind: backend.KindAuth, Status: 401}}
	f, sessions, _ := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if _, err := f.Candidates(context.Background()); err == nil {
		t.Fatal("expected auth rejection")
	}
	if !sessions.loggedOut() {
		t.Fatal("a rejected session token must log the voter out")
	}
	if f.Outcome() != OutcomeSessionExpired {
		t.Fatalf("Outcome = %q, want %q", f.Outcome(), OutcomeSessionExpired)
	}
}

func TestSnapshotShowsCastCountdown(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, _, clk := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := f.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}

	clk.Advance(10 * time.Second)
	if err := f.Confirm(context.Background()); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := f.Snapshot().SecondsLeft; got != 5 {
		t.Fatalf("SecondsLeft after cast = %d, want the post-cast countdown of 5", got)
	}
	clk.Advance(3 * time.Second)
	if got := f.Snapshot().SecondsLeft; got != 2 {
		t.Fatalf("SecondsLeft = %d, want 2", got)
	}
}

func TestSnapshotCountsDown(t *testing.T) {
	api := &fakeAPI{elections: oneElection()}
	f, _, clk := newTestFlow(t, api)
	if err := f.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	clk.Advance(30 * time.Second)
	if got := f.Snapshot().SecondsLeft; got != 90 {
		t.Fatalf("SecondsLeft = %d, want 90", got)
	}
}
