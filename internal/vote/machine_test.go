package vote

import (
	"errors"
	"testing"
)

func TestSingleElectionSkipsElectionSelection(t *testing.T) {
	m := NewMachine("e1", false)
	if m.State() != StateSelectingCandidate {
		t.Fatalf("state = %s, want %s", m.State(), StateSelectingCandidate)
	}
	if m.ElectionID() != "e1" {
		t.Fatalf("ElectionID = %q, want e1", m.ElectionID())
	}
}

func TestMultipleElectionsStartWithSelection(t *testing.T) {
	m := NewMachine("", true)
	if m.State() != StateSelectingElection {
		t.Fatalf("state = %s, want %s", m.State(), StateSelectingElection)
	}
	if err := m.SelectCandidate("c1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("SelectCandidate before election = %v, want ErrInvalidTransition", err)
	}
	if err := m.SelectElection("e2"); err != nil {
		t.Fatalf("SelectElection: %v", err)
	}
	if m.State() != StateSelectingCandidate || m.ElectionID() != "e2" {
		t.Fatalf("after SelectElection: state=%s election=%q", m.State(), m.ElectionID())
	}
}

func TestHappyPathToCast(t *testing.T) {
	m := NewMachine("e1", false)
	if err := m.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	cast, err := m.Confirm()
	if err != nil || !cast {
		t.Fatalf("Confirm = (%v, %v), want (true, nil)", cast, err)
	}
	if m.State() != StateCasting {
		t.Fatalf("state = %s, want %s", m.State(), StateCasting)
	}
	if err := m.CastSucceeded(); err != nil {
		t.Fatalf("CastSucceeded: %v", err)
	}
	if m.State() != StateCast {
		t.Fatalf("state = %s, want %s", m.State(), StateCast)
	}
}

func TestConfirmWhileCastingIsAbsorbed(t *testing.T) {
	m := NewMachine("e1", false)
	if err := m.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	if cast, _ := m.Confirm(); !cast {
		t.Fatal("first Confirm must request a cast")
	}
	cast, err := m.Confirm()
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if cast {
		t.Fatal("a confirm while casting must not issue a second cast request")
	}
}

func TestCancelReturnsToCandidateSelection(t *testing.T) {
	m := NewMachine("e1", false)
	if err := m.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if m.State() != StateSelectingCandidate {
		t.Fatalf("state = %s, want %s", m.State(), StateSelectingCandidate)
	}
	if err := m.SelectCandidate("c2"); err != nil {
		t.Fatalf("reselect after cancel: %v", err)
	}
	if m.CandidateID() != "c2" {
		t.Fatalf("CandidateID = %q, want c2", m.CandidateID())
	}
}

func TestFailedCastAllowsRetry(t *testing.T) {
	m := NewMachine("e1", false)
	if err := m.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	if _, err := m.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := m.CastFailed(); err != nil {
		t.Fatalf("CastFailed: %v", err)
	}
	if err := m.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if m.State() != StateSelectingCandidate {
		t.Fatalf("state after retry = %s, want %s", m.State(), StateSelectingCandidate)
	}
}

func TestCastIsTerminal(t *testing.T) {
	m := NewMachine("e1", false)
	if err := m.SelectCandidate("c1"); err != nil {
		t.Fatalf("SelectCandidate: %v", err)
	}
	if _, err := m.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := m.CastSucceeded(); err != nil {
		t.Fatalf("CastSucceeded: %v", err)
	}

	if err := m.SelectCandidate("c2"); !errors.Is(err, ErrBallotClosed) {
		t.Fatalf("SelectCandidate after cast = %v, want ErrBallotClosed", err)
	}
	if _, err := m.Confirm(); !errors.Is(err, ErrBallotClosed) {
		t.Fatalf("Confirm after cast = %v, want ErrBallotClosed", err)
	}
	if err := m.Retry(); !errors.Is(err, ErrBallotClosed) {
		t.Fatalf("Retry after cast = %v, want ErrBallotClosed", err)
	}
}

func TestOutOfOrderTransitionsRejected(t *testing.T) {
	m := NewMachine("e1", false)
	if _, err := m.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Confirm without a candidate = %v, want ErrInvalidTransition", err)
	}
	if err := m.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Cancel before confirming = %v, want ErrInvalidTransition", err)
	}
	if err := m.CastSucceeded(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("CastSucceeded outside casting = %v, want ErrInvalidTransition", err)
	}
	if err := m.Retry(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Retry outside failed = %v, want ErrInvalidTransition", err)
	}
}
