// Package vote implements the terminal's vote-casting flow: a strict state
// machine over the voter's ballot and the runner that binds it to the backend,
// the session store, and the ballot timers.
package vote

import (
	"errors"
	"fmt"
)

// State is a phase of the vote-casting flow.
type State string

const (
	StateSelectingElection  State = "SELECTING_ELECTION"
	StateSelectingCandidate State = "SELECTING_CANDIDATE"
	StateConfirming         State = "CONFIRMING_VOTE"
	StateCasting            State = "CASTING"
	StateCast               State = "CAST"
	StateFailed             State = "FAILED"
)

// Sentinel errors for flow transitions.
var (
	ErrInvalidTransition = errors.New("vote: invalid transition")
	ErrBallotClosed      = errors.New("vote: ballot already cast")
)

// Machine is the pure vote-casting state machine. It holds no timers and
// performs no I/O; the runner interprets its answers. Not safe for concurrent
// use on its own.
type Machine struct {
	state       State
	electionID  string
	candidateID string
}

// NewMachine returns a machine at the flow's entry state. Election selection
// is only offered when the voter is eligible for more than one election;
// otherwise electionID is fixed up front.
func NewMachine(electionID string, multipleElections bool) *Machine {
	if multipleElections {
		return &Machine{state: StateSelectingElection}
	}
	return &Machine{state: StateSelectingCandidate, electionID: electionID}
}

// State returns the current phase.
func (m *Machine) State() State { return m.state }

// ElectionID returns the chosen election, if any.
func (m *Machine) ElectionID() string { return m.electionID }

// CandidateID returns the chosen candidate, if any.
func (m *Machine) CandidateID() string { return m.candidateID }

// SelectElection fixes the election and moves to candidate selection.
func (m *Machine) SelectElection(electionID string) error {
	if err := m.require(StateSelectingElection); err != nil {
		return err
	}
	if electionID == "" {
		return errors.New("vote: election id is required")
	}
	m.electionID = electionID
	m.state = StateSelectingCandidate
	return nil
}

// SelectCandidate records the choice and moves to confirmation. Reselecting
// while already confirming replaces the choice.
func (m *Machine) SelectCandidate(candidateID string) error {
	if err := m.require(StateSelectingCandidate, StateConfirming); err != nil {
		return err
	}
	if candidateID == "" {
		return errors.New("vote: candidate id is required")
	}
	m.candidateID = candidateID
	m.state = StateConfirming
	return nil
}

// Confirm moves the flow into Casting. The cast result is true exactly once
// per casting attempt: a confirm that arrives while the cast request is
// already in flight is absorbed without issuing a second request.
func (m *Machine) Confirm() (cast bool, err error) {
	if m.state == StateCasting {
		return false, nil
	}
	if err := m.require(StateConfirming); err != nil {
		return false, err
	}
	m.state = StateCasting
	return true, nil
}

// Cancel abandons the confirmation and returns to candidate selection. The
// choice is kept so the voter can reconfirm or pick another candidate.
func (m *Machine) Cancel() error {
	if err := m.require(StateConfirming); err != nil {
		return err
	}
	m.state = StateSelectingCandidate
	return nil
}

// CastSucceeded finishes the flow. Cast is terminal.
func (m *Machine) CastSucceeded() error {
	if err := m.require(StateCasting); err != nil {
		return err
	}
	m.state = StateCast
	return nil
}

// CastFailed records a failed cast attempt.
func (m *Machine) CastFailed() error {
	if err := m.require(StateCasting); err != nil {
		return err
	}
	m.state = StateFailed
	return nil
}

// Retry returns a failed flow to candidate selection for another attempt.
func (m *Machine) Retry() error {
	if err := m.require(StateFailed); err != nil {
		return err
	}
	m.state = StateSelectingCandidate
	return nil
}

func (m *Machine) require(allowed ...State) error {
	if m.state == StateCast {
		return ErrBallotClosed
	}
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: in %s", ErrInvalidTransition, m.state)
}
