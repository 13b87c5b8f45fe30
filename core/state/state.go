// Package state defines the analysis job state machine.
package state

import "fmt"

// JobState represents the state of an analysis job.
type JobState int

const (
	// StatePending is the state between request validation and process spawn.
	StatePending JobState = iota
	// StateRunning indicates the analyzer process is alive.
	StateRunning
	// StateSucceeded indicates the analyzer exited with code 0.
	StateSucceeded
	// StateFailed indicates the analyzer exited non-zero or was killed.
	StateFailed
	// StateRejected indicates the analyzer could not be spawned.
	StateRejected
)

// String returns the string representation of the state.
func (s JobState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateRejected:
		return "Rejected"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// ParseJobState is the inverse of String for known states.
func ParseJobState(s string) (JobState, error) {
	for _, st := range []JobState{StatePending, StateRunning, StateSucceeded, StateFailed, StateRejected} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown job state %q", s)
}

// validTransitions defines the allowed state transitions.
var validTransitions = map[JobState][]JobState{
	StatePending:   {StateRunning, StateRejected},
	StateRunning:   {StateSucceeded, StateFailed},
	StateSucceeded: {},
	StateFailed:    {},
	StateRejected:  {},
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s JobState) CanTransitionTo(target JobState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s JobState) ValidTransitions() []JobState {
	return validTransitions[s]
}

// IsTerminal returns true once the job can no longer change.
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateRejected
}

// IsActive returns true while an analyzer process may be running.
func (s JobState) IsActive() bool {
	return s == StatePending || s == StateRunning
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From JobState
	To   JobState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid job state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to JobState) *TransitionError {
	return &TransitionError{From: from, To: to}
}
