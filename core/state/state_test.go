package state

import "testing"

func TestJobState_String(t *testing.T) {
	tests := []struct {
		state    JobState
		expected string
	}{
		{StatePending, "Pending"},
		{StateRunning, "Running"},
		{StateSucceeded, "Succeeded"},
		{StateFailed, "Failed"},
		{StateRejected, "Rejected"},
		{JobState(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("JobState.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseJobState(t *testing.T) {
	for _, st := range []JobState{StatePending, StateRunning, StateSucceeded, StateFailed, StateRejected} {
		got, err := ParseJobState(st.String())
		if err != nil {
			t.Fatalf("ParseJobState(%q) error = %v", st.String(), err)
		}
		if got != st {
			t.Errorf("ParseJobState(%q) = %v, want %v", st.String(), got, st)
		}
	}

	if _, err := ParseJobState("Exploded"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestJobState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     JobState
		to       JobState
		expected bool
	}{
		{"Pending -> Running", StatePending, StateRunning, true},
		{"Pending -> Rejected", StatePending, StateRejected, true},
		{"Pending -> Succeeded (invalid)", StatePending, StateSucceeded, false},

		{"Running -> Succeeded", StateRunning, StateSucceeded, true},
		{"Running -> Failed", StateRunning, StateFailed, true},
		{"Running -> Rejected (invalid)", StateRunning, StateRejected, false},
		{"Running -> Pending (invalid)", StateRunning, StatePending, false},

		{"Succeeded -> Running (invalid)", StateSucceeded, StateRunning, false},
		{"Failed -> Succeeded (invalid)", StateFailed, StateSucceeded, false},
		{"Rejected -> Running (invalid)", StateRejected, StateRunning, false},

		{"Unknown -> Running (invalid)", JobState(42), StateRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.expected {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    JobState
		terminal bool
		active   bool
	}{
		{StatePending, false, true},
		{StateRunning, false, true},
		{StateSucceeded, true, false},
		{StateFailed, true, false},
		{StateRejected, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.state.IsActive(); got != tt.active {
				t.Errorf("IsActive() = %v, want %v", got, tt.active)
			}
			if tt.terminal && len(tt.state.ValidTransitions()) != 0 {
				t.Errorf("terminal state %v has transitions", tt.state)
			}
		})
	}
}

func TestTransitionError(t *testing.T) {
	err := NewTransitionError(StateSucceeded, StateRunning)
	want := "invalid job state transition from Succeeded to Running"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}
