package job

import (
	"errors"
	"sync"
	"testing"

	"pitchtrack-go/core/event"
	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func newTestJob(t *testing.T, pub Publisher) *Job {
	t.Helper()
	req, err := analysis.NewRequest("/videos/a.mp4", "#ff0000", "#00ff00")
	if err != nil {
		t.Fatal(err)
	}
	return New("job-1", req, pub)
}

func TestJob_SuccessfulRun(t *testing.T) {
	pub := &recordingPublisher{}
	j := newTestJob(t, pub)

	if j.State() != state.StatePending {
		t.Fatalf("initial state = %v", j.State())
	}
	if err := j.MarkRunning(42); err != nil {
		t.Fatalf("MarkRunning() error = %v", err)
	}
	if j.PID() != 42 {
		t.Errorf("PID() = %d", j.PID())
	}
	if err := j.Complete(analysis.StatusSucceeded, 0); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	select {
	case <-j.Done():
	default:
		t.Fatal("Done() not closed")
	}

	out := j.Outcome()
	if out.State != state.StateSucceeded || out.ExitCode != 0 {
		t.Errorf("Outcome() = %+v", out)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	last := pub.events[1].(*event.JobStateChanged)
	if last.OldState != state.StateRunning || last.NewState != state.StateSucceeded {
		t.Errorf("last transition = %v -> %v", last.OldState, last.NewState)
	}
}

func TestJob_FailedRun(t *testing.T) {
	j := newTestJob(t, nil)
	_ = j.MarkRunning(1)

	if err := j.Complete(analysis.StatusKilled, -1); err != nil {
		t.Fatal(err)
	}
	out := j.Outcome()
	if out.State != state.StateFailed || out.Status != analysis.StatusKilled || out.ExitCode != -1 {
		t.Errorf("Outcome() = %+v", out)
	}
}

func TestJob_Reject(t *testing.T) {
	j := newTestJob(t, nil)
	cause := errors.New("python3 not found")

	if err := j.Reject(cause); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	out := j.Outcome()
	if out.State != state.StateRejected || !errors.Is(out.Err, cause) {
		t.Errorf("Outcome() = %+v", out)
	}
}

func TestJob_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(j *Job)
		act   func(j *Job) error
	}{
		{"complete while pending", func(j *Job) {}, func(j *Job) error { return j.Complete(analysis.StatusSucceeded, 0) }},
		{"reject while running", func(j *Job) { _ = j.MarkRunning(1) }, func(j *Job) error { return j.Reject(nil) }},
		{"complete twice", func(j *Job) {
			_ = j.MarkRunning(1)
			_ = j.Complete(analysis.StatusSucceeded, 0)
		}, func(j *Job) error { return j.Complete(analysis.StatusFailed, 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJob(t, nil)
			tt.setup(j)

			var transitionErr *state.TransitionError
			if err := tt.act(j); !errors.As(err, &transitionErr) {
				t.Errorf("error = %v, want TransitionError", err)
			}
		})
	}
}
