// Package job tracks a single analysis run inside the application layer.
package job

import (
	"sync"
	"time"

	"pitchtrack-go/core/event"
	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
)

// Publisher receives job events. eventbus.EventBus satisfies it.
type Publisher interface {
	Publish(e event.Event)
}

// Outcome is the terminal result of a job.
type Outcome struct {
	State    state.JobState
	Status   analysis.Status
	ExitCode int
	// Err is the spawn error of a rejected job
	Err error
}

// Job is one analysis run.
type Job struct {
	id        string
	request   *analysis.Request
	createdAt time.Time

	state   state.JobState
	pid     int
	outcome Outcome
	stateMu sync.RWMutex

	done      chan struct{}
	publisher Publisher
}

// New creates a pending job.
func New(id string, req *analysis.Request, publisher Publisher) *Job {
	return &Job{
		id:        id,
		request:   req,
		createdAt: time.Now(),
		state:     state.StatePending,
		done:      make(chan struct{}),
		publisher: publisher,
	}
}

// ID returns the job identifier.
func (j *Job) ID() string {
	return j.id
}

// Request returns the analysis request.
func (j *Job) Request() *analysis.Request {
	return j.request
}

// CreatedAt returns when the job was created.
func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

// State returns the current job state.
func (j *Job) State() state.JobState {
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()
	return j.state
}

// PID returns the analyzer process ID, or 0 before it was spawned.
func (j *Job) PID() int {
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()
	return j.pid
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Outcome returns the terminal result. It blocks until Done is closed.
func (j *Job) Outcome() Outcome {
	<-j.done
	j.stateMu.RLock()
	defer j.stateMu.RUnlock()
	return j.outcome
}

// MarkRunning records the spawned process.
func (j *Job) MarkRunning(pid int) error {
	j.stateMu.Lock()
	j.pid = pid
	j.stateMu.Unlock()
	return j.transitionTo(state.StateRunning, nil)
}

// Reject finishes a job whose process never started.
func (j *Job) Reject(err error) error {
	return j.transitionTo(state.StateRejected, &Outcome{
		State:    state.StateRejected,
		Status:   analysis.StatusFailed,
		ExitCode: -1,
		Err:      err,
	})
}

// Complete finishes a job from the process exit.
func (j *Job) Complete(status analysis.Status, exitCode int) error {
	target := state.StateFailed
	if status.Success() {
		target = state.StateSucceeded
	}
	return j.transitionTo(target, &Outcome{
		State:    target,
		Status:   status,
		ExitCode: exitCode,
	})
}

// transitionTo moves the job and publishes JobStateChanged. A non-nil
// outcome is stored and closes Done.
func (j *Job) transitionTo(newState state.JobState, outcome *Outcome) error {
	j.stateMu.Lock()
	oldState := j.state

	if !oldState.CanTransitionTo(newState) {
		j.stateMu.Unlock()
		return state.NewTransitionError(oldState, newState)
	}

	j.state = newState
	if outcome != nil {
		j.outcome = *outcome
	}
	j.stateMu.Unlock()

	if newState.IsTerminal() {
		close(j.done)
	}

	if j.publisher != nil {
		j.publisher.Publish(event.NewJobStateChanged(j.id, oldState, newState))
	}
	return nil
}
