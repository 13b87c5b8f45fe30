// Package analyzer launches the external tracking process and reports how it ended.
package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"pitchtrack-go/domain/analysis"
)

// ErrSpawn is wrapped by every error that prevented the process from starting.
var ErrSpawn = errors.New("failed to start analyzer")

// Launcher starts analyzer processes.
type Launcher interface {
	// Start spawns the analyzer without waiting for it to finish.
	// A non-nil error means no process is running.
	Start(ctx context.Context, req *analysis.Request) (*Task, error)
}

// Result describes how an analyzer process ended.
type Result struct {
	Status   analysis.Status
	ExitCode int
	// Err is the wait error for non-zero exits, nil on success
	Err      error
	Duration time.Duration
}

// Success reports whether the process exited with code 0.
func (r Result) Success() bool {
	return r.Status.Success()
}

// Task is the handle of one spawned analyzer process.
// It resolves exactly once.
type Task struct {
	pid     int
	program string
	args    []string
	started time.Time

	done   chan struct{}
	result Result
}

func newTask(pid int, program string, args []string) *Task {
	return &Task{
		pid:     pid,
		program: program,
		args:    args,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// NewTask creates a handle for a process started outside ProcessLauncher.
// The returned function resolves the task; calls after the first are ignored.
func NewTask(pid int, program string, args []string) (*Task, func(Result)) {
	t := newTask(pid, program, append([]string(nil), args...))
	var once sync.Once
	return t, func(r Result) {
		once.Do(func() { t.resolve(r) })
	}
}

// resolve stores the result and closes Done. Callers guarantee a single call.
func (t *Task) resolve(r Result) {
	r.Duration = time.Since(t.started)
	t.result = r
	close(t.done)
}

// PID returns the OS process ID.
func (t *Task) PID() int {
	return t.pid
}

// Program returns the executable that was spawned.
func (t *Task) Program() string {
	return t.program
}

// Args returns the arguments passed to the program.
func (t *Task) Args() []string {
	out := make([]string, len(t.args))
	copy(out, t.args)
	return out
}

// Done is closed when the process has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome. It is only meaningful after Done is closed.
func (t *Task) Result() Result {
	<-t.done
	return t.result
}

// Wait blocks until the process exits or ctx is done.
// Cancelling ctx stops waiting; it does not kill the process.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
