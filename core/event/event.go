// Package event defines all events that can be published by the application.
// Events represent state changes and are consumed by the presentation layer.
package event

import "pitchtrack-go/core/state"

// Event is the base interface for all events.
// Events are published by the application layer and consumed by subscribers.
type Event interface {
	// EventName returns the name of the event for logging/debugging
	EventName() string
}

// JobEvent is an event that originates from a specific analysis job.
type JobEvent interface {
	Event
	// JobID returns the source job ID
	JobID() string
}

// Terminal is implemented by the last event a job publishes. The bus waits
// for room in its queue instead of dropping these.
type Terminal interface {
	JobEvent
	Terminal()
}

// baseJobEvent provides common implementation for job events.
type baseJobEvent struct {
	jobID string
}

func (e *baseJobEvent) JobID() string {
	return e.jobID
}

// JobStateChanged is published whenever a job moves to a new state.
type JobStateChanged struct {
	baseJobEvent
	OldState state.JobState
	NewState state.JobState
}

func NewJobStateChanged(jobID string, oldState, newState state.JobState) *JobStateChanged {
	return &JobStateChanged{
		baseJobEvent: baseJobEvent{jobID: jobID},
		OldState:     oldState,
		NewState:     newState,
	}
}

func (e *JobStateChanged) EventName() string {
	return "JobStateChanged"
}
