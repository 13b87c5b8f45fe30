package analysis

import (
	"time"

	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/color"
)

// Record is the persisted history entry of one analysis job.
type Record struct {
	// ID is the job identifier (UUID)
	ID string

	VideoPath string
	Team1     color.RGB
	Team2     color.RGB

	State state.JobState

	// ExitCode is -1 until the process exits, and when it was killed by a signal
	ExitCode int

	// Error holds the spawn failure message for rejected jobs
	Error string

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRecord creates a pending record for a request.
func NewRecord(id string, req *Request, now time.Time) *Record {
	return &Record{
		ID:        id,
		VideoPath: req.VideoPath,
		Team1:     req.Team1,
		Team2:     req.Team2,
		State:     state.StatePending,
		ExitCode:  -1,
		StartedAt: now,
	}
}

// Duration returns how long the job ran, or zero if it has not finished.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clone creates a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}
