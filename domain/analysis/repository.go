package analysis

import (
	"context"
	"errors"
	"time"

	"pitchtrack-go/core/state"
)

// ErrRecordNotFound is returned when a job record does not exist.
var ErrRecordNotFound = errors.New("analysis record not found")

// Repository persists analysis history.
type Repository interface {
	// Insert stores a new record.
	Insert(ctx context.Context, rec *Record) error

	// Finish stores the terminal state of a job.
	Finish(ctx context.Context, id string, st state.JobState, exitCode int, errMsg string, finishedAt time.Time) error

	// MarkRunning records that the analyzer process was spawned.
	MarkRunning(ctx context.Context, id string) error

	// FindByID returns nil if not found.
	FindByID(ctx context.Context, id string) (*Record, error)

	// FindRecent returns up to limit records, newest first.
	FindRecent(ctx context.Context, limit int) ([]*Record, error)
}
