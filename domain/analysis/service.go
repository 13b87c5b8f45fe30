package analysis

import (
	"context"
	"time"

	"pitchtrack-go/core/state"
)

// DefaultRecentLimit is the number of runs shown in the history list.
const DefaultRecentLimit = 10

// HistoryService provides business logic for analysis history.
type HistoryService struct {
	repo Repository
	now  func() time.Time
}

// NewHistoryService creates a new history service.
func NewHistoryService(repo Repository) *HistoryService {
	return &HistoryService{repo: repo, now: time.Now}
}

// Begin records a pending job.
func (s *HistoryService) Begin(ctx context.Context, id string, req *Request) (*Record, error) {
	rec := NewRecord(id, req, s.now())
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Running records that the process started.
func (s *HistoryService) Running(ctx context.Context, id string) error {
	return s.repo.MarkRunning(ctx, id)
}

// Rejected records a spawn failure.
func (s *HistoryService) Rejected(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.repo.Finish(ctx, id, state.StateRejected, -1, msg, s.now())
}

// Completed records the process exit.
func (s *HistoryService) Completed(ctx context.Context, id string, status Status, exitCode int) error {
	st := state.StateFailed
	if status.Success() {
		st = state.StateSucceeded
	}
	return s.repo.Finish(ctx, id, st, exitCode, "", s.now())
}

// Get retrieves a record by ID.
func (s *HistoryService) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// Recent lists the newest records. A non-positive limit uses DefaultRecentLimit.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.repo.FindRecent(ctx, limit)
}
