package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
)

// MemoryAnalysisRepository implements analysis.Repository in process memory.
// It is used when MongoDB history is disabled or unreachable.
type MemoryAnalysisRepository struct {
	mu      sync.RWMutex
	records map[string]*analysis.Record
}

// NewMemoryAnalysisRepository creates an empty repository.
func NewMemoryAnalysisRepository() *MemoryAnalysisRepository {
	return &MemoryAnalysisRepository{records: make(map[string]*analysis.Record)}
}

// Insert stores a copy of rec.
func (r *MemoryAnalysisRepository) Insert(ctx context.Context, rec *analysis.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec.Clone()
	return nil
}

// MarkRunning records that the analyzer process was spawned.
func (r *MemoryAnalysisRepository) MarkRunning(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return analysis.ErrRecordNotFound
	}
	rec.State = state.StateRunning
	return nil
}

// Finish stores the terminal state of a job.
func (r *MemoryAnalysisRepository) Finish(ctx context.Context, id string, st state.JobState, exitCode int, errMsg string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return analysis.ErrRecordNotFound
	}
	rec.State = st
	rec.ExitCode = exitCode
	rec.Error = errMsg
	rec.FinishedAt = finishedAt
	return nil
}

// FindByID returns nil if not found.
func (r *MemoryAnalysisRepository) FindByID(ctx context.Context, id string) (*analysis.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// FindRecent returns up to limit records, newest first.
func (r *MemoryAnalysisRepository) FindRecent(ctx context.Context, limit int) ([]*analysis.Record, error) {
	r.mu.RLock()
	out := make([]*analysis.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ analysis.Repository = (*MemoryAnalysisRepository)(nil)
