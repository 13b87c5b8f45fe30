package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
)

func newRecord(t *testing.T, id string, started time.Time) *analysis.Record {
	t.Helper()
	req, err := analysis.NewRequest("/videos/"+id+".mp4", "#112233", "#445566")
	if err != nil {
		t.Fatal(err)
	}
	return analysis.NewRecord(id, req, started)
}

func TestMemoryAnalysisRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	now := time.Now()

	rec := newRecord(t, "job-1", now)
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Stored copy is independent of the caller's record.
	rec.VideoPath = "changed"

	if err := repo.MarkRunning(ctx, "job-1"); err != nil {
		t.Fatalf("MarkRunning() error = %v", err)
	}
	if err := repo.Finish(ctx, "job-1", state.StateSucceeded, 0, "", now.Add(time.Second)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.FindByID(ctx, "job-1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.VideoPath != "/videos/job-1.mp4" {
		t.Errorf("VideoPath = %v", got.VideoPath)
	}
	if got.State != state.StateSucceeded || got.ExitCode != 0 {
		t.Errorf("record = %+v", got)
	}
	if got.Duration() != time.Second {
		t.Errorf("Duration() = %v", got.Duration())
	}
}

func TestMemoryAnalysisRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()

	got, err := repo.FindByID(ctx, "missing")
	if err != nil || got != nil {
		t.Errorf("FindByID() = %v, %v; want nil, nil", got, err)
	}
	if err := repo.MarkRunning(ctx, "missing"); !errors.Is(err, analysis.ErrRecordNotFound) {
		t.Errorf("MarkRunning() error = %v", err)
	}
	if err := repo.Finish(ctx, "missing", state.StateFailed, 1, "", time.Now()); !errors.Is(err, analysis.ErrRecordNotFound) {
		t.Errorf("Finish() error = %v", err)
	}
}

func TestMemoryAnalysisRepository_FindRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAnalysisRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_ = repo.Insert(ctx, newRecord(t, fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	recent, err := repo.FindRecent(ctx, 3)
	if err != nil {
		t.Fatalf("FindRecent() error = %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("len = %d, want 3", len(recent))
	}
	for i, want := range []string{"job-4", "job-3", "job-2"} {
		if recent[i].ID != want {
			t.Errorf("recent[%d] = %v, want %v", i, recent[i].ID, want)
		}
	}
}
