// Package application orchestrates requests from the UI: it validates input,
// stages files, launches analyses and publishes the resulting events.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pitchtrack-go/application/job"
	"pitchtrack-go/core/command"
	"pitchtrack-go/core/event"
	"pitchtrack-go/core/eventbus"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/artifact"
	"pitchtrack-go/infrastructure/analyzer"
	"pitchtrack-go/infrastructure/workspace"
)

var (
	// ErrNoSaveDialog is returned by exports when no dialog is wired.
	ErrNoSaveDialog = errors.New("save dialog is not available")
	// ErrNoInputVideo is returned when StartAnalysis has no path and nothing was uploaded.
	ErrNoInputVideo = errors.New("no video selected")
)

// historyTimeout bounds history writes made outside a request context.
const historyTimeout = 5 * time.Second

// Response is the reply to a dispatched command.
type Response struct {
	Success bool
	// Error is empty on success and on a cancelled export
	Error string
	// Exists answers CheckVideoFile
	Exists bool
	// Path is the written file for SaveVideo and the destination for exports
	Path string
	// JobID identifies the job started by StartAnalysis
	JobID string
}

func failure(err error) *Response {
	return &Response{Success: false, Error: err.Error()}
}

// Coordinator handles commands and tracks analysis jobs.
type Coordinator struct {
	// Jobs
	jobs   map[string]*job.Job
	jobsMu sync.RWMutex

	// Dependencies
	workspace  *workspace.Workspace
	launcher   analyzer.Launcher
	saveDialog SaveDialog
	history    *analysis.HistoryService
	eventBus   eventbus.EventBus
	newID      func() string
	logger     *slog.Logger

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CoordinatorConfig holds configuration for the Coordinator.
type CoordinatorConfig struct {
	Workspace  *workspace.Workspace
	Launcher   analyzer.Launcher
	SaveDialog SaveDialog
	// History is optional
	History  *analysis.HistoryService
	EventBus eventbus.EventBus
	// NewID defaults to uuid.NewString
	NewID  func() string
	Logger *slog.Logger
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg *CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		jobs:       make(map[string]*job.Job),
		workspace:  cfg.Workspace,
		launcher:   cfg.Launcher,
		saveDialog: cfg.SaveDialog,
		history:    cfg.History,
		eventBus:   cfg.EventBus,
		newID:      cfg.NewID,
		logger:     cfg.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetSaveDialog wires the dialog once the UI exists.
func (c *Coordinator) SetSaveDialog(d SaveDialog) {
	c.jobsMu.Lock()
	c.saveDialog = d
	c.jobsMu.Unlock()
}

// Start begins the coordinator.
func (c *Coordinator) Start() {
	c.logger.Info("Coordinator started", "output_dir", c.workspace.Dir())
}

// Stop stops observing running jobs. Analyzer processes are left running.
func (c *Coordinator) Stop() {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		c.logger.Warn("Coordinator stop timeout, some observers did not exit")
	}

	if n := len(c.ActiveJobs()); n > 0 {
		c.logger.Warn("Analyzer processes still running at shutdown", "count", n)
	}
	c.logger.Info("Coordinator stopped")
}

// Dispatch handles a command and always returns a response.
// Handler errors and panics become failed responses.
func (c *Coordinator) Dispatch(ctx context.Context, cmd command.Command) (resp *Response) {
	if cmd == nil {
		return failure(errors.New("nil command"))
	}

	logger := c.logger.With("request", command.RequestName(cmd))
	logger.Debug("Dispatching command", "command", cmd.CommandName())

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Command handler panicked", "panic", r)
			resp = failure(fmt.Errorf("internal error: %v", r))
		}
	}()

	if _, err := c.workspace.Ensure(); err != nil {
		logger.Error("Output directory unavailable", "error", err)
		if _, ok := cmd.(*command.CheckVideoFile); ok {
			return &Response{Success: true, Exists: false}
		}
		return failure(err)
	}

	switch cmd := cmd.(type) {
	case *command.SaveVideo:
		resp = c.handleSaveVideo(cmd)
	case *command.StartAnalysis:
		resp = c.handleStartAnalysis(ctx, cmd)
	case *command.ExportArtifact:
		resp = c.handleExport(ctx, cmd)
	case *command.CheckVideoFile:
		resp = c.handleCheckVideoFile()
	default:
		resp = failure(fmt.Errorf("unknown command type: %T", cmd))
	}

	if !resp.Success && resp.Error != "" {
		logger.Warn("Command failed", "error", resp.Error)
	}
	return resp
}

// Command handlers

func (c *Coordinator) handleSaveVideo(cmd *command.SaveVideo) *Response {
	path, err := c.workspace.WriteInput(cmd.Data)
	if err != nil {
		return failure(err)
	}

	c.logger.Info("Input video saved", "path", path, "bytes", len(cmd.Data))
	c.publish(event.NewVideoSaved(path, len(cmd.Data)))
	return &Response{Success: true, Path: path}
}

func (c *Coordinator) handleStartAnalysis(ctx context.Context, cmd *command.StartAnalysis) *Response {
	videoPath, err := c.resolveVideoPath(cmd.VideoPath)
	if err != nil {
		return failure(err)
	}

	req, err := analysis.NewRequest(videoPath, cmd.Team1Color, cmd.Team2Color)
	if err != nil {
		return failure(err)
	}

	if active := c.ActiveJobs(); len(active) > 0 {
		c.logger.Warn("Starting analysis while another is running", "active", len(active))
	}

	j := job.New(c.newID(), req, c.eventBus)
	logger := c.logger.With("job_id", j.ID())

	c.jobsMu.Lock()
	c.jobs[j.ID()] = j
	c.jobsMu.Unlock()

	if c.history != nil {
		if _, err := c.history.Begin(ctx, j.ID(), req); err != nil {
			logger.Warn("Failed to record analysis start", "error", err)
		}
	}

	c.publish(event.NewAnalysisStarted(j.ID(), req))

	task, err := c.launcher.Start(ctx, req)
	if err != nil {
		if rejectErr := j.Reject(err); rejectErr != nil {
			logger.Error("Failed to reject job", "error", rejectErr)
		}
		c.recordHistory(logger, func(hctx context.Context) error {
			return c.history.Rejected(hctx, j.ID(), err)
		})
		c.publish(event.NewAnalysisAborted(j.ID(), err))
		return &Response{Success: false, Error: err.Error(), JobID: j.ID()}
	}

	if err := j.MarkRunning(task.PID()); err != nil {
		logger.Error("Failed to mark job running", "error", err)
	}
	c.recordHistory(logger, func(hctx context.Context) error {
		return c.history.Running(hctx, j.ID())
	})

	logger.Info("Analysis started", "pid", task.PID(), "video", req.VideoName(),
		"team1", req.Team1.Hex(), "team2", req.Team2.Hex())

	c.wg.Add(1)
	go c.observe(j, task, logger)

	return &Response{Success: true, JobID: j.ID()}
}

// resolveVideoPath makes the path absolute. Empty means the uploaded input.
func (c *Coordinator) resolveVideoPath(p string) (string, error) {
	if p == "" {
		if !c.workspace.Exists(artifact.InputVideo) {
			return "", ErrNoInputVideo
		}
		return c.workspace.Path(artifact.InputVideo), nil
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve video path: %w", err)
	}
	return abs, nil
}

// observe waits for the process and publishes AnalysisCompleted exactly once.
func (c *Coordinator) observe(j *job.Job, task *analyzer.Task, logger *slog.Logger) {
	defer c.wg.Done()

	select {
	case <-task.Done():
	case <-c.ctx.Done():
		logger.Info("Stopped observing analysis", "pid", task.PID())
		return
	}

	result := task.Result()
	if err := j.Complete(result.Status, result.ExitCode); err != nil {
		logger.Error("Failed to complete job", "error", err)
		return
	}

	c.recordHistory(logger, func(hctx context.Context) error {
		return c.history.Completed(hctx, j.ID(), result.Status, result.ExitCode)
	})

	logger.Info("Analysis finished", "status", result.Status, "exit_code", result.ExitCode,
		"duration", result.Duration.Round(time.Millisecond))
	c.publish(event.NewAnalysisCompleted(j.ID(), result.Status, result.ExitCode))
}

func (c *Coordinator) handleExport(ctx context.Context, cmd *command.ExportArtifact) *Response {
	if !cmd.Kind.Valid() {
		return failure(fmt.Errorf("unknown artifact kind: %v", cmd.Kind))
	}

	rel := cmd.RelativePath
	if rel == "" {
		rel = c.defaultArtifact(cmd.Kind)
	}

	src, err := c.workspace.Resolve(rel)
	if err != nil {
		return failure(err)
	}
	// The dialog creates the destination, so the source is checked first.
	info, err := os.Stat(src)
	if err != nil {
		return failure(fmt.Errorf("artifact %s not available: %w", rel, err))
	}
	if !info.Mode().IsRegular() {
		return failure(fmt.Errorf("artifact %s is not a regular file", rel))
	}

	c.jobsMu.RLock()
	dlg := c.saveDialog
	c.jobsMu.RUnlock()
	if dlg == nil {
		return failure(ErrNoSaveDialog)
	}

	dst, err := dlg.ChooseSavePath(ctx, SaveOptions{
		Title:       cmd.Kind.SaveTitle(),
		DefaultName: cmd.Kind.DefaultName(),
		Extensions:  cmd.Kind.Extensions(),
	})
	if err != nil {
		return failure(err)
	}
	if dst == "" {
		c.logger.Debug("Export cancelled", "kind", cmd.Kind)
		return &Response{Success: false}
	}

	if err := c.workspace.CopyOut(src, dst); err != nil {
		return failure(err)
	}

	c.logger.Info("Artifact exported", "kind", cmd.Kind, "source", src, "destination", dst)
	c.publish(event.NewArtifactExported(cmd.Kind, src, dst))
	return &Response{Success: true, Path: dst}
}

// defaultArtifact picks the export source when the UI sends no path.
func (c *Coordinator) defaultArtifact(kind artifact.Kind) string {
	if kind == artifact.JSON {
		if rel, err := c.workspace.LatestJSON(); err == nil {
			return rel
		}
		return artifact.TrackingData
	}
	return artifact.TrackedVideo
}

func (c *Coordinator) handleCheckVideoFile() *Response {
	return &Response{Success: true, Exists: c.workspace.Exists(artifact.TrackedVideo)}
}

// Queries

// GetJob returns a job by ID.
func (c *Coordinator) GetJob(id string) *job.Job {
	c.jobsMu.RLock()
	defer c.jobsMu.RUnlock()
	return c.jobs[id]
}

// GetAllJobs returns every job started in this process, oldest first.
func (c *Coordinator) GetAllJobs() []*job.Job {
	c.jobsMu.RLock()
	jobs := make([]*job.Job, 0, len(c.jobs))
	for _, j := range c.jobs {
		jobs = append(jobs, j)
	}
	c.jobsMu.RUnlock()

	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].CreatedAt().Before(jobs[b].CreatedAt())
	})
	return jobs
}

// ActiveJobs returns jobs whose process may still be running.
func (c *Coordinator) ActiveJobs() []*job.Job {
	c.jobsMu.RLock()
	defer c.jobsMu.RUnlock()

	jobs := make([]*job.Job, 0)
	for _, j := range c.jobs {
		if j.State().IsActive() {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// RecentRuns lists persisted runs, newest first. Without history it is empty.
func (c *Coordinator) RecentRuns(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.Recent(ctx, limit)
}

// OutputDir returns the output directory path.
func (c *Coordinator) OutputDir() string {
	return c.workspace.Dir()
}

// Helpers

func (c *Coordinator) publish(e event.Event) {
	if c.eventBus != nil {
		c.eventBus.Publish(e)
	}
}

func (c *Coordinator) recordHistory(logger *slog.Logger, fn func(ctx context.Context) error) {
	if c.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn("Failed to update analysis history", "error", err)
	}
}
