package presentation

import (
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"

	"pitchtrack-go/domain/color"
)

// WindowRegistry owns the main window and one analysis window per job.
// Methods that create or close windows run on the UI goroutine.
type WindowRegistry struct {
	app        fyne.App
	bridge     *UIEventBridge
	previewURL string
	logger     *slog.Logger

	main fyne.Window

	analysis   map[string]*AnalysisWindow
	analysisMu sync.RWMutex
	opened     uint64
}

// WindowRegistryConfig holds configuration for WindowRegistry.
type WindowRegistryConfig struct {
	App        fyne.App
	Bridge     *UIEventBridge
	PreviewURL string
	Logger     *slog.Logger
}

// NewWindowRegistry creates an empty registry.
func NewWindowRegistry(cfg *WindowRegistryConfig) *WindowRegistry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &WindowRegistry{
		app:        cfg.App,
		bridge:     cfg.Bridge,
		previewURL: cfg.PreviewURL,
		logger:     cfg.Logger,
		analysis:   make(map[string]*AnalysisWindow),
	}
}

// SetMain records the main window.
func (r *WindowRegistry) SetMain(w fyne.Window) {
	r.main = w
}

// Main returns the main window. Dialogs without a job window attach to it.
func (r *WindowRegistry) Main() fyne.Window {
	return r.main
}

// OpenAnalysis shows the analysis window for a job, creating it on first use.
func (r *WindowRegistry) OpenAnalysis(jobID, videoPath string, team1, team2 color.RGB) *AnalysisWindow {
	r.analysisMu.Lock()
	if w, ok := r.analysis[jobID]; ok {
		r.analysisMu.Unlock()
		w.Show()
		return w
	}

	w := NewAnalysisWindow(&AnalysisWindowConfig{
		App:        r.app,
		Bridge:     r.bridge,
		JobID:      jobID,
		VideoPath:  videoPath,
		Team1:      team1,
		Team2:      team2,
		PreviewURL: r.previewURL,
		Logger:     r.logger,
	})
	w.SetOnClosed(func() { r.forget(jobID) })
	r.opened++
	w.seq = r.opened
	r.analysis[jobID] = w
	r.analysisMu.Unlock()

	r.logger.Debug("Analysis window opened", "job_id", jobID)
	w.Show()
	return w
}

// Analysis returns the window of a job, or nil.
func (r *WindowRegistry) Analysis(jobID string) *AnalysisWindow {
	r.analysisMu.RLock()
	defer r.analysisMu.RUnlock()
	return r.analysis[jobID]
}

// Focused returns the most suitable parent for dialogs: the newest open
// analysis window, else the main window.
func (r *WindowRegistry) Focused() fyne.Window {
	r.analysisMu.RLock()
	defer r.analysisMu.RUnlock()

	var newest *AnalysisWindow
	for _, w := range r.analysis {
		if newest == nil || w.seq > newest.seq {
			newest = w
		}
	}
	if newest != nil {
		return newest.window
	}
	return r.main
}

// AnalysisCount returns the number of open analysis windows.
func (r *WindowRegistry) AnalysisCount() int {
	r.analysisMu.RLock()
	defer r.analysisMu.RUnlock()
	return len(r.analysis)
}

// CloseAll closes every analysis window.
func (r *WindowRegistry) CloseAll() {
	r.analysisMu.Lock()
	windows := make([]*AnalysisWindow, 0, len(r.analysis))
	for _, w := range r.analysis {
		windows = append(windows, w)
	}
	r.analysis = make(map[string]*AnalysisWindow)
	r.analysisMu.Unlock()

	for _, w := range windows {
		w.SetOnClosed(nil)
		w.Close()
	}
}

func (r *WindowRegistry) forget(jobID string) {
	r.analysisMu.Lock()
	delete(r.analysis, jobID)
	r.analysisMu.Unlock()
}
