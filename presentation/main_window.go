package presentation

import (
	"errors"
	"fmt"
	imgcolor "image/color"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/artifact"
	"pitchtrack-go/domain/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Default team colors offered on first start.
const (
	DefaultTeam1Color = "#FF0000"
	DefaultTeam2Color = "#0000FF"
)

// videoExtensions are accepted by the open dialog.
var videoExtensions = []string{".mp4", ".MP4", ".mov", ".MOV", ".avi", ".mkv"}

// MainWindow is the main application window.
type MainWindow struct {
	window   fyne.Window
	registry *WindowRegistry
	bridge   *UIEventBridge
	logger   *slog.Logger

	// UI components - Input
	videoLabel  *widget.Label
	browseBtn   *widget.Button
	team1Entry  *widget.Entry
	team2Entry  *widget.Entry
	team1Swatch *colorButton
	team2Swatch *colorButton
	startBtn    *widget.Button
	statusLabel *widget.Label

	// UI components - History
	runList *widget.List

	// Data
	videoPath string
	runs      []*analysis.Record
	runsMu    sync.RWMutex

	// Cleanup
	cleanupOnce sync.Once
}

// MainWindowConfig holds configuration for MainWindow.
type MainWindowConfig struct {
	App      fyne.App
	Bridge   *UIEventBridge
	Registry *WindowRegistry
	Logger   *slog.Logger
}

// NewMainWindow creates a new main window.
func NewMainWindow(cfg *MainWindowConfig) *MainWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &MainWindow{
		window:   cfg.App.NewWindow("PitchTrack"),
		registry: cfg.Registry,
		bridge:   cfg.Bridge,
		logger:   cfg.Logger,
	}
	if w.registry != nil {
		w.registry.SetMain(w.window)
	}

	w.init()
	w.setupEventCallbacks()
	w.loadRuns()

	w.window.SetOnClosed(func() {
		w.Cleanup()
		cfg.App.Quit()
	})

	return w
}

func (w *MainWindow) init() {
	w.videoLabel = widget.NewLabel("No video selected")
	w.videoLabel.Truncation = fyne.TextTruncateEllipsis
	w.browseBtn = widget.NewButtonWithIcon("Browse...", theme.FolderOpenIcon(), w.showOpenDialog)

	w.team1Entry, w.team1Swatch = w.newColorInput("Team 1 Color", DefaultTeam1Color)
	w.team2Entry, w.team2Swatch = w.newColorInput("Team 2 Color", DefaultTeam2Color)

	w.startBtn = widget.NewButtonWithIcon("Start Analysis", theme.MediaPlayIcon(), w.handleStart)
	w.startBtn.Importance = widget.HighImportance
	w.statusLabel = widget.NewLabel("")

	form := widget.NewForm(
		widget.NewFormItem("Video", container.NewBorder(nil, nil, nil, w.browseBtn, w.videoLabel)),
		widget.NewFormItem("Team 1", container.NewBorder(nil, nil, nil, w.team1Swatch, w.team1Entry)),
		widget.NewFormItem("Team 2", container.NewBorder(nil, nil, nil, w.team2Swatch, w.team2Entry)),
	)

	actions := container.NewHBox(w.statusLabel, layout.NewSpacer(), w.startBtn)

	w.runList = widget.NewList(
		func() int {
			w.runsMu.RLock()
			defer w.runsMu.RUnlock()
			return len(w.runs)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			w.runsMu.RLock()
			defer w.runsMu.RUnlock()
			if id < len(w.runs) {
				obj.(*widget.Label).SetText(formatRun(w.runs[id]))
			}
		},
	)

	history := container.NewBorder(
		widget.NewLabel("Recent Runs"),
		nil, nil, nil,
		w.runList,
	)

	top := container.NewVBox(form, actions, widget.NewSeparator())
	w.window.SetContent(container.NewBorder(top, nil, nil, nil, history))
	w.window.Resize(fyne.NewSize(640, 480))
}

func (w *MainWindow) newColorInput(title, initial string) (*widget.Entry, *colorButton) {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("#RRGGBB")
	entry.SetText(initial)
	entry.Validator = func(s string) error {
		_, err := color.Decode(s)
		return err
	}

	swatch := newColorButton(initial, func() {
		current, _ := color.Decode(entry.Text)
		picker := dialog.NewColorPicker(title, "Pick the jersey color", func(c imgcolor.Color) {
			entry.SetText(color.FromColor(c).Hex())
		}, w.window)
		picker.Advanced = true
		picker.SetColor(current.RGBA())
		picker.Show()
	})

	entry.OnChanged = func(s string) {
		swatch.SetHex(s)
	}
	return entry, swatch
}

func (w *MainWindow) setupEventCallbacks() {
	if w.bridge == nil {
		return
	}

	w.bridge.SetCallbacks(&UICallbacks{
		OnAnalysisStarted: func(jobID, videoPath string, team1, team2 color.RGB) {
			w.logger.Info("Analysis started", "job_id", jobID, "video", filepath.Base(videoPath))
			// UI update must run on main thread
			fyne.Do(func() {
				if w.registry != nil {
					w.registry.OpenAnalysis(jobID, videoPath, team1, team2)
				}
				w.statusLabel.SetText("Analyzing " + filepath.Base(videoPath))
			})
		},
		OnAnalysisAborted: func(jobID string, err error) {
			w.logger.Error("Analysis aborted", "job_id", jobID, "error", err)
			fyne.Do(func() {
				if win := w.analysisWindow(jobID); win != nil {
					win.SetAborted(err)
				}
				w.statusLabel.SetText("Analysis could not start")
				w.loadRuns()
			})
		},
		OnAnalysisCompleted: func(jobID string, success bool, status analysis.Status, exitCode int) {
			w.logger.Info("Analysis completed", "job_id", jobID, "success", success, "exit_code", exitCode)
			videoExists := success && w.bridge.CheckVideoFile()
			fyne.Do(func() {
				if win := w.analysisWindow(jobID); win != nil {
					win.SetCompleted(success, status, exitCode, videoExists)
				}
				if success {
					w.statusLabel.SetText("Analysis complete")
				} else {
					w.statusLabel.SetText(fmt.Sprintf("Analysis failed (%s)", status))
				}
				w.loadRuns()
			})
		},
		OnJobStateChanged: func(jobID string, oldState, newState state.JobState) {
			w.logger.Debug("Job state changed", "job_id", jobID, "from", oldState, "to", newState)
		},
		OnVideoSaved: func(path string, size int) {
			w.logger.Debug("Video saved", "path", path, "bytes", size)
		},
		OnArtifactExported: func(kind artifact.Kind, destination string) {
			w.logger.Info("Artifact exported", "kind", kind, "destination", destination)
		},
	})
}

func (w *MainWindow) analysisWindow(jobID string) *AnalysisWindow {
	if w.registry == nil {
		return nil
	}
	return w.registry.Analysis(jobID)
}

func (w *MainWindow) showOpenDialog() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		if reader == nil {
			return // User cancelled
		}

		name := reader.URI().Name()
		w.setBusy(true, "Loading "+name)

		go func() {
			defer reader.Close()
			data, err := io.ReadAll(reader)
			if err != nil {
				fyne.Do(func() {
					w.setBusy(false, "")
					dialog.ShowError(fmt.Errorf("failed to read video: %w", err), w.window)
				})
				return
			}

			resp := w.bridge.SaveVideo(data)
			fyne.Do(func() {
				w.setBusy(false, "")
				if !resp.Success {
					dialog.ShowError(errors.New(resp.Error), w.window)
					return
				}
				w.SetVideoPath(resp.Path, name)
			})
		}()
	}, w.window)

	fd.SetFilter(storage.NewExtensionFileFilter(videoExtensions))
	fd.Show()
}

// SetVideoPath sets the video passed to the analyzer.
func (w *MainWindow) SetVideoPath(path, displayName string) {
	w.videoPath = path
	if displayName == "" {
		displayName = filepath.Base(path)
	}
	w.videoLabel.SetText(displayName)
}

// VideoPath returns the selected video.
func (w *MainWindow) VideoPath() string {
	return w.videoPath
}

func (w *MainWindow) handleStart() {
	if err := w.validateInput(); err != nil {
		dialog.ShowError(err, w.window)
		return
	}

	videoPath, team1, team2 := w.videoPath, w.team1Entry.Text, w.team2Entry.Text
	w.setBusy(true, "Starting analysis")

	go func() {
		resp := w.bridge.StartAnalysis(videoPath, team1, team2)
		fyne.Do(func() {
			w.setBusy(false, "")
			if !resp.Success {
				w.statusLabel.SetText("")
				dialog.ShowError(errors.New(resp.Error), w.window)
			}
		})
	}()
}

// validateInput checks the form before a request is sent.
func (w *MainWindow) validateInput() error {
	if w.videoPath == "" {
		return errors.New("select a video first")
	}
	if err := w.team1Entry.Validate(); err != nil {
		return fmt.Errorf("team 1 color: %w", err)
	}
	if err := w.team2Entry.Validate(); err != nil {
		return fmt.Errorf("team 2 color: %w", err)
	}
	return nil
}

func (w *MainWindow) setBusy(busy bool, status string) {
	if busy {
		w.startBtn.Disable()
		w.browseBtn.Disable()
	} else {
		w.startBtn.Enable()
		w.browseBtn.Enable()
	}
	if status != "" {
		w.statusLabel.SetText(status)
	}
}

func (w *MainWindow) loadRuns() {
	if w.bridge == nil {
		return
	}
	runs := w.bridge.RecentRuns(analysis.DefaultRecentLimit)

	w.runsMu.Lock()
	w.runs = runs
	w.runsMu.Unlock()

	w.runList.Refresh()
}

// Show displays the window.
func (w *MainWindow) Show() {
	w.window.Show()
}

// ShowAndRun displays the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Window returns the underlying fyne.Window.
func (w *MainWindow) Window() fyne.Window {
	return w.window
}

// Cleanup closes the analysis windows and detaches from the bridge.
// Running analyzer processes are not stopped.
func (w *MainWindow) Cleanup() {
	w.cleanupOnce.Do(func() {
		if w.registry != nil {
			w.registry.CloseAll()
		}
		if w.bridge != nil {
			w.bridge.SetCallbacks(nil)
		}
	})
}

func formatRun(rec *analysis.Record) string {
	line := fmt.Sprintf("%s  %s  %s vs %s  %s",
		rec.StartedAt.Format("2006-01-02 15:04"),
		filepath.Base(rec.VideoPath),
		rec.Team1.Hex(), rec.Team2.Hex(),
		rec.State,
	)
	if rec.State == state.StateFailed && rec.ExitCode >= 0 {
		line += fmt.Sprintf(" (exit %d)", rec.ExitCode)
	}
	return line
}
