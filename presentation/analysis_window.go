package presentation

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pitchtrack-go/application"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/color"
)

// AnalysisWindow shows the progress and outcome of one analysis job.
type AnalysisWindow struct {
	app    fyne.App
	window fyne.Window
	jobID  string
	bridge *UIEventBridge
	logger *slog.Logger

	previewURL string

	// UI components
	statusLabel      *widget.Label
	progress         *widget.ProgressBarInfinite
	resultLabel      *widget.Label
	downloadVideoBtn *widget.Button
	downloadJSONBtn  *widget.Button
	previewBtn       *widget.Button

	finished bool
	onClosed func()
	// seq orders windows by opening time
	seq uint64
}

// AnalysisWindowConfig holds configuration for AnalysisWindow.
type AnalysisWindowConfig struct {
	App       fyne.App
	Bridge    *UIEventBridge
	JobID     string
	VideoPath string
	Team1     color.RGB
	Team2     color.RGB
	// PreviewURL is empty when the preview server is disabled
	PreviewURL string
	Logger     *slog.Logger
}

// NewAnalysisWindow creates the window. It must be called on the UI goroutine.
func NewAnalysisWindow(cfg *AnalysisWindowConfig) *AnalysisWindow {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	w := &AnalysisWindow{
		app:        cfg.App,
		window:     cfg.App.NewWindow("Analysis"),
		jobID:      cfg.JobID,
		bridge:     cfg.Bridge,
		logger:     cfg.Logger.With("job_id", cfg.JobID),
		previewURL: cfg.PreviewURL,
	}

	w.init(cfg)
	w.window.SetOnClosed(func() {
		if w.onClosed != nil {
			w.onClosed()
		}
	})
	return w
}

func (w *AnalysisWindow) init(cfg *AnalysisWindowConfig) {
	videoLabel := widget.NewLabel(requestVideoName(cfg.VideoPath))
	videoLabel.TextStyle = fyne.TextStyle{Bold: true}

	colors := container.NewHBox(
		widget.NewLabel("Team 1"), colorSwatch(cfg.Team1),
		widget.NewLabel("Team 2"), colorSwatch(cfg.Team2),
	)

	w.statusLabel = widget.NewLabel("Analyzing...")
	w.progress = widget.NewProgressBarInfinite()
	w.resultLabel = widget.NewLabel("")
	w.resultLabel.Wrapping = fyne.TextWrapWord

	w.downloadVideoBtn = widget.NewButtonWithIcon("Download Video", theme.DownloadIcon(), func() {
		w.export(w.bridge.DownloadVideo)
	})
	w.downloadJSONBtn = widget.NewButtonWithIcon("Download JSON", theme.DocumentSaveIcon(), func() {
		w.export(w.bridge.DownloadJSON)
	})
	w.previewBtn = widget.NewButtonWithIcon("Open Preview", theme.MediaPlayIcon(), w.openPreview)

	w.downloadVideoBtn.Disable()
	w.downloadJSONBtn.Disable()
	w.previewBtn.Disable()

	buttons := container.NewHBox(
		w.downloadVideoBtn,
		w.downloadJSONBtn,
		layout.NewSpacer(),
		w.previewBtn,
	)

	content := container.NewVBox(
		videoLabel,
		colors,
		widget.NewSeparator(),
		w.statusLabel,
		w.progress,
		w.resultLabel,
		buttons,
	)

	w.window.SetContent(container.NewPadded(content))
	w.window.Resize(fyne.NewSize(480, 240))
}

// Show displays the window.
func (w *AnalysisWindow) Show() {
	w.window.Show()
}

// Close closes the window.
func (w *AnalysisWindow) Close() {
	w.window.Close()
}

// JobID returns the job shown in this window.
func (w *AnalysisWindow) JobID() string {
	return w.jobID
}

// Finished reports whether a terminal result was shown.
func (w *AnalysisWindow) Finished() bool {
	return w.finished
}

// SetOnClosed registers a hook run when the window closes.
func (w *AnalysisWindow) SetOnClosed(fn func()) {
	w.onClosed = fn
}

// SetCompleted shows the process outcome. Artifacts are offered for download
// only when the run succeeded and the tracked video exists.
func (w *AnalysisWindow) SetCompleted(success bool, status analysis.Status, exitCode int, videoExists bool) {
	w.finish()

	if !success {
		w.statusLabel.SetText("Analysis failed")
		if status == analysis.StatusKilled {
			w.resultLabel.SetText("The analyzer was terminated.")
		} else {
			w.resultLabel.SetText(fmt.Sprintf("The analyzer exited with code %d.", exitCode))
		}
		return
	}

	w.statusLabel.SetText("Analysis complete")
	if !videoExists {
		w.resultLabel.SetText("The analyzer finished but no tracked video was written.")
		w.downloadJSONBtn.Enable()
		return
	}

	w.resultLabel.SetText("Tracked video and tracking data are ready.")
	w.downloadVideoBtn.Enable()
	w.downloadJSONBtn.Enable()
	if w.previewURL != "" {
		w.previewBtn.Enable()
	}
}

// SetAborted shows a spawn failure.
func (w *AnalysisWindow) SetAborted(err error) {
	w.finish()
	w.statusLabel.SetText("Analysis could not start")
	if err != nil {
		w.resultLabel.SetText(err.Error())
	}
}

func (w *AnalysisWindow) finish() {
	w.finished = true
	w.progress.Stop()
	w.progress.Hide()
}

// export runs the blocking save flow off the UI goroutine.
func (w *AnalysisWindow) export(run func(ctx context.Context, relativePath string) *application.Response) {
	ctx := withDialogParent(context.Background(), w.window)
	go func() {
		resp := run(ctx, "")
		fyne.Do(func() {
			switch {
			case resp.Success:
				w.resultLabel.SetText("Saved to " + resp.Path)
			case resp.Error != "":
				dialog.ShowError(fmt.Errorf("%s", resp.Error), w.window)
			}
		})
	}()
}

func (w *AnalysisWindow) openPreview() {
	u, err := url.Parse(w.previewURL)
	if err != nil {
		w.logger.Error("Invalid preview URL", "url", w.previewURL, "error", err)
		return
	}
	if err := w.app.OpenURL(u); err != nil {
		dialog.ShowError(err, w.window)
	}
}

func colorSwatch(c color.RGB) fyne.CanvasObject {
	rect := canvas.NewRectangle(c.RGBA())
	rect.SetMinSize(fyne.NewSize(24, 24))
	return rect
}

func requestVideoName(path string) string {
	if path == "" {
		return "(no video)"
	}
	req := analysis.Request{VideoPath: path}
	return req.VideoName()
}
