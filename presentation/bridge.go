// Package presentation provides the UI layer with event bridging to the application layer.
package presentation

import (
	"context"
	"log/slog"
	"sync"

	"pitchtrack-go/application"
	"pitchtrack-go/core/command"
	"pitchtrack-go/core/event"
	"pitchtrack-go/core/eventbus"
	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/artifact"
	"pitchtrack-go/domain/color"
)

// Dispatcher handles commands. *application.Coordinator satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) *application.Response
}

// HistoryReader lists past runs. *application.Coordinator satisfies it.
type HistoryReader interface {
	RecentRuns(ctx context.Context, limit int) ([]*analysis.Record, error)
}

// UIEventBridge bridges UI events to the application layer and routes events back to UI.
type UIEventBridge struct {
	dispatcher Dispatcher
	history    HistoryReader
	eventBus   eventbus.EventBus
	logger     *slog.Logger

	// UI callbacks - set by UI components
	callbacks   *UICallbacks
	callbacksMu sync.RWMutex

	// Subscription management
	subscriptionID string
}

// UICallbacks contains callbacks for UI updates.
// They run on the event bus goroutine; UI code wraps widget updates in fyne.Do.
type UICallbacks struct {
	// Analysis lifecycle
	OnAnalysisStarted   func(jobID, videoPath string, team1, team2 color.RGB)
	OnAnalysisAborted   func(jobID string, err error)
	OnAnalysisCompleted func(jobID string, success bool, status analysis.Status, exitCode int)
	OnJobStateChanged   func(jobID string, oldState, newState state.JobState)

	// File events
	OnVideoSaved       func(path string, size int)
	OnArtifactExported func(kind artifact.Kind, destination string)
}

// BridgeConfig holds configuration for UIEventBridge.
type BridgeConfig struct {
	Dispatcher Dispatcher
	// History is optional
	History  HistoryReader
	EventBus eventbus.EventBus
	Logger   *slog.Logger
}

// NewUIEventBridge creates a new UI event bridge.
func NewUIEventBridge(cfg *BridgeConfig) *UIEventBridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &UIEventBridge{
		dispatcher: cfg.Dispatcher,
		history:    cfg.History,
		eventBus:   cfg.EventBus,
		logger:     cfg.Logger,
		callbacks:  &UICallbacks{},
	}

	if b.eventBus != nil {
		b.subscriptionID = b.eventBus.Subscribe(b.handleEvent)
	}

	return b
}

// SetCallbacks sets the UI callbacks.
func (b *UIEventBridge) SetCallbacks(callbacks *UICallbacks) {
	b.callbacksMu.Lock()
	defer b.callbacksMu.Unlock()
	b.callbacks = callbacks
}

// Close unsubscribes from the event bus.
func (b *UIEventBridge) Close() {
	if b.eventBus != nil && b.subscriptionID != "" {
		b.eventBus.Unsubscribe(b.subscriptionID)
	}
}

// Command dispatching methods

// SaveVideo stores uploaded bytes as the analysis input.
func (b *UIEventBridge) SaveVideo(data []byte) *application.Response {
	return b.dispatch(&command.SaveVideo{Data: data})
}

// StartAnalysis launches the analyzer. An empty path uses the saved upload.
func (b *UIEventBridge) StartAnalysis(videoPath, team1Hex, team2Hex string) *application.Response {
	return b.dispatch(command.NewStartAnalysis(videoPath, team1Hex, team2Hex))
}

// DownloadVideo exports the tracked video through a save dialog.
// ctx may carry the window the dialog opens over.
func (b *UIEventBridge) DownloadVideo(ctx context.Context, relativePath string) *application.Response {
	return b.dispatcher.Dispatch(ctx, command.NewDownloadVideo(relativePath))
}

// DownloadJSON exports the tracking data through a save dialog.
func (b *UIEventBridge) DownloadJSON(ctx context.Context, relativePath string) *application.Response {
	return b.dispatcher.Dispatch(ctx, command.NewDownloadJSON(relativePath))
}

// CheckVideoFile reports whether the tracked video exists.
func (b *UIEventBridge) CheckVideoFile() bool {
	return b.dispatch(&command.CheckVideoFile{}).Exists
}

func (b *UIEventBridge) dispatch(cmd command.Command) *application.Response {
	return b.dispatcher.Dispatch(context.Background(), cmd)
}

// Query methods

// RecentRuns returns past runs, newest first.
func (b *UIEventBridge) RecentRuns(limit int) []*analysis.Record {
	if b.history == nil {
		return nil
	}
	runs, err := b.history.RecentRuns(context.Background(), limit)
	if err != nil {
		b.logger.Warn("Failed to load analysis history", "error", err)
		return nil
	}
	return runs
}

// Event handling

func (b *UIEventBridge) handleEvent(e event.Event) {
	b.callbacksMu.RLock()
	callbacks := b.callbacks
	b.callbacksMu.RUnlock()

	if callbacks == nil {
		return
	}

	switch evt := e.(type) {
	case *event.AnalysisStarted:
		if callbacks.OnAnalysisStarted != nil {
			callbacks.OnAnalysisStarted(evt.JobID(), evt.VideoPath, evt.Team1, evt.Team2)
		}

	case *event.AnalysisAborted:
		if callbacks.OnAnalysisAborted != nil {
			callbacks.OnAnalysisAborted(evt.JobID(), evt.Error)
		}

	case *event.AnalysisCompleted:
		if callbacks.OnAnalysisCompleted != nil {
			callbacks.OnAnalysisCompleted(evt.JobID(), evt.Success, evt.Status, evt.ExitCode)
		}

	case *event.JobStateChanged:
		if callbacks.OnJobStateChanged != nil {
			callbacks.OnJobStateChanged(evt.JobID(), evt.OldState, evt.NewState)
		}

	case *event.VideoSaved:
		if callbacks.OnVideoSaved != nil {
			callbacks.OnVideoSaved(evt.Path, evt.Size)
		}

	case *event.ArtifactExported:
		if callbacks.OnArtifactExported != nil {
			callbacks.OnArtifactExported(evt.Kind, evt.Destination)
		}
	}
}
