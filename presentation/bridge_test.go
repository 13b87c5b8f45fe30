package presentation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pitchtrack-go/application"
	"pitchtrack-go/core/command"
	"pitchtrack-go/core/event"
	"pitchtrack-go/core/eventbus"
	"pitchtrack-go/core/state"
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/artifact"
	"pitchtrack-go/domain/color"
)

// fakeDispatcher records commands and answers with a canned response.
type fakeDispatcher struct {
	mu       sync.Mutex
	commands []command.Command
	response *application.Response
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, cmd command.Command) *application.Response {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = append(d.commands, cmd)
	if d.response == nil {
		return &application.Response{Success: true}
	}
	return d.response
}

func (d *fakeDispatcher) last() command.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.commands) == 0 {
		return nil
	}
	return d.commands[len(d.commands)-1]
}

type fakeHistory struct {
	runs []*analysis.Record
	err  error
}

func (h *fakeHistory) RecentRuns(ctx context.Context, limit int) ([]*analysis.Record, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit > 0 && len(h.runs) > limit {
		return h.runs[:limit], nil
	}
	return h.runs, nil
}

func TestUICallbacks_Nil(t *testing.T) {
	callbacks := &UICallbacks{}

	if callbacks.OnAnalysisStarted != nil {
		t.Error("OnAnalysisStarted should be nil by default")
	}
	if callbacks.OnAnalysisCompleted != nil {
		t.Error("OnAnalysisCompleted should be nil by default")
	}
}

func TestBridge_CommandMapping(t *testing.T) {
	d := &fakeDispatcher{}
	b := NewUIEventBridge(&BridgeConfig{Dispatcher: d})

	b.SaveVideo([]byte("abc"))
	save, ok := d.last().(*command.SaveVideo)
	if !ok || string(save.Data) != "abc" {
		t.Fatalf("SaveVideo dispatched %#v", d.last())
	}

	b.StartAnalysis("/tmp/in.mp4", "#FF0000", "#0000FF")
	start, ok := d.last().(*command.StartAnalysis)
	if !ok {
		t.Fatalf("StartAnalysis dispatched %T", d.last())
	}
	if start.VideoPath != "/tmp/in.mp4" || start.Team1Color != "#FF0000" || start.Team2Color != "#0000FF" {
		t.Errorf("StartAnalysis = %+v", start)
	}

	b.DownloadVideo(context.Background(), "")
	exp, ok := d.last().(*command.ExportArtifact)
	if !ok || exp.Kind != artifact.Video {
		t.Errorf("DownloadVideo dispatched %#v", d.last())
	}

	b.DownloadJSON(context.Background(), "json/run.json")
	exp, ok = d.last().(*command.ExportArtifact)
	if !ok || exp.Kind != artifact.JSON || exp.RelativePath != "json/run.json" {
		t.Errorf("DownloadJSON dispatched %#v", d.last())
	}
}

func TestBridge_CheckVideoFile(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{name: "present", exists: true},
		{name: "absent", exists: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{response: &application.Response{Success: true, Exists: tt.exists}}
			b := NewUIEventBridge(&BridgeConfig{Dispatcher: d})

			if got := b.CheckVideoFile(); got != tt.exists {
				t.Errorf("CheckVideoFile() = %v, want %v", got, tt.exists)
			}
			if _, ok := d.last().(*command.CheckVideoFile); !ok {
				t.Errorf("dispatched %T, want *command.CheckVideoFile", d.last())
			}
		})
	}
}

func TestBridge_RecentRuns(t *testing.T) {
	runs := []*analysis.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	b := NewUIEventBridge(&BridgeConfig{Dispatcher: &fakeDispatcher{}, History: &fakeHistory{runs: runs}})
	if got := b.RecentRuns(2); len(got) != 2 {
		t.Errorf("RecentRuns(2) returned %d runs", len(got))
	}

	b = NewUIEventBridge(&BridgeConfig{Dispatcher: &fakeDispatcher{}, History: &fakeHistory{err: errors.New("down")}})
	if got := b.RecentRuns(2); got != nil {
		t.Errorf("RecentRuns with failing history = %v, want nil", got)
	}

	b = NewUIEventBridge(&BridgeConfig{Dispatcher: &fakeDispatcher{}})
	if got := b.RecentRuns(2); got != nil {
		t.Errorf("RecentRuns without history = %v, want nil", got)
	}
}

func TestBridge_RoutesEvents(t *testing.T) {
	bus := eventbus.New(10)
	defer bus.Close()

	b := NewUIEventBridge(&BridgeConfig{Dispatcher: &fakeDispatcher{}, EventBus: bus})
	defer b.Close()

	var mu sync.Mutex
	var got []string
	record := func(s string) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}
	done := make(chan struct{})

	b.SetCallbacks(&UICallbacks{
		OnAnalysisStarted: func(jobID, videoPath string, team1, team2 color.RGB) {
			record("started:" + jobID + ":" + team1.Hex() + ":" + team2.Hex())
		},
		OnAnalysisAborted: func(jobID string, err error) {
			record("aborted:" + jobID + ":" + err.Error())
		},
		OnAnalysisCompleted: func(jobID string, success bool, status analysis.Status, exitCode int) {
			record("completed:" + jobID + ":" + status.String())
		},
		OnJobStateChanged: func(jobID string, oldState, newState state.JobState) {
			record("state:" + newState.String())
		},
		OnVideoSaved: func(path string, size int) {
			record("saved:" + path)
		},
		OnArtifactExported: func(kind artifact.Kind, destination string) {
			record("exported:" + destination)
			close(done)
		},
	})

	req, err := analysis.NewRequest("/tmp/in.mp4", "#FF0000", "#00FF00")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	bus.Publish(event.NewAnalysisStarted("job-1", req))
	bus.Publish(event.NewJobStateChanged("job-1", state.StatePending, state.StateRunning))
	bus.Publish(event.NewAnalysisCompleted("job-1", analysis.StatusSucceeded, 0))
	bus.Publish(event.NewAnalysisAborted("job-2", errors.New("no python")))
	bus.Publish(event.NewVideoSaved("/out/input_video.mp4", 3))
	bus.Publish(event.NewArtifactExported(artifact.Video, "/out/tracked_video.mp4", "/home/u/out.mp4"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for events")
	}

	want := []string{
		"started:job-1:#ff0000:#00ff00",
		"state:Running",
		"completed:job-1:Succeeded",
		"aborted:job-2:no python",
		"saved:/out/input_video.mp4",
		"exported:/home/u/out.mp4",
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBridge_NilCallbacks(t *testing.T) {
	b := NewUIEventBridge(&BridgeConfig{Dispatcher: &fakeDispatcher{}})
	b.SetCallbacks(nil)

	// Must not panic
	b.handleEvent(event.NewAnalysisAborted("job-1", errors.New("x")))

	b.SetCallbacks(&UICallbacks{})
	b.handleEvent(event.NewAnalysisCompleted("job-1", analysis.StatusFailed, 2))
}
