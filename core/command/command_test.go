package command

import (
	"testing"

	"pitchtrack-go/domain/artifact"
)

func TestCommand_Names(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
		request  string
	}{
		{&SaveVideo{}, "SaveVideo", "save-video"},
		{NewStartAnalysis("/v.mp4", "#fff000", "#000fff"), "StartAnalysis", "start-analysis"},
		{NewDownloadVideo("tracked_video.mp4"), "ExportArtifact", "download-video"},
		{NewDownloadJSON("tracking_data.json"), "ExportArtifact", "download-json"},
		{&CheckVideoFile{}, "CheckVideoFile", "check-video-file"},
	}

	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			if got := tt.cmd.CommandName(); got != tt.expected {
				t.Errorf("CommandName() = %v, want %v", got, tt.expected)
			}
			if got := RequestName(tt.cmd); got != tt.request {
				t.Errorf("RequestName() = %v, want %v", got, tt.request)
			}
		})
	}
}

func TestNewDownload_Kinds(t *testing.T) {
	video := NewDownloadVideo("a.mp4")
	if video.Kind != artifact.Video || video.RelativePath != "a.mp4" {
		t.Errorf("NewDownloadVideo() = %+v", video)
	}

	js := NewDownloadJSON("json/b.json")
	if js.Kind != artifact.JSON || js.RelativePath != "json/b.json" {
		t.Errorf("NewDownloadJSON() = %+v", js)
	}
}

func TestNewStartAnalysis(t *testing.T) {
	cmd := NewStartAnalysis("/tmp/game.mp4", "#FF0000", "#0000FF")

	if cmd.VideoPath != "/tmp/game.mp4" {
		t.Errorf("VideoPath = %v, want /tmp/game.mp4", cmd.VideoPath)
	}
	if cmd.Team1Color != "#FF0000" || cmd.Team2Color != "#0000FF" {
		t.Errorf("colors = %v, %v", cmd.Team1Color, cmd.Team2Color)
	}
}

type unknownCommand struct{}

func (unknownCommand) CommandName() string { return "Unknown" }

func TestRequestName_Unknown(t *testing.T) {
	if got := RequestName(unknownCommand{}); got != "" {
		t.Errorf("RequestName() = %q, want empty", got)
	}
}
