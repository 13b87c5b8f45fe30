package event

import (
	"pitchtrack-go/domain/analysis"
	"pitchtrack-go/domain/color"
)

// AnalysisStarted is published once a request is validated, before the
// analyzer is spawned. The presentation layer opens the progress window on it.
type AnalysisStarted struct {
	baseJobEvent
	VideoPath string
	Team1     color.RGB
	Team2     color.RGB
}

func NewAnalysisStarted(jobID string, req *analysis.Request) *AnalysisStarted {
	return &AnalysisStarted{
		baseJobEvent: baseJobEvent{jobID: jobID},
		VideoPath:    req.VideoPath,
		Team1:        req.Team1,
		Team2:        req.Team2,
	}
}

func (e *AnalysisStarted) EventName() string {
	return "AnalysisStarted"
}

// AnalysisAborted is published when the analyzer could not be spawned.
// No AnalysisCompleted follows it.
type AnalysisAborted struct {
	baseJobEvent
	Error error
}

func NewAnalysisAborted(jobID string, err error) *AnalysisAborted {
	return &AnalysisAborted{
		baseJobEvent: baseJobEvent{jobID: jobID},
		Error:        err,
	}
}

func (e *AnalysisAborted) Terminal() {}

func (e *AnalysisAborted) EventName() string {
	return "AnalysisAborted"
}

// AnalysisCompleted is published exactly once when the analyzer exits.
type AnalysisCompleted struct {
	baseJobEvent
	// Success is true only for exit code 0
	Success  bool
	Status   analysis.Status
	ExitCode int
}

func NewAnalysisCompleted(jobID string, status analysis.Status, exitCode int) *AnalysisCompleted {
	return &AnalysisCompleted{
		baseJobEvent: baseJobEvent{jobID: jobID},
		Success:      status.Success(),
		Status:       status,
		ExitCode:     exitCode,
	}
}

func (e *AnalysisCompleted) Terminal() {}

func (e *AnalysisCompleted) EventName() string {
	return "AnalysisCompleted"
}
