// Package analysis defines analysis requests, their outcomes and run history.
package analysis

import (
	"errors"
	"fmt"
	"path/filepath"

	"pitchtrack-go/domain/color"
)

// Flags understood by the external analyzer.
const (
	FlagTeam1Color = "--team1-color"
	FlagTeam2Color = "--team2-color"
)

var (
	// ErrInvalidTeamColor wraps color.ErrInvalidHex with the offending team.
	ErrInvalidTeamColor = errors.New("invalid team colors")
	// ErrEmptyVideoPath is returned when no video was given.
	ErrEmptyVideoPath = errors.New("video path is required")
)

// Request is a single analysis run: one video, two team colors.
type Request struct {
	VideoPath string
	Team1     color.RGB
	Team2     color.RGB
}

// NewRequest validates hex colors and builds a Request.
// No partial request is returned on error.
func NewRequest(videoPath, team1Hex, team2Hex string) (*Request, error) {
	if videoPath == "" {
		return nil, ErrEmptyVideoPath
	}

	team1, err := color.Decode(team1Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: team 1: %w", ErrInvalidTeamColor, err)
	}
	team2, err := color.Decode(team2Hex)
	if err != nil {
		return nil, fmt.Errorf("%w: team 2: %w", ErrInvalidTeamColor, err)
	}

	return &Request{
		VideoPath: videoPath,
		Team1:     team1,
		Team2:     team2,
	}, nil
}

// Args returns the analyzer argument list:
// video path, then --team1-color R G B, then --team2-color R G B.
func (r *Request) Args() []string {
	args := make([]string, 0, 9)
	args = append(args, r.VideoPath)
	args = append(args, FlagTeam1Color)
	args = append(args, r.Team1.Args()...)
	args = append(args, FlagTeam2Color)
	args = append(args, r.Team2.Args()...)
	return args
}

// VideoName returns the base name of the video for display.
func (r *Request) VideoName() string {
	return filepath.Base(r.VideoPath)
}

// Status is how an analyzer process ended.
type Status int

const (
	// StatusSucceeded means exit code 0.
	StatusSucceeded Status = iota
	// StatusFailed means a non-zero exit code.
	StatusFailed
	// StatusKilled means the process was terminated by a signal.
	StatusKilled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "Succeeded"
	case StatusFailed:
		return "Failed"
	case StatusKilled:
		return "Killed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Success collapses the status to the boolean reported to the UI.
func (s Status) Success() bool {
	return s == StatusSucceeded
}
