package event

import "pitchtrack-go/domain/artifact"

// VideoSaved is published after the uploaded video was written to the output directory.
type VideoSaved struct {
	Path string
	Size int
}

func NewVideoSaved(path string, size int) *VideoSaved {
	return &VideoSaved{Path: path, Size: size}
}

func (e *VideoSaved) EventName() string {
	return "VideoSaved"
}

// ArtifactExported is published after an artifact was copied to a user location.
type ArtifactExported struct {
	Kind        artifact.Kind
	Source      string
	Destination string
}

func NewArtifactExported(kind artifact.Kind, source, destination string) *ArtifactExported {
	return &ArtifactExported{Kind: kind, Source: source, Destination: destination}
}

func (e *ArtifactExported) EventName() string {
	return "ArtifactExported"
}
