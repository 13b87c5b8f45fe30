package command

import "pitchtrack-go/domain/artifact"

// SaveVideo stores the uploaded video bytes as the analysis input.
type SaveVideo struct {
	Data []byte
}

func (c *SaveVideo) CommandName() string {
	return "SaveVideo"
}

// ExportArtifact copies an artifact out of the output directory to a
// location chosen in a save dialog.
type ExportArtifact struct {
	Kind artifact.Kind
	// RelativePath is resolved against the output directory
	RelativePath string
}

// NewDownloadVideo exports the tracked video.
func NewDownloadVideo(relativePath string) *ExportArtifact {
	return &ExportArtifact{Kind: artifact.Video, RelativePath: relativePath}
}

// NewDownloadJSON exports the tracking data.
func NewDownloadJSON(relativePath string) *ExportArtifact {
	return &ExportArtifact{Kind: artifact.JSON, RelativePath: relativePath}
}

func (c *ExportArtifact) CommandName() string {
	return "ExportArtifact"
}

func (c *ExportArtifact) requestName() string {
	if c.Kind == artifact.JSON {
		return "download-json"
	}
	return "download-video"
}

// CheckVideoFile asks whether the tracked video exists.
type CheckVideoFile struct{}

func (c *CheckVideoFile) CommandName() string {
	return "CheckVideoFile"
}
