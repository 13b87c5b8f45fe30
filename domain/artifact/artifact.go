// Package artifact names the files staged in the output directory.
package artifact

import "fmt"

// Well-known file names inside the output directory.
const (
	InputVideo   = "input_video.mp4"
	TrackedVideo = "tracked_video.mp4"
	TrackingData = "tracking_data.json"

	// JSONDir is where the analyzer may drop timestamped tracking files.
	JSONDir = "json"
)

// Kind identifies an exportable artifact.
type Kind int

const (
	// Video is the annotated output video.
	Video Kind = iota
	// JSON is the tracking data document.
	JSON
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "Video"
	case JSON:
		return "JSON"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// SaveTitle is the title of the save dialog for this kind.
func (k Kind) SaveTitle() string {
	switch k {
	case Video:
		return "Save Video"
	case JSON:
		return "Save JSON"
	default:
		return "Save File"
	}
}

// DefaultName is the file name suggested in the save dialog.
func (k Kind) DefaultName() string {
	switch k {
	case Video:
		return TrackedVideo
	case JSON:
		return TrackingData
	default:
		return ""
	}
}

// Extensions lists the extensions accepted by the save dialog filter.
func (k Kind) Extensions() []string {
	switch k {
	case Video:
		return []string{".mp4"}
	case JSON:
		return []string{".json"}
	default:
		return nil
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == Video || k == JSON
}
