// Package command defines all commands that can be sent to the application.
// Commands represent user intentions and are processed by the application layer.
package command

// Command is the base interface for all commands.
// Commands are sent from the presentation layer to the application layer.
type Command interface {
	// CommandName returns the name of the command for logging/debugging
	CommandName() string
}

// RequestName maps a command to the IPC request name used by the UI layer.
func RequestName(cmd Command) string {
	switch c := cmd.(type) {
	case *SaveVideo:
		return "save-video"
	case *StartAnalysis:
		return "start-analysis"
	case *ExportArtifact:
		return c.requestName()
	case *CheckVideoFile:
		return "check-video-file"
	default:
		return ""
	}
}
