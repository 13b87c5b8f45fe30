// Package resources holds files embedded into the binary.
package resources

import (
	_ "embed"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

//go:embed config.default.yaml
var DefaultConfig []byte

// GetAppIcon returns the window and taskbar icon.
func GetAppIcon() fyne.Resource {
	return theme.MediaVideoIcon()
}
