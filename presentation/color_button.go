package presentation

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pitchtrack-go/domain/color"
)

// colorButton is a tappable swatch showing a team color.
// An invalid hex keeps the last valid color.
type colorButton struct {
	widget.BaseWidget
	rect     *canvas.Rectangle
	current  color.RGB
	onTapped func()
}

func newColorButton(hex string, onTapped func()) *colorButton {
	b := &colorButton{
		rect:     canvas.NewRectangle(theme.Color(theme.ColorNameDisabled)),
		onTapped: onTapped,
	}
	b.ExtendBaseWidget(b)
	b.rect.StrokeColor = theme.Color(theme.ColorNameForeground)
	b.rect.StrokeWidth = 1
	b.rect.CornerRadius = 4
	b.rect.SetMinSize(fyne.NewSize(36, 36))
	b.SetHex(hex)
	return b
}

// SetHex updates the swatch. It reports whether hex was valid.
func (b *colorButton) SetHex(hex string) bool {
	c, err := color.Decode(hex)
	if err != nil {
		return false
	}
	b.current = c
	b.rect.FillColor = c.RGBA()
	b.rect.Refresh()
	return true
}

// Color returns the shown color.
func (b *colorButton) Color() color.RGB {
	return b.current
}

// CreateRenderer creates the widget renderer.
func (b *colorButton) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.rect)
}

// Tapped handles tap events.
func (b *colorButton) Tapped(*fyne.PointEvent) {
	if b.onTapped != nil {
		b.onTapped()
	}
}

// MinSize returns the minimum size of the swatch.
func (b *colorButton) MinSize() fyne.Size {
	return b.rect.MinSize()
}
