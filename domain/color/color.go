// Package color converts team colors between their hex form and RGB triples.
package color

import (
	"errors"
	"fmt"
	imgcolor "image/color"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned when a string is not a 6-digit hex color.
var ErrInvalidHex = errors.New("invalid hex color")

// RGB is a color with 8-bit red, green and blue components.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Decode parses "#rrggbb" or "rrggbb" (case-insensitive).
// Shorthand forms like "#abc" are rejected.
func Decode(s string) (RGB, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	var parts [3]uint8
	for i := range parts {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
		parts[i] = uint8(v)
	}

	return RGB{R: parts[0], G: parts[1], B: parts[2]}, nil
}

// IsValid reports whether s decodes to a color.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}

// Hex returns the normalized lowercase "#rrggbb" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Args returns the components as decimal strings in R, G, B order.
func (c RGB) Args() []string {
	return []string{
		strconv.Itoa(int(c.R)),
		strconv.Itoa(int(c.G)),
		strconv.Itoa(int(c.B)),
	}
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// RGBA converts to an opaque image/color value for UI swatches.
func (c RGB) RGBA() imgcolor.NRGBA {
	return imgcolor.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// FromColor drops alpha from any image/color value.
func FromColor(c imgcolor.Color) RGB {
	n := imgcolor.NRGBAModel.Convert(c).(imgcolor.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}
