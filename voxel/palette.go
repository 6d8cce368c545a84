package voxel

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const PaletteSize = 64

// Palette maps voxel color indices to hex colors. Index 0 is empty and fully transparent.
var Palette [PaletteSize]string

func init() {
	Palette[0] = "#00000000"
	// 3 value bands x 21 hues
	for i := 1; i < PaletteSize; i++ {
		band := (i - 1) / 21
		hue := float64((i-1)%21) * (360.0 / 21.0)
		c := colorful.Hsv(hue, 0.75, 1.0-0.25*float64(band))
		Palette[i] = c.Clamped().Hex()
	}
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa" into sRGB components in 0..1.
func ParseHexColor(hex string) ([4]float32, error) {
	alpha := float32(1)
	if len(hex) == 9 {
		var a uint8
		if _, err := fmt.Sscanf(hex[7:], "%02x", &a); err != nil {
			return [4]float32{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		alpha = float32(a) / 255
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return [4]float32{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), alpha}, nil
}

// RGBA returns the palette color of index i.
func RGBA(i uint8) [4]float32 {
	c, err := ParseHexColor(Palette[int(i)%PaletteSize])
	if err != nil {
		// the palette is generated above; a parse failure is a bug
		panic(err)
	}
	return c
}
