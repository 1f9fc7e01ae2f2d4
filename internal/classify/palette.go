package classify

import (
	"image/color"
	"strconv"
)

// colors is a seven-class diverging red-blue ramp, dry buckets in reds and
// wet buckets in blues, matching the map overlay and legend.
var colors = map[Bucket]string{
	ExtremeDry:  "#ca0020",
	SevereDry:   "#f4a582",
	ModerateDry: "#fddbc7",
	Normal:      "#f7f7f7",
	ModerateWet: "#d1e5f0",
	SevereWet:   "#92c5de",
	ExtremeWet:  "#0571b0",
}

// DefaultColor is the fallback for unknown buckets.
const DefaultColor = "#f7f7f7"

// Color returns the display color for a bucket as a hex RGB string.
func Color(b Bucket) string {
	if c, ok := colors[b]; ok {
		return c
	}
	return DefaultColor
}

// RGBA returns the display color for a bucket as an opaque RGBA value,
// for direct use when compositing overlay images.
func RGBA(b Bucket) color.RGBA {
	return hexRGBA(Color(b))
}

func hexRGBA(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{A: 0xff}
	}
	r, err1 := strconv.ParseUint(hex[1:3], 16, 8)
	g, err2 := strconv.ParseUint(hex[3:5], 16, 8)
	b, err3 := strconv.ParseUint(hex[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}
}
