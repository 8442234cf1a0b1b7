package visdiff

import (
	"image"
	"strconv"
	"strings"

	"github.com/pagefuse/pagefuse/element"
)

// DominantColor reduces a raster to its single-cluster quantized color: the
// mean of all pixels. Good enough to notice a hover restyle; not a palette.
func DominantColor(img image.Image) element.RGB {
	bounds := img.Bounds()
	n := uint64(bounds.Dx()) * uint64(bounds.Dy())
	if n == 0 {
		return element.RGB{}
	}

	var sr, sg, sb uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sr += uint64(r >> 8)
			sg += uint64(g >> 8)
			sb += uint64(b >> 8)
		}
	}
	return element.RGB{
		R: uint8(sr / n),
		G: uint8(sg / n),
		B: uint8(sb / n),
	}
}

// ParseCSSDimension parses a computed-style length or plain number ("140px",
// "0.5") into its numeric value. Non-numeric keywords like "auto" report
// false.
func ParseCSSDimension(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
