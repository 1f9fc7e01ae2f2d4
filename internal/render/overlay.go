package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/raster"
)

// Overlay paints classified cells onto a transparent canvas sized after the
// grid and upscaled by scale. Cells not in the list (sentinel fill, or
// outside the clipped region) stay fully transparent, so the PNG can sit on
// a basemap. The image is north-up regardless of the grid's latitude order.
func Overlay(g *raster.Grid, cells []raster.Cell, scale int) ([]byte, error) {
	if scale < 1 {
		scale = 1
	}

	w := g.Cols() * scale
	h := g.Rows() * scale
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// Row 0 maps to the top of the image only when latitudes descend.
	flip := len(g.Lats) > 1 && g.Lats[0] < g.Lats[len(g.Lats)-1]

	for _, c := range cells {
		col := classify.RGBA(classify.Classify(c.Value))
		row := c.Row
		if flip {
			row = g.Rows() - 1 - c.Row
		}
		x0 := c.Col * scale
		y0 := row * scale
		for y := y0; y < y0+scale; y++ {
			for x := x0; x < x0+scale; x++ {
				img.SetRGBA(x, y, col)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}
