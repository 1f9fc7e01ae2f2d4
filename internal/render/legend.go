package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/leiwu/speiwatch/internal/classify"
)

const (
	legendHeight  = 24
	swatchSize    = 14
	swatchPad     = 4
	entryGap      = 12
	legendMarginX = 8
)

// Legend renders a horizontal strip of the seven severity swatches with
// their labels, driest first.
func Legend() ([]byte, error) {
	face := basicfont.Face7x13

	width := legendMarginX
	for _, b := range classify.Buckets() {
		label := classify.Label(b)
		width += swatchSize + swatchPad + font.MeasureString(face, label).Ceil() + entryGap
	}
	width += legendMarginX - entryGap

	img := image.NewRGBA(image.Rect(0, 0, width, legendHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	swatchTop := (legendHeight - swatchSize) / 2
	baseline := (legendHeight + face.Ascent) / 2

	x := legendMarginX
	for _, b := range classify.Buckets() {
		swatch := image.Rect(x, swatchTop, x+swatchSize, swatchTop+swatchSize)
		draw.Draw(img, swatch, image.NewUniform(classify.RGBA(b)), image.Point{}, draw.Src)
		x += swatchSize + swatchPad

		label := classify.Label(b)
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{33, 33, 33, 255}),
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
		}
		d.DrawString(label)
		x += font.MeasureString(face, label).Ceil() + entryGap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode legend: %w", err)
	}
	return buf.Bytes(), nil
}
