package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/raster"
)

func testGrid(t *testing.T, values []float64, lats []float64) *raster.Grid {
	t.Helper()
	rows, cols := len(lats), len(values)/len(lats)
	data := sparse.ZerosDense(rows, cols)
	copy(data.Elements, values)
	lons := make([]float64, cols)
	for i := range lons {
		lons[i] = 100 + 0.25*float64(i)
	}
	g, err := raster.NewGrid(data, lats, lons, 0.25, -9999)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestOverlay(t *testing.T) {
	// Row 0 is the southern row (ascending lats): extreme dry and normal.
	// Row 1 is the northern row: extreme wet and sentinel.
	g := testGrid(t, []float64{
		-3.0, 0.5,
		2.5, -9999,
	}, []float64{40, 40.25})

	data, err := Overlay(g, g.ValidCells(), 10)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("bounds = %v, want 20x20", img.Bounds())
	}

	// North-up: the wet cell (row 1, northern) renders in the top half.
	wantWet := classify.RGBA(classify.ExtremeWet)
	r, gg, b, a := img.At(5, 5).RGBA()
	if uint8(r>>8) != wantWet.R || uint8(gg>>8) != wantWet.G || uint8(b>>8) != wantWet.B || a == 0 {
		t.Errorf("top-left pixel = %v,%v,%v, want extreme-wet %v", r>>8, gg>>8, b>>8, wantWet)
	}

	// The dry cell (row 0, southern) renders in the bottom half.
	wantDry := classify.RGBA(classify.ExtremeDry)
	r, gg, b, _ = img.At(5, 15).RGBA()
	if uint8(r>>8) != wantDry.R || uint8(gg>>8) != wantDry.G || uint8(b>>8) != wantDry.B {
		t.Errorf("bottom-left pixel = %v,%v,%v, want extreme-dry %v", r>>8, gg>>8, b>>8, wantDry)
	}

	// The sentinel cell stays transparent.
	_, _, _, a = img.At(15, 5).RGBA()
	if a != 0 {
		t.Errorf("sentinel cell alpha = %d, want 0", a)
	}
}

func TestOverlayClippedCellsOnly(t *testing.T) {
	g := testGrid(t, []float64{-3.0, -3.0}, []float64{40})

	// Pass only the first cell; the second valid cell must stay transparent.
	cells := g.ValidCells()[:1]
	data, err := Overlay(g, cells, 1)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}

	_, _, _, a := img.At(0, 0).RGBA()
	if a == 0 {
		t.Error("clipped-in cell transparent")
	}
	_, _, _, a = img.At(1, 0).RGBA()
	if a != 0 {
		t.Error("cell outside the clip painted")
	}
}

func TestLegend(t *testing.T) {
	data, err := Legend()
	if err != nil {
		t.Fatalf("Legend: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dy() != legendHeight {
		t.Errorf("height = %d, want %d", img.Bounds().Dy(), legendHeight)
	}
	if img.Bounds().Dx() < 7*swatchSize {
		t.Errorf("width = %d, too narrow for 7 swatches", img.Bounds().Dx())
	}

	// First swatch carries the extreme-dry color.
	want := classify.RGBA(classify.ExtremeDry)
	r, g, b, _ := img.At(legendMarginX+swatchSize/2, legendHeight/2).RGBA()
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("first swatch = %v,%v,%v, want %v", r>>8, g>>8, b>>8, want)
	}
}
