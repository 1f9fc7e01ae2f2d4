package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// SentinelThreshold marks background fill. The physical index is bounded in
// roughly [-4, 4], so any value at or below -10 is nodata and is excluded
// from classification and every downstream sum.
const SentinelThreshold = -10

// Cell is one valid raster cell: its index value and the geographic
// coordinates of the cell center.
type Cell struct {
	Value float64
	Lat   float64
	Lon   float64
	Row   int
	Col   int
}

// Grid is a regular 2-D raster of index values over a geographic bounding
// box. Values are stored row-major with one latitude per row and one
// longitude per column, both at cell centers. Res is the angular resolution
// in degrees per cell. The geographic mapping of a cell is derived entirely
// from Lats, Lons and Res; the grid carries no calibration offsets.
type Grid struct {
	Data   *sparse.DenseArray
	Lats   []float64
	Lons   []float64
	Res    float64
	Nodata float64
}

// NewGrid builds a grid and checks the shape contract: a positive
// resolution, one latitude per row and one longitude per column. Violations
// indicate a collaborator bug and are returned as errors immediately rather
// than surfacing later as silent misclassification.
func NewGrid(data *sparse.DenseArray, lats, lons []float64, res, nodata float64) (*Grid, error) {
	if res <= 0 {
		return nil, fmt.Errorf("raster: resolution must be positive, got %v", res)
	}
	if data == nil || len(data.Shape) != 2 {
		return nil, fmt.Errorf("raster: grid data must be 2-D")
	}
	if data.Shape[0] != len(lats) {
		return nil, fmt.Errorf("raster: %d rows but %d latitudes", data.Shape[0], len(lats))
	}
	if data.Shape[1] != len(lons) {
		return nil, fmt.Errorf("raster: %d columns but %d longitudes", data.Shape[1], len(lons))
	}
	if len(lats) == 0 || len(lons) == 0 {
		return nil, fmt.Errorf("raster: empty grid")
	}
	return &Grid{Data: data, Lats: lats, Lons: lons, Res: res, Nodata: nodata}, nil
}

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.Data.Shape[0] }

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.Data.Shape[1] }

// Value returns the raw cell value, sentinel fill included.
func (g *Grid) Value(row, col int) float64 {
	return g.Data.Get(row, col)
}

// Valid reports whether the cell holds a real measurement rather than
// sentinel fill or NaN.
func (g *Grid) Valid(row, col int) bool {
	v := g.Data.Get(row, col)
	return !math.IsNaN(v) && v > SentinelThreshold
}

// Center returns the cell-center point, longitude as X and latitude as Y.
func (g *Grid) Center(row, col int) geom.Point {
	return geom.Point{X: g.Lons[col], Y: g.Lats[row]}
}

// CellBounds returns the cell's geographic footprint, a Res-sized square
// around its center.
func (g *Grid) CellBounds(row, col int) *geom.Bounds {
	h := g.Res / 2
	return &geom.Bounds{
		Min: geom.Point{X: g.Lons[col] - h, Y: g.Lats[row] - h},
		Max: geom.Point{X: g.Lons[col] + h, Y: g.Lats[row] + h},
	}
}

// Bounds returns the outer geographic extent of the raster, derived from the
// coordinate vectors and resolution. Works for both ascending and descending
// latitude order.
func (g *Grid) Bounds() *geom.Bounds {
	h := g.Res / 2
	return &geom.Bounds{
		Min: geom.Point{X: floats.Min(g.Lons) - h, Y: floats.Min(g.Lats) - h},
		Max: geom.Point{X: floats.Max(g.Lons) + h, Y: floats.Max(g.Lats) + h},
	}
}

// ValidCells applies the sentinel mask and returns every valid cell with its
// center coordinates. An empty result is a legal outcome (a raster that is
// all fill), not an error; callers must tolerate zero cells.
func (g *Grid) ValidCells() []Cell {
	cells := make([]Cell, 0, g.Rows()*g.Cols())
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if !g.Valid(r, c) {
				continue
			}
			cells = append(cells, Cell{
				Value: g.Data.Get(r, c),
				Lat:   g.Lats[r],
				Lon:   g.Lons[c],
				Row:   r,
				Col:   c,
			})
		}
	}
	return cells
}

// ValidCount returns the number of cells passing the sentinel mask.
func (g *Grid) ValidCount() int {
	n := 0
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			if g.Valid(r, c) {
				n++
			}
		}
	}
	return n
}
