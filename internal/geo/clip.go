package geo

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/leiwu/speiwatch/internal/raster"
)

// CellIndex is an r-tree over a grid's valid cells. It is built once per
// raster and shared by every region clipped against that raster, so a rollup
// over many children pays the indexing cost a single time. The index is
// read-only after construction and safe for concurrent clips.
type CellIndex struct {
	tree *rtree.Rtree
	all  []raster.Cell
}

type indexedCell struct {
	geom.Polygonal
	cell raster.Cell
}

// NewCellIndex indexes the valid cells of a grid for clipping.
func NewCellIndex(g *raster.Grid) *CellIndex {
	tree := rtree.NewTree(25, 50)
	all := g.ValidCells()
	for _, c := range all {
		tree.Insert(&indexedCell{
			Polygonal: g.CellBounds(c.Row, c.Col),
			cell:      c,
		})
	}
	return &CellIndex{tree: tree, all: all}
}

// Cells returns every valid cell in the index, in row-major order.
func (ci *CellIndex) Cells() []raster.Cell {
	out := make([]raster.Cell, len(ci.all))
	copy(out, ci.all)
	return out
}

// Clip returns the valid cells whose center point lies inside the region's
// polygon. Multi-part polygons behave as a union: a cell counts if its
// center falls in any part. A nil polygon passes every valid cell
// (whole-extent analysis). Zero matching cells is a legitimate "no data for
// this region" outcome, returned as an empty slice, never as an error.
func (ci *CellIndex) Clip(r Region) ([]raster.Cell, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("region %q: %w", r.Name, err)
	}
	if r.Geom == nil {
		return ci.Cells(), nil
	}

	var out []raster.Cell
	for _, item := range ci.tree.SearchIntersect(r.Geom.Bounds()) {
		ic := item.(*indexedCell)
		pt := geom.Point{X: ic.cell.Lon, Y: ic.cell.Lat}
		if pt.Within(r.Geom) == geom.Inside {
			out = append(out, ic.cell)
		}
	}

	// Row-major output regardless of tree traversal order, so repeated
	// clips are byte-for-byte reproducible.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, nil
}
