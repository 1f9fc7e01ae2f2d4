package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/raster"
)

// AreaStat is the per-bucket area accounting for one region, in
// ten-thousand km². Buckets is indexed by classifier rank (driest first) so
// that iteration order is fixed and never depends on map ordering. Total is
// the sum of all seven buckets.
type AreaStat struct {
	Region  string
	Buckets [classify.NumBuckets]float64
	Total   float64
	Cells   int
	Min     float64
	Max     float64
}

// Bucket returns the accumulated area for one severity bucket.
func (s AreaStat) Bucket(b classify.Bucket) float64 {
	r := classify.Rank(b)
	if r < 0 {
		return 0
	}
	return s.Buckets[r]
}

// HazardArea is the sum of the three driest buckets, the figure regions are
// ranked by.
func (s AreaStat) HazardArea() float64 {
	return s.Buckets[0] + s.Buckets[1] + s.Buckets[2]
}

// HazardPct is the hazard area as a percentage of the region total, 0 for an
// empty region.
func (s AreaStat) HazardPct() float64 {
	if s.Total == 0 {
		return 0
	}
	return s.HazardArea() / s.Total * 100
}

// Aggregate classifies a cell set and accumulates the true area per severity
// bucket. res is the angular resolution the cells were sampled at and must
// be positive. An empty cell set yields the zero AreaStat (Cells == 0),
// which callers treat as "no data for this region" rather than a failure.
func Aggregate(region string, cells []raster.Cell, res float64) (AreaStat, error) {
	if res <= 0 {
		return AreaStat{}, fmt.Errorf("aggregate %q: resolution must be positive, got %v", region, res)
	}

	st := AreaStat{Region: region}
	if len(cells) == 0 {
		return st, nil
	}

	values := make([]float64, len(cells))
	for i, c := range cells {
		values[i] = c.Value
		st.Buckets[classify.Rank(classify.Classify(c.Value))] += CellAreaUnits(c.Lat, res)
	}
	st.Total = floats.Sum(st.Buckets[:])
	st.Cells = len(cells)
	st.Min = floats.Min(values)
	st.Max = floats.Max(values)
	return st, nil
}

// RegionReport is one ranked rollup row: a child region's AreaStat plus its
// hazard total.
type RegionReport struct {
	AreaStat
	Hazard float64
}
