package stats

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/ctessum/geom"

	"github.com/leiwu/speiwatch/internal/geo"
)

func rect(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}}
}

// rollupFixture is a 4x4 grid (lats 40..40.75, lons 100..100.75) with three
// well-separated children: alpha has two extreme-dry cells, beta one
// moderate-dry cell, gamma only normal-or-wet cells.
func rollupFixture(t *testing.T) (*geo.CellIndex, geo.Region, []geo.Region) {
	t.Helper()
	g := newGrid(t, 4, 4,
		[]float64{
			-3.0, -2.5, 0.1, 0.2,
			-1.2, 0.0, 0.3, 0.4,
			0.5, 1.2, 0.6, 0.7,
			0.8, 0.9, 1.0, 1.1,
		},
		[]float64{40, 40.25, 40.5, 40.75},
		[]float64{100, 100.25, 100.5, 100.75},
		0.25,
	)
	parent := geo.Region{Name: "province", Geom: rect(99.8, 39.8, 100.9, 40.9)}
	children := []geo.Region{
		{Name: "alpha", Parent: "province", Geom: rect(99.85, 39.85, 100.35, 40.1)},
		{Name: "beta", Parent: "province", Geom: rect(99.85, 40.15, 100.35, 40.35)},
		{Name: "gamma", Parent: "province", Geom: rect(99.85, 40.4, 100.35, 40.6)},
	}
	return geo.NewCellIndex(g), parent, children
}

func TestRollupRanking(t *testing.T) {
	idx, parent, children := rollupFixture(t)

	res, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := len(res.Rows); got != 3 {
		t.Fatalf("len(Rows) = %d, want 3", got)
	}
	wantOrder := []string{"alpha", "beta", "gamma"}
	for i, want := range wantOrder {
		if res.Rows[i].Region != want {
			t.Errorf("rank %d = %s, want %s", i, res.Rows[i].Region, want)
		}
	}
	if res.Rows[0].Hazard <= res.Rows[1].Hazard {
		t.Errorf("hazard not descending: %v then %v", res.Rows[0].Hazard, res.Rows[1].Hazard)
	}
	if res.Rows[2].Hazard != 0 {
		t.Errorf("gamma hazard = %v, want 0", res.Rows[2].Hazard)
	}

	if res.Parent.Cells != 16 {
		t.Errorf("parent cells = %d, want 16", res.Parent.Cells)
	}
}

// A child whose polygon misses every cell is omitted, not an error.
func TestRollupOmitsEmptyChildren(t *testing.T) {
	idx, parent, children := rollupFixture(t)
	children = append(children, geo.Region{Name: "delta", Geom: rect(90, 30, 91, 31)})

	res, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3 (delta omitted)", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row.Region == "delta" {
			t.Error("delta should have been omitted")
		}
	}
	if len(res.RegionErrors) != 0 {
		t.Errorf("RegionErrors = %v, want none", res.RegionErrors)
	}
}

// A malformed child fails alone; its siblings still report.
func TestRollupIsolatesMalformedGeometry(t *testing.T) {
	idx, parent, children := rollupFixture(t)
	children = append(children, geo.Region{Name: "epsilon", Geom: geom.Polygon{}})

	res, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3", len(res.Rows))
	}
	if len(res.RegionErrors) != 1 {
		t.Fatalf("RegionErrors = %v, want one entry", res.RegionErrors)
	}
	if !errors.Is(res.RegionErrors["epsilon"], geo.ErrMalformedGeometry) {
		t.Errorf("epsilon error = %v, want ErrMalformedGeometry", res.RegionErrors["epsilon"])
	}
}

// Ranking is a pure function of the stats: shuffled input order and parallel
// execution both produce identical output.
func TestRollupOrderInvariance(t *testing.T) {
	idx, parent, children := rollupFixture(t)

	base, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	permutations := [][]int{{2, 0, 1}, {1, 2, 0}, {2, 1, 0}}
	for _, perm := range permutations {
		shuffled := make([]geo.Region, len(children))
		for i, j := range perm {
			shuffled[i] = children[j]
		}
		got, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, shuffled)
		if err != nil {
			t.Fatalf("Run(shuffled): %v", err)
		}
		if !reflect.DeepEqual(got.Rows, base.Rows) {
			t.Errorf("shuffled order %v changed the ranked output", perm)
		}
	}

	parallel, err := Rollup{Workers: 4}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run(parallel): %v", err)
	}
	if !reflect.DeepEqual(parallel.Rows, base.Rows) {
		t.Error("parallel execution changed the ranked output")
	}
}

// Equal hazard totals rank by name, ascending, every time.
func TestRollupTieBreakByName(t *testing.T) {
	idx, parent, _ := rollupFixture(t)

	// Both cover exactly the cell at (0,0), so their hazard totals are equal.
	same := rect(99.85, 39.85, 100.1, 40.1)
	children := []geo.Region{
		{Name: "yankee", Geom: same},
		{Name: "xray", Geom: same},
	}

	for i := 0; i < 5; i++ {
		res, err := Rollup{Workers: 2}.Run(context.Background(), idx, 0.25, parent, children)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(res.Rows) != 2 {
			t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
		}
		if res.Rows[0].Hazard != res.Rows[1].Hazard {
			t.Fatalf("fixture broken: hazards differ (%v vs %v)", res.Rows[0].Hazard, res.Rows[1].Hazard)
		}
		if res.Rows[0].Region != "xray" || res.Rows[1].Region != "yankee" {
			t.Fatalf("tie order = [%s, %s], want [xray, yankee]", res.Rows[0].Region, res.Rows[1].Region)
		}
	}
}

// The parent figure comes from the parent's own polygon only.
func TestRollupParentIndependentOfChildren(t *testing.T) {
	idx, parent, children := rollupFixture(t)

	with, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	without, err := Rollup{}.Run(context.Background(), idx, 0.25, parent, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(with.Parent, without.Parent) {
		t.Error("parent stat depends on the child list")
	}
}

func TestRollupObserver(t *testing.T) {
	idx, parent, children := rollupFixture(t)

	var names []string
	var lastDone int
	obs := func(region string, done, total int) {
		names = append(names, region)
		lastDone = done
		if total != len(children) {
			t.Errorf("observer total = %d, want %d", total, len(children))
		}
	}

	_, err := Rollup{Workers: 3, Observer: obs}.Run(context.Background(), idx, 0.25, parent, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(names) != len(children) {
		t.Fatalf("observer called %d times, want %d", len(names), len(children))
	}
	if lastDone != len(children) {
		t.Errorf("final done = %d, want %d", lastDone, len(children))
	}
	sort.Strings(names)
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("observed regions = %v, want %v", names, want)
	}
}

func TestRollupCancellation(t *testing.T) {
	idx, parent, children := rollupFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rollup{}.Run(ctx, idx, 0.25, parent, children)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRollupWholeExtentParent(t *testing.T) {
	idx, _, children := rollupFixture(t)

	res, err := Rollup{}.Run(context.Background(), idx, 0.25, geo.Region{Name: "everything"}, children)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Parent.Cells != 16 {
		t.Errorf("whole-extent parent cells = %d, want 16", res.Parent.Cells)
	}
	if math.Abs(res.Parent.Total-res.Parent.HazardArea()-sumWet(res.Parent)) > 1e-9 {
		t.Errorf("total %v does not decompose into hazard %v + rest %v",
			res.Parent.Total, res.Parent.HazardArea(), sumWet(res.Parent))
	}
}

func sumWet(st AreaStat) float64 {
	s := 0.0
	for i := 3; i < len(st.Buckets); i++ {
		s += st.Buckets[i]
	}
	return s
}
