package stats

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leiwu/speiwatch/internal/geo"
)

// Observer receives progress as child regions finish. Calls are serialized.
// Purely informational: omissions and failures are reported through the
// RollupResult, never through the observer.
type Observer func(region string, done, total int)

// Rollup computes ranked per-child drought statistics under one parent
// region. The zero value runs children sequentially; Workers > 1 fans them
// out across goroutines. Per-child work is independent, so the only shared
// state is one result slot per child index, and the ranking sort runs after
// every child has been collected.
type Rollup struct {
	Workers  int
	Observer Observer
}

// RollupResult carries the parent top-line figure, the ranked child rows,
// and any isolated per-region failures.
type RollupResult struct {
	Parent AreaStat
	Rows   []RegionReport

	// RegionErrors maps child region names to their individual failures
	// (malformed geometry). A failed child never aborts its siblings.
	RegionErrors map[string]error
}

// Run clips, classifies and aggregates every child of parent against the
// indexed raster cells, then ranks the survivors by hazard total descending
// with region name ascending as the tie-break. Children with zero valid
// cells are silently omitted. The parent figure is computed from the
// parent's own polygon and does not depend on the child list. res is the
// grid's angular resolution in degrees.
func (ru Rollup) Run(ctx context.Context, idx *geo.CellIndex, res float64, parent geo.Region, children []geo.Region) (RollupResult, error) {
	parentCells, err := idx.Clip(parent)
	if err != nil {
		return RollupResult{}, fmt.Errorf("clip parent: %w", err)
	}
	parentStat, err := Aggregate(parent.Name, parentCells, res)
	if err != nil {
		return RollupResult{}, err
	}

	reports := make([]*RegionReport, len(children))
	errs := make([]error, len(children))

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(name string) {
		if ru.Observer == nil {
			return
		}
		mu.Lock()
		done++
		ru.Observer(name, done, len(children))
		mu.Unlock()
	}

	work := func(i int) {
		if ctx.Err() != nil {
			return
		}
		child := children[i]
		cells, err := idx.Clip(child)
		if err != nil {
			errs[i] = err
			finish(child.Name)
			return
		}
		if len(cells) == 0 {
			finish(child.Name)
			return
		}
		st, err := Aggregate(child.Name, cells, res)
		if err != nil {
			errs[i] = err
			finish(child.Name)
			return
		}
		reports[i] = &RegionReport{AreaStat: st, Hazard: st.HazardArea()}
		finish(child.Name)
	}

	workers := ru.Workers
	if workers <= 1 || len(children) <= 1 {
		for i := range children {
			work(i)
		}
	} else {
		if workers > len(children) {
			workers = len(children)
		}
		jobs := make(chan int)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for i := range jobs {
					work(i)
				}
			}()
		}
		for i := range children {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return RollupResult{}, err
	}

	result := RollupResult{Parent: parentStat}
	for i, rep := range reports {
		if rep != nil {
			result.Rows = append(result.Rows, *rep)
		}
		if errs[i] != nil {
			if result.RegionErrors == nil {
				result.RegionErrors = make(map[string]error)
			}
			result.RegionErrors[children[i].Name] = errs[i]
		}
	}

	// Rank after collection so the order never reflects completion order:
	// hazard total descending, name ascending on ties.
	sort.Slice(result.Rows, func(i, j int) bool {
		if result.Rows[i].Hazard != result.Rows[j].Hazard {
			return result.Rows[i].Hazard > result.Rows[j].Hazard
		}
		return result.Rows[i].Region < result.Rows[j].Region
	})

	return result, nil
}
