package warnings

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/leiwu/speiwatch/internal/geo"
	"github.com/leiwu/speiwatch/internal/metrics"
	"github.com/leiwu/speiwatch/internal/models"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/regions"
	"github.com/leiwu/speiwatch/internal/stats"
	"github.com/leiwu/speiwatch/internal/store"
)

// ActiveWindow is how long a warning stays active without being refreshed.
// Rasters arrive monthly with a publishing delay, so two months covers one
// missed cycle before a warning ages out.
const ActiveWindow = 62 * 24 * time.Hour

// Evaluator recomputes drought warnings whenever a new raster period
// arrives. The ingest scheduler calls it through its analyzer hook.
type Evaluator struct {
	store      *store.Store
	source     raster.Source
	cache      *regions.Cache
	client     *regions.Client
	parentName string
	workers    int
}

func NewEvaluator(st *store.Store, src raster.Source, cache *regions.Cache, client *regions.Client, parentName string, workers int) *Evaluator {
	return &Evaluator{
		store:      st,
		source:     src,
		cache:      cache,
		client:     client,
		parentName: parentName,
		workers:    workers,
	}
}

// Evaluate rolls up the period across the region tree and upserts or clears
// a warning per region. Regions that drop below the watch threshold are
// cleared; regions with no valid cells are left untouched, since absence of
// data is not evidence of recovery.
func (e *Evaluator) Evaluate(ctx context.Context, p raster.Period) error {
	grid, err := e.source.Grid(ctx, p)
	if err != nil {
		return fmt.Errorf("load %s: %w", p, err)
	}

	all, err := e.cache.Load(ctx, e.client)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	parent, children, err := regions.Tree(all, e.parentName)
	if err != nil {
		return err
	}

	idx := geo.NewCellIndex(grid)
	result, err := stats.Rollup{Workers: e.workers}.Run(ctx, idx, grid.Res, parent, children)
	if err != nil {
		return fmt.Errorf("rollup %s: %w", p, err)
	}
	for region, rerr := range result.RegionErrors {
		log.Printf("warnings: skipping %s: %v", region, rerr)
	}

	now := time.Now().UTC()
	if err := e.apply(result.Parent, p, now); err != nil {
		return err
	}
	for _, row := range result.Rows {
		if err := e.apply(row.AreaStat, p, now); err != nil {
			return err
		}
	}

	e.updateGauge()
	log.Printf("warnings: evaluated %s: parent %s at %.1f%% hazard",
		p, parent.Name, result.Parent.HazardPct())
	return nil
}

func (e *Evaluator) apply(st stats.AreaStat, p raster.Period, now time.Time) error {
	level := LevelFor(st.HazardPct())
	if level == LevelNone {
		if err := e.store.ClearWarning(st.Region, string(p.Scale)); err != nil {
			return fmt.Errorf("clear warning %s: %w", st.Region, err)
		}
		return nil
	}

	w := models.Warning{
		Region:    st.Region,
		Scale:     string(p.Scale),
		Year:      p.Year,
		Month:     p.Month,
		Level:     string(level),
		HazardPct: st.HazardPct(),
		Headline:  fmt.Sprintf("%.1f%% of %s under drought", st.HazardPct(), st.Region),
	}
	if err := e.store.UpsertWarning(w, now); err != nil {
		return fmt.Errorf("upsert warning %s: %w", st.Region, err)
	}
	return nil
}

func (e *Evaluator) updateGauge() {
	active, err := e.store.ActiveWarnings(ActiveWindow)
	if err != nil {
		log.Printf("warnings: gauge refresh: %v", err)
		return
	}
	counts := make(map[Level]int)
	for _, w := range active {
		counts[Level(w.Level)]++
	}
	for _, l := range []Level{LevelWatch, LevelAlert, LevelEmergency} {
		metrics.ActiveWarnings.WithLabelValues(string(l)).Set(float64(counts[l]))
	}
}
