package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/leiwu/speiwatch/internal/classify"
	"github.com/leiwu/speiwatch/internal/geo"
	"github.com/leiwu/speiwatch/internal/metrics"
	"github.com/leiwu/speiwatch/internal/models"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/regions"
	"github.com/leiwu/speiwatch/internal/stats"
)

// Assessment is one computed rollup: the grid it ran against, the ranked
// regional result and the synthesized report.
type Assessment struct {
	Period raster.Period
	Grid   *raster.Grid
	Result stats.RollupResult
	Report stats.Report
}

// assess runs the full pipeline for one period: load the grid, clip and
// aggregate the region tree, synthesize the report, and log the run. Every
// served rollup lands in the analysis log, so /history reflects actual
// traffic rather than a separate bookkeeping path.
func (s *Server) assess(ctx context.Context, p raster.Period) (*Assessment, error) {
	grid, idx, err := s.grids.get(ctx, s.source, p)
	if err != nil {
		return nil, err
	}
	parent, children, err := s.regionTree(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := stats.Rollup{Workers: s.workers}.Run(ctx, idx, grid.Res, parent, children)
	if err != nil {
		return nil, fmt.Errorf("rollup %s: %w", p, err)
	}
	elapsed := time.Since(start)

	metrics.RollupsTotal.WithLabelValues(string(p.Scale)).Inc()
	metrics.RollupDuration.WithLabelValues(string(p.Scale)).Observe(elapsed.Seconds())
	metrics.CellsClassified.Add(float64(result.Parent.Cells))

	for region, rerr := range result.RegionErrors {
		log.Printf("api: rollup %s: skipping %s: %v", p, region, rerr)
	}

	rep := stats.Synthesize(result.Parent, result.Rows)

	if err := s.store.InsertAnalysisRun(models.AnalysisRun{
		Scale:      string(p.Scale),
		Year:       p.Year,
		Month:      p.Month,
		Region:     parent.Name,
		TotalArea:  result.Parent.Total,
		HazardArea: result.Parent.HazardArea(),
		HazardPct:  result.Parent.HazardPct(),
		ValidCells: result.Parent.Cells,
		ChildCount: len(result.Rows),
		DurationMs: elapsed.Milliseconds(),
	}); err != nil {
		log.Printf("api: log analysis run: %v", err)
	}

	return &Assessment{Period: p, Grid: grid, Result: result, Report: rep}, nil
}

// regionTree loads the region set through the cache and splits it into the
// configured parent and its children.
func (s *Server) regionTree(ctx context.Context) (geo.Region, []geo.Region, error) {
	all, err := s.regions.Load(ctx, s.regClient)
	if err != nil {
		return geo.Region{}, nil, fmt.Errorf("load regions: %w", err)
	}
	return regions.Tree(all, s.parentName)
}

// regimeFlags compares the parent's hazard share across the three
// accumulation scales for one month. Returns ok=false when any scale's
// raster is missing; a partial comparison would misread a gap as recovery.
func (s *Server) regimeFlags(ctx context.Context, year, month int) (classify.RegimeFlags, bool) {
	parent, _, err := s.regionTree(ctx)
	if err != nil {
		return classify.RegimeFlags{}, false
	}

	var shares [3]float64
	for i, sc := range raster.Scales {
		p := raster.Period{Scale: sc, Year: year, Month: month}
		grid, idx, err := s.grids.get(ctx, s.source, p)
		if err != nil {
			if !errors.Is(err, raster.ErrNoData) {
				log.Printf("api: regime %s: %v", p, err)
			}
			return classify.RegimeFlags{}, false
		}
		cells, err := idx.Clip(parent)
		if err != nil {
			log.Printf("api: regime %s: clip: %v", p, err)
			return classify.RegimeFlags{}, false
		}
		st, err := stats.Aggregate(parent.Name, cells, grid.Res)
		if err != nil {
			log.Printf("api: regime %s: %v", p, err)
			return classify.RegimeFlags{}, false
		}
		shares[i] = st.HazardPct() / 100
	}

	return classify.ClassifyRegime(shares[0], shares[1], shares[2]), true
}

// periodFromQuery resolves the requested period. An explicit period key
// wins; otherwise the newest catalogued period for the requested scale
// (default 03) is used. An empty catalog surfaces as raster.ErrNoData.
func (s *Server) periodFromQuery(r *http.Request) (raster.Period, error) {
	if key := r.URL.Query().Get("period"); key != "" {
		return raster.ParsePeriod(key)
	}

	scale := raster.Scale03
	if v := r.URL.Query().Get("scale"); v != "" {
		scale = raster.Scale(v)
		if !scale.Valid() {
			return raster.Period{}, fmt.Errorf("unsupported scale %q (want 01, 03 or 12)", v)
		}
	}

	latest, err := s.store.LatestPeriod(string(scale))
	if err != nil {
		return raster.Period{}, fmt.Errorf("latest period: %w", err)
	}
	if latest == nil {
		return raster.Period{}, fmt.Errorf("scale %s: %w", scale, raster.ErrNoData)
	}
	return raster.Period{Scale: scale, Year: latest.Year, Month: latest.Month}, nil
}

// requestPeriod resolves the period for API handlers, writing the error
// response itself. Unknown periods are 404, malformed requests 400.
func (s *Server) requestPeriod(w http.ResponseWriter, r *http.Request) (raster.Period, bool) {
	p, err := s.periodFromQuery(r)
	if err == nil {
		return p, true
	}
	if errors.Is(err, raster.ErrNoData) {
		http.Error(w, err.Error(), http.StatusNotFound)
	} else {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
	return raster.Period{}, false
}
