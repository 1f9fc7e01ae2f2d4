package ingest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/leiwu/speiwatch/internal/metrics"
	"github.com/leiwu/speiwatch/internal/models"
	"github.com/leiwu/speiwatch/internal/raster"
	"github.com/leiwu/speiwatch/internal/store"
)

// The archive publishes a month's rasters a few weeks after the month ends,
// and occasionally reissues recent ones. Each pass re-checks this many
// trailing months against the catalog.
const defaultLookbackMonths = 3

// Analyzer is notified after each newly ingested period, so warnings can be
// re-evaluated without the scheduler knowing about them.
type Analyzer interface {
	Evaluate(ctx context.Context, p raster.Period) error
}

type Scheduler struct {
	store    *store.Store
	fetcher  Fetcher
	dataDir  string
	interval time.Duration
	lookback int
	analyzer Analyzer
}

func NewScheduler(st *store.Store, fetcher Fetcher, dataDir string, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:    st,
		fetcher:  fetcher,
		dataDir:  dataDir,
		interval: interval,
		lookback: defaultLookbackMonths,
		analyzer: nil, // Set via SetAnalyzer
	}
}

// SetAnalyzer configures the scheduler to re-run analysis after ingesting a
// new period.
func (s *Scheduler) SetAnalyzer(a Analyzer) {
	s.analyzer = a
}

func (s *Scheduler) Run(ctx context.Context) {
	if err := s.IngestOnce(ctx); err != nil {
		log.Printf("scheduler: ingest: %v", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: shutting down")
			return
		case <-ticker.C:
			if err := s.IngestOnce(ctx); err != nil {
				log.Printf("scheduler: ingest: %v", err)
			}
		}
	}
}

// IngestOnce checks the trailing months of every scale against the catalog
// and downloads whatever is missing. Per-period failures are logged and do
// not stop the pass.
func (s *Scheduler) IngestOnce(ctx context.Context) error {
	return s.ingestMissing(ctx, s.lookback)
}

// Backfill downloads the archive's history for the given number of years.
// Meant for first run on an empty catalog.
func (s *Scheduler) Backfill(ctx context.Context, years int) error {
	log.Printf("scheduler: backfilling %d years", years)
	return s.ingestMissing(ctx, years*12)
}

func (s *Scheduler) ingestMissing(ctx context.Context, lookback int) error {
	now := time.Now().UTC()
	ingested := 0

	for _, scale := range raster.Scales {
		for _, p := range periodsToCheck(scale, now, lookback) {
			if err := ctx.Err(); err != nil {
				return err
			}

			have, err := s.store.HasRaster(string(p.Scale), p.Year, p.Month)
			if err != nil {
				return fmt.Errorf("catalog check %s: %w", p, err)
			}
			if have {
				continue
			}

			ok, err := s.ingestPeriod(ctx, p)
			if err != nil {
				log.Printf("scheduler: ingest %s: %v", p, err)
				continue
			}
			if ok {
				ingested++
			}
		}
	}

	if ingested > 0 {
		log.Printf("scheduler: ingested %d new rasters", ingested)
	}
	return nil
}

// ingestPeriod downloads, validates and catalogs one raster. It returns
// false without error when the archive has not published the period yet.
func (s *Scheduler) ingestPeriod(ctx context.Context, p raster.Period) (bool, error) {
	run, _ := s.store.StartFetchRun(s.fetcher.Source(), p.String())

	start := time.Now()
	data, err := s.fetcher.Fetch(ctx, p)
	metrics.RasterFetchLatency.WithLabelValues(s.fetcher.Source()).Observe(time.Since(start).Seconds())

	if err != nil {
		s.failFetchRun(run, err)
		if errors.Is(err, raster.ErrNoData) {
			metrics.RasterFetchesTotal.WithLabelValues(s.fetcher.Source(), "missing").Inc()
			log.Printf("scheduler: %s not published yet", p)
			return false, nil
		}
		metrics.RasterFetchesTotal.WithLabelValues(s.fetcher.Source(), "error").Inc()
		return false, err
	}

	path := filepath.Join(s.dataDir, p.FileName())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.failFetchRun(run, err)
		return false, fmt.Errorf("write %s: %w", path, err)
	}

	// Parse before cataloging so a truncated or malformed download never
	// becomes a servable period.
	g, err := raster.OpenFile(path)
	if err != nil {
		os.Remove(path)
		s.failFetchRun(run, err)
		metrics.RasterFetchesTotal.WithLabelValues(s.fetcher.Source(), "invalid").Inc()
		return false, fmt.Errorf("validate %s: %w", p, err)
	}

	sum := sha256.Sum256(data)
	bounds := g.Bounds()
	entry := models.RasterFile{
		Scale:      string(p.Scale),
		Year:       p.Year,
		Month:      p.Month,
		Path:       path,
		Rows:       g.Rows(),
		Cols:       g.Cols(),
		MinLat:     bounds.Min.Y,
		MaxLat:     bounds.Max.Y,
		MinLon:     bounds.Min.X,
		MaxLon:     bounds.Max.X,
		Resolution: g.Res,
		SHA256:     hex.EncodeToString(sum[:]),
		SizeBytes:  int64(len(data)),
		FetchedAt:  time.Now().UTC(),
	}
	if err := s.store.UpsertRaster(entry); err != nil {
		s.failFetchRun(run, err)
		return false, fmt.Errorf("catalog %s: %w", p, err)
	}

	if run != nil {
		run.Success = true
		run.BytesFetched = sql.NullInt64{Int64: int64(len(data)), Valid: true}
		s.store.CompleteFetchRun(run)
	}
	metrics.RasterFetchesTotal.WithLabelValues(s.fetcher.Source(), "fetched").Inc()
	log.Printf("scheduler: ingested %s (%d cells, %d bytes)", p, g.ValidCount(), len(data))

	if s.analyzer != nil {
		if err := s.analyzer.Evaluate(ctx, p); err != nil {
			log.Printf("scheduler: analyze %s: %v", p, err)
		}
	}
	return true, nil
}

func (s *Scheduler) failFetchRun(run *store.FetchRun, err error) {
	if run == nil {
		return
	}
	run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	s.store.CompleteFetchRun(run)
}

// periodsToCheck lists the candidate months of the lookback window, oldest
// first. The current month is never a candidate: the index for a month can
// only be computed after the month ends.
func periodsToCheck(scale raster.Scale, now time.Time, lookback int) []raster.Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]raster.Period, 0, lookback)
	for i := lookback; i >= 1; i-- {
		t := first.AddDate(0, -i, 0)
		p := raster.Period{Scale: scale, Year: t.Year(), Month: int(t.Month())}
		if p.Validate() != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
