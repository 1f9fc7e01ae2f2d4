package models

import (
	"time"
)

// RasterFile is one catalog entry: a fetched raster file and the grid
// metadata read from it at ingest time. SHA256 and SizeBytes record the
// provenance of the downloaded file; they are empty for rows ingested
// before checksums were tracked.
type RasterFile struct {
	Scale      string
	Year       int
	Month      int
	Path       string
	Rows       int
	Cols       int
	MinLat     float64
	MaxLat     float64
	MinLon     float64
	MaxLon     float64
	Resolution float64
	SHA256     string
	SizeBytes  int64
	FetchedAt  time.Time
}

// AnalysisRun is one row of the operational log: a rollup served for a
// period and region, with its top-line figures and timing. The full
// statistics are recomputed on demand; only the scalars are kept.
type AnalysisRun struct {
	ID         int64
	Scale      string
	Year       int
	Month      int
	Region     string
	TotalArea  float64
	HazardArea float64
	HazardPct  float64
	ValidCells int
	ChildCount int
	DurationMs int64
	CreatedAt  time.Time
}

// Warning is a persisted drought warning for one region at one accumulation
// scale. FirstSeenAt survives updates so the UI can show how long the
// condition has held.
type Warning struct {
	Region      string
	Scale       string
	Year        int
	Month       int
	Level       string
	HazardPct   float64
	Headline    string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}
