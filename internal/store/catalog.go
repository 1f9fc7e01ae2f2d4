package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leiwu/speiwatch/internal/models"
	"github.com/leiwu/speiwatch/internal/raster"
)

// UpsertRaster records a fetched raster in the catalog, replacing any prior
// entry for the same period.
func (s *Store) UpsertRaster(r models.RasterFile) error {
	_, err := s.db.Exec(`
		INSERT INTO rasters (
			scale, year, month, path, rows, cols,
			min_lat, max_lat, min_lon, max_lon, resolution,
			sha256, size_bytes, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scale, year, month) DO UPDATE SET
			path = excluded.path,
			rows = excluded.rows,
			cols = excluded.cols,
			min_lat = excluded.min_lat,
			max_lat = excluded.max_lat,
			min_lon = excluded.min_lon,
			max_lon = excluded.max_lon,
			resolution = excluded.resolution,
			sha256 = excluded.sha256,
			size_bytes = excluded.size_bytes,
			fetched_at = excluded.fetched_at
	`, r.Scale, r.Year, r.Month, r.Path, r.Rows, r.Cols,
		r.MinLat, r.MaxLat, r.MinLon, r.MaxLon, r.Resolution,
		r.SHA256, r.SizeBytes, r.FetchedAt)
	return err
}

// GetRaster returns the catalog entry for a period, or nil when the period
// has not been ingested.
func (s *Store) GetRaster(scale string, year, month int) (*models.RasterFile, error) {
	row := s.db.QueryRow(`
		SELECT scale, year, month, path, rows, cols,
		       min_lat, max_lat, min_lon, max_lon, resolution,
		       COALESCE(sha256, ''), COALESCE(size_bytes, 0), fetched_at
		FROM rasters
		WHERE scale = ? AND year = ? AND month = ?
	`, scale, year, month)

	var r models.RasterFile
	err := row.Scan(&r.Scale, &r.Year, &r.Month, &r.Path, &r.Rows, &r.Cols,
		&r.MinLat, &r.MaxLat, &r.MinLon, &r.MaxLon, &r.Resolution,
		&r.SHA256, &r.SizeBytes, &r.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// HasRaster reports whether a period is already in the catalog.
func (s *Store) HasRaster(scale string, year, month int) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM rasters WHERE scale = ? AND year = ? AND month = ?",
		scale, year, month,
	).Scan(&n)
	return n > 0, err
}

// ListPeriods returns the catalog entries for one scale in chronological
// order.
func (s *Store) ListPeriods(scale string) ([]models.RasterFile, error) {
	rows, err := s.db.Query(`
		SELECT scale, year, month, path, rows, cols,
		       min_lat, max_lat, min_lon, max_lon, resolution,
		       COALESCE(sha256, ''), COALESCE(size_bytes, 0), fetched_at
		FROM rasters
		WHERE scale = ?
		ORDER BY year, month
	`, scale)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RasterFile
	for rows.Next() {
		var r models.RasterFile
		if err := rows.Scan(&r.Scale, &r.Year, &r.Month, &r.Path, &r.Rows, &r.Cols,
			&r.MinLat, &r.MaxLat, &r.MinLon, &r.MaxLon, &r.Resolution,
			&r.SHA256, &r.SizeBytes, &r.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestPeriod returns the newest catalogued period for a scale, or nil for
// an empty catalog.
func (s *Store) LatestPeriod(scale string) (*models.RasterFile, error) {
	row := s.db.QueryRow(`
		SELECT scale, year, month, path, rows, cols,
		       min_lat, max_lat, min_lon, max_lon, resolution,
		       COALESCE(sha256, ''), COALESCE(size_bytes, 0), fetched_at
		FROM rasters
		WHERE scale = ?
		ORDER BY year DESC, month DESC
		LIMIT 1
	`, scale)

	var r models.RasterFile
	err := row.Scan(&r.Scale, &r.Year, &r.Month, &r.Path, &r.Rows, &r.Cols,
		&r.MinLat, &r.MaxLat, &r.MinLon, &r.MaxLon, &r.Resolution,
		&r.SHA256, &r.SizeBytes, &r.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestFetch returns the newest fetched_at across the catalog, or the zero
// time for an empty catalog. Used for ingest staleness in health checks.
func (s *Store) LatestFetch() (time.Time, error) {
	var t time.Time
	err := s.db.QueryRow(
		"SELECT fetched_at FROM rasters ORDER BY fetched_at DESC LIMIT 1",
	).Scan(&t)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// CatalogSource resolves raster periods through the catalog. Periods that
// were never ingested surface as raster.ErrNoData.
type CatalogSource struct {
	Store *Store
}

func (cs CatalogSource) Grid(ctx context.Context, p raster.Period) (*raster.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	entry, err := cs.Store.GetRaster(string(p.Scale), p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup %s: %w", p, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%s: %w", p, raster.ErrNoData)
	}
	return raster.OpenFile(entry.Path)
}
