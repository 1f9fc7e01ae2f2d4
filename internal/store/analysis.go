package store

import (
	"time"

	"github.com/leiwu/speiwatch/internal/models"
)

// InsertAnalysisRun appends one served rollup to the operational log.
func (s *Store) InsertAnalysisRun(run models.AnalysisRun) error {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO analysis_runs (
			scale, year, month, region, total_area, hazard_area, hazard_pct,
			valid_cells, child_count, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Scale, run.Year, run.Month, run.Region, run.TotalArea, run.HazardArea,
		run.HazardPct, run.ValidCells, run.ChildCount, run.DurationMs, createdAt)
	return err
}

// RecentAnalyses returns the newest entries of the analysis log.
func (s *Store) RecentAnalyses(limit int) ([]models.AnalysisRun, error) {
	rows, err := s.db.Query(`
		SELECT id, scale, year, month, region, total_area, hazard_area,
		       hazard_pct, valid_cells, child_count, duration_ms, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AnalysisRun
	for rows.Next() {
		var run models.AnalysisRun
		if err := rows.Scan(&run.ID, &run.Scale, &run.Year, &run.Month, &run.Region,
			&run.TotalArea, &run.HazardArea, &run.HazardPct,
			&run.ValidCells, &run.ChildCount, &run.DurationMs, &run.CreatedAt); err != nil {
			return nil, err
		}
		if s.loc != nil {
			run.CreatedAt = run.CreatedAt.In(s.loc)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
