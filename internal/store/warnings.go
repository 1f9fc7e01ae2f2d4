package store

import (
	"time"

	"github.com/leiwu/speiwatch/internal/models"
)

// UpsertWarning inserts or refreshes a drought warning. On conflict the
// first_seen_at is preserved so long-running conditions keep their onset
// time; everything else tracks the latest assessment.
func (s *Store) UpsertWarning(w models.Warning, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO warnings (
			region, scale, year, month, level, hazard_pct, headline,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(region, scale) DO UPDATE SET
			year = excluded.year,
			month = excluded.month,
			level = excluded.level,
			hazard_pct = excluded.hazard_pct,
			headline = excluded.headline,
			last_seen_at = excluded.last_seen_at
	`, w.Region, w.Scale, w.Year, w.Month, w.Level, w.HazardPct, w.Headline,
		now, now)
	return err
}

// ClearWarning removes the warning for a region and scale, used when the
// hazard share has dropped back under the watch threshold.
func (s *Store) ClearWarning(region, scale string) error {
	_, err := s.db.Exec(
		"DELETE FROM warnings WHERE region = ? AND scale = ?",
		region, scale,
	)
	return err
}

// ActiveWarnings returns warnings refreshed within maxAge, most severe
// hazard first.
func (s *Store) ActiveWarnings(maxAge time.Duration) ([]models.Warning, error) {
	cutoff := time.Now().Add(-maxAge)

	rows, err := s.db.Query(`
		SELECT region, scale, year, month, level, hazard_pct, headline,
		       first_seen_at, last_seen_at
		FROM warnings
		WHERE last_seen_at > ?
		ORDER BY hazard_pct DESC, region ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Warning
	for rows.Next() {
		var w models.Warning
		if err := rows.Scan(&w.Region, &w.Scale, &w.Year, &w.Month, &w.Level,
			&w.HazardPct, &w.Headline, &w.FirstSeenAt, &w.LastSeenAt); err != nil {
			return nil, err
		}
		if s.loc != nil {
			w.FirstSeenAt = w.FirstSeenAt.In(s.loc)
			w.LastSeenAt = w.LastSeenAt.In(s.loc)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
