package store

import (
	"database/sql"
	"time"
)

// FetchRun is one audited raster download attempt. A run is opened before
// the transfer starts and completed with the outcome, so interrupted
// downloads remain visible as unfinished rows.
type FetchRun struct {
	ID           int64
	StartedAt    time.Time
	FinishedAt   sql.NullTime
	Source       string // "ftp" or "http"
	Period       string // canonical period key
	BytesFetched sql.NullInt64
	Success      bool
	ErrorMessage sql.NullString
}

// StartFetchRun opens a new fetch audit row and returns it.
func (s *Store) StartFetchRun(source, period string) (*FetchRun, error) {
	run := &FetchRun{
		StartedAt: time.Now().UTC(),
		Source:    source,
		Period:    period,
	}

	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (started_at, source, period, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Source, run.Period)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteFetchRun records the outcome of a fetch run.
func (s *Store) CompleteFetchRun(run *FetchRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE fetch_runs SET
			finished_at = ?,
			bytes_fetched = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.BytesFetched, run.Success, run.ErrorMessage, run.ID)
	return err
}

// RecentFetches returns the newest fetch runs for the history page.
func (s *Store) RecentFetches(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, source, period,
		       bytes_fetched, success, error_message
		FROM fetch_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FetchRun
	for rows.Next() {
		var run FetchRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Source,
			&run.Period, &run.BytesFetched, &run.Success, &run.ErrorMessage); err != nil {
			return nil, err
		}
		if s.loc != nil {
			run.StartedAt = run.StartedAt.In(s.loc)
			if run.FinishedAt.Valid {
				run.FinishedAt.Time = run.FinishedAt.Time.In(s.loc)
			}
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// FetchFailures counts failed fetch runs since the cutoff, for health
// reporting.
func (s *Store) FetchFailures(since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM fetch_runs
		WHERE started_at > ? AND finished_at IS NOT NULL AND success = FALSE
	`, since).Scan(&n)
	return n, err
}
