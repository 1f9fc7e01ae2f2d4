package store

import (
	"database/sql"
	"time"
)

// Store wraps the sqlite database holding the raster catalog, the analysis
// log and active warnings. Statistics themselves are never persisted; they
// are recomputed from the rasters on demand.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

func New(db *sql.DB, loc *time.Location) *Store {
	return &Store{db: db, loc: loc}
}
