package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoData reports that no raster exists for the requested period. It is
// the recoverable "no data for this period" condition; callers present it as
// absence rather than failure.
var ErrNoData = errors.New("no raster for period")

// Source resolves a period key to its raster grid.
type Source interface {
	Grid(ctx context.Context, p Period) (*Grid, error)
}

// DirSource loads rasters stored under a directory with canonical file
// names.
type DirSource struct {
	Dir string
}

func (s DirSource) Grid(ctx context.Context, p Period) (*Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, p.FileName())
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", p, ErrNoData)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return OpenFile(path)
}
