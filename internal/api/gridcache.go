package api

import (
	"context"
	"sync"
	"time"

	"github.com/leiwu/speiwatch/internal/geo"
	"github.com/leiwu/speiwatch/internal/raster"
)

// gridCache keeps recently opened grids and their spatial indexes in memory.
// Opening a raster means parsing the NetCDF file and building the cell
// r-tree, which dominates request latency. The TTL forces a reload after a
// few minutes so a re-fetched raster (the archive republishes recent months)
// is picked up without a restart.
type gridCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]gridEntry
}

type gridEntry struct {
	grid     *raster.Grid
	idx      *geo.CellIndex
	loadedAt time.Time
}

func newGridCache(ttl time.Duration) *gridCache {
	return &gridCache{
		ttl:     ttl,
		entries: make(map[string]gridEntry),
	}
}

// get returns the grid and cell index for a period, loading through the
// source on a miss. Concurrent requests for the same cold period may load
// it twice; the last one wins, which costs a duplicate parse and nothing
// else.
func (c *gridCache) get(ctx context.Context, src raster.Source, p raster.Period) (*raster.Grid, *geo.CellIndex, error) {
	key := p.String()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Since(e.loadedAt) < c.ttl {
		c.mu.Unlock()
		return e.grid, e.idx, nil
	}
	c.mu.Unlock()

	grid, err := src.Grid(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	idx := geo.NewCellIndex(grid)

	c.mu.Lock()
	c.entries[key] = gridEntry{grid: grid, idx: idx, loadedAt: time.Now()}
	c.mu.Unlock()

	return grid, idx, nil
}
