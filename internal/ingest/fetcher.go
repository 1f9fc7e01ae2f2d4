package ingest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/leiwu/speiwatch/internal/raster"
)

// Fetcher downloads one raster file from the archive. Implementations
// return raster.ErrNoData (wrapped) when the archive has no file for the
// period, which is normal for months the archive has not published yet.
type Fetcher interface {
	Fetch(ctx context.Context, p raster.Period) ([]byte, error)
	// Source names the transport for audit rows and metrics labels.
	Source() string
}

// NewFetcher selects a fetcher by the archive URL scheme. ftp:// URLs get
// the FTP fetcher, http:// and https:// the HTTP one.
func NewFetcher(archiveURL string) (Fetcher, error) {
	u, err := url.Parse(archiveURL)
	if err != nil {
		return nil, fmt.Errorf("parse archive url: %w", err)
	}
	switch u.Scheme {
	case "ftp":
		return NewFTPFetcher(u), nil
	case "http", "https":
		return NewHTTPFetcher(u), nil
	default:
		return nil, fmt.Errorf("unsupported archive scheme %q", u.Scheme)
	}
}
