package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/leiwu/speiwatch/internal/httputil"
	"github.com/leiwu/speiwatch/internal/raster"
)

// HTTPFetcher downloads rasters from an HTTP archive directory. Transient
// failures are retried with exponential backoff; 4xx responses are not,
// and 404 maps to raster.ErrNoData.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(base *url.URL) *HTTPFetcher {
	return &HTTPFetcher{
		base:   base,
		client: httputil.NewDownloadClient(),
	}
}

func (f *HTTPFetcher) Source() string { return "http" }

func (f *HTTPFetcher) Fetch(ctx context.Context, p raster.Period) ([]byte, error) {
	fileURL := *f.base
	fileURL.Path = strings.TrimRight(fileURL.Path, "/") + "/" + p.FileName()

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL.String(), nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", p.FileName(), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%s: %w", p, raster.ErrNoData))
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", p.FileName(), resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", p.FileName(), resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
