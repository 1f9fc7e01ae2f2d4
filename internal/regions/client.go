package regions

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/leiwu/speiwatch/internal/geo"
	"github.com/leiwu/speiwatch/internal/httputil"
)

// Client loads a region boundary file from an HTTP URL or a local path.
type Client struct {
	httpClient *http.Client
	source     string
}

func NewClient(source string) *Client {
	return &Client{
		httpClient: httputil.NewClient(),
		source:     source,
	}
}

// Source returns the configured boundary location, used as the cache key.
func (c *Client) Source() string { return c.source }

// Load fetches and decodes the boundary file.
func (c *Client) Load(ctx context.Context) ([]geo.Region, error) {
	if !strings.HasPrefix(c.source, "http://") && !strings.HasPrefix(c.source, "https://") {
		return LoadFile(c.source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch regions: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read regions: %w", err)
	}
	return Decode(data)
}
