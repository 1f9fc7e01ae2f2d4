package httputil

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	// DownloadTimeout covers raster archive transfers, which can run to
	// tens of megabytes on slow mirrors.
	DownloadTimeout = 5 * time.Minute
)

// NewClient returns an HTTP client with standard timeout configuration,
// suitable for boundary files and API calls.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}

// NewDownloadClient returns an HTTP client sized for bulk raster downloads.
func NewDownloadClient() *http.Client {
	return &http.Client{
		Timeout: DownloadTimeout,
	}
}
