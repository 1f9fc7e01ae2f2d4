package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/leiwu/speiwatch/internal/raster"
)

// FTPFetcher downloads rasters from an FTP archive with anonymous login.
// Each Fetch opens a fresh connection; the archive is polled far too rarely
// for connection reuse to matter.
type FTPFetcher struct {
	addr string
	dir  string
}

func NewFTPFetcher(base *url.URL) *FTPFetcher {
	addr := base.Host
	if base.Port() == "" {
		addr += ":21"
	}
	return &FTPFetcher{
		addr: addr,
		dir:  strings.TrimRight(base.Path, "/"),
	}
}

func (f *FTPFetcher) Source() string { return "ftp" }

func (f *FTPFetcher) Fetch(ctx context.Context, p raster.Period) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(f.addr, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(f.dir + "/" + p.FileName())
	if err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
			return nil, fmt.Errorf("%s: %w", p, raster.ErrNoData)
		}
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
