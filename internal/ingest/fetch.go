package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/tphakala/orderlens/internal/errors"
	"github.com/tphakala/orderlens/internal/httpclient"
)

// maxExportBytes caps the size of a fetched export document.
const maxExportBytes = 64 << 20

// FetchExport downloads and parses the export at url.
func FetchExport(ctx context.Context, client *httpclient.Client, url string) (*Export, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, errors.New(fmt.Errorf("fetch export: %w", err)).
			Component("ingest").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetch export: unexpected status %d", resp.StatusCode).
			Component("ingest").
			Category(errors.CategoryHTTP).
			Context("url", url).
			Context("status_code", resp.StatusCode).
			Build()
	}

	return ParseExport(io.LimitReader(resp.Body, maxExportBytes))
}

// LoadExportFile parses the export stored at path.
func LoadExportFile(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("open export: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	return ParseExport(f)
}

// LoadExport reads an export from an http(s) URL or a local path.
func LoadExport(ctx context.Context, client *httpclient.Client, source string) (*Export, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return FetchExport(ctx, client, source)
	}
	return LoadExportFile(source)
}
