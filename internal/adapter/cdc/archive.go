package cdc

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

// FetchArchive downloads a zip archive and extracts its members into
// destDir, returning the extracted file paths in archive order. Member names
// are flattened to their base name; CDC archives do not nest directories.
func (c *Client) FetchArchive(ctx context.Context, uri, destDir string) ([]string, error) {
	zr, err := c.fetchZip(ctx, uri)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", destDir, err)
	}

	paths := make([]string, 0, len(zr.File))
	for _, member := range zr.File {
		path := filepath.Join(destDir, filepath.Base(member.Name))
		if err := extractMember(member, path); err != nil {
			return nil, fmt.Errorf("extract %s from %s: %w", member.Name, uri, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FetchForecast downloads a zipped MOSMIX bundle and returns the raw XML
// bytes of its first member.
func (c *Client) FetchForecast(ctx context.Context, uri string) ([]byte, error) {
	zr, err := c.fetchZip(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(zr.File) == 0 {
		return nil, &domain.StructuralParseError{Source: uri, Reason: "empty archive"}
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", zr.File[0].Name, uri, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// fetchZip downloads an archive into memory. The largest CDC archives are a
// few tens of megabytes, well within a sync worker's budget.
func (c *Client) fetchZip(ctx context.Context, uri string) (*zip.Reader, error) {
	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &domain.ResourceFetchError{URI: uri, Err: err}
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, &domain.StructuralParseError{Source: uri, Reason: "not a zip archive: " + err.Error()}
	}
	return zr, nil
}

func extractMember(member *zip.File, path string) error {
	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
