// Package cdc talks to the DWD open-data server: it resolves HTML directory
// listings into resource lists, walks the time-bucket tree of a measurement
// series, and downloads zipped artifacts. All parsing of fetched payloads is
// delegated to the domain package.
package cdc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

// DefaultBaseURL is the CDC climate observation root for Germany.
const DefaultBaseURL = "https://opendata.dwd.de/climate_environment/CDC/observations_germany/climate/"

// DefaultForecastIndexURL lists the hourly all-station MOSMIX_S bundles.
const DefaultForecastIndexURL = "https://opendata.dwd.de/weather/local_forecasts/mos/MOSMIX_S/all_stations/kml/"

// Client fetches and resolves CDC resources. Base URLs are overridable so
// tests can point it at a local server.
type Client struct {
	baseURL          string
	forecastIndexURL string
	httpClient       *http.Client
	logger           *slog.Logger
}

// NewClient creates a CDC client. Empty URLs fall back to the public server.
func NewClient(baseURL, forecastIndexURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if forecastIndexURL == "" {
		forecastIndexURL = DefaultForecastIndexURL
	}
	return &Client{
		baseURL:          strings.TrimSuffix(baseURL, "/") + "/",
		forecastIndexURL: forecastIndexURL,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logger,
	}
}

// IndexOptions control how a directory listing is resolved.
type IndexOptions struct {
	// Extension keeps only links containing the substring. Substring, not
	// suffix: "/" selects subdirectory markers too.
	Extension string
	// Absolute joins relative links against the requested URI. When false
	// the bare link is returned with any trailing slash stripped.
	Absolute bool
}

// ResolveIndex fetches a directory-listing URI and extracts its child
// resources from the anchor elements, in document order. The parent-directory
// link is excluded. A non-2xx response is a domain.ResourceFetchError.
func (c *Client) ResolveIndex(ctx context.Context, uri string, opts IndexOptions) ([]domain.Resource, error) {
	c.logger.Debug("resolving index", "uri", uri)

	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", uri, err)
	}

	base, err := url.Parse(strings.TrimSuffix(uri, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse listing uri %s: %w", uri, err)
	}

	var resources []domain.Resource
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "../" {
			return
		}
		if opts.Extension != "" && !strings.Contains(href, opts.Extension) {
			return
		}
		entry := strings.TrimSuffix(href, "/")
		if opts.Absolute {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			entry = base.ResolveReference(ref).String()
		}
		resources = append(resources, domain.Resource{
			URI:    entry,
			Bucket: domain.ClassifyTimeBucket(href),
		})
	})

	return resources, nil
}

// Resolutions lists the sampling intervals available on the server, as bare
// directory names.
func (c *Client) Resolutions(ctx context.Context) ([]domain.Resource, error) {
	return c.ResolveIndex(ctx, c.baseURL, IndexOptions{})
}

// Parameters lists the measurement parameters available for a resolution,
// as bare directory names.
func (c *Client) Parameters(ctx context.Context, resolution string) ([]domain.Resource, error) {
	return c.ResolveIndex(ctx, c.baseURL+resolution+"/", IndexOptions{})
}

// GatherResources walks a series tree: the resolution/parameter listing plus
// the contents of every historical/recent/now subdirectory. The result is a
// flat list; duplicates are tolerated and resolved downstream.
func (c *Client) GatherResources(ctx context.Context, resolution, parameter string) ([]domain.Resource, error) {
	index := c.baseURL + resolution + "/" + parameter + "/"

	resources, err := c.ResolveIndex(ctx, index, IndexOptions{Absolute: true})
	if err != nil {
		return nil, err
	}

	for _, r := range resources {
		if !r.IsListing() || r.Bucket == domain.BucketNone {
			continue
		}
		sub, err := c.ResolveIndex(ctx, r.URI, IndexOptions{Absolute: true})
		if err != nil {
			return nil, err
		}
		resources = append(resources, sub...)
	}

	return resources, nil
}

// ForecastIndex lists the downloadable MOSMIX bundles, skipping the LATEST
// symlink which duplicates the newest timestamped file.
func (c *Client) ForecastIndex(ctx context.Context) ([]domain.Resource, error) {
	resources, err := c.ResolveIndex(ctx, c.forecastIndexURL, IndexOptions{Extension: ".kmz", Absolute: true})
	if err != nil {
		return nil, err
	}
	var out []domain.Resource
	for _, r := range resources {
		if strings.Contains(r.URI, "LATEST") {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FetchStations downloads and parses a station description table.
func (c *Client) FetchStations(ctx context.Context, uri string) ([]domain.Station, error) {
	body, err := c.get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return domain.ParseStationTable(body)
}

// get issues a GET and converts transport failures and non-2xx responses
// into domain.ResourceFetchError.
func (c *Client) get(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request %s: %w", uri, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ResourceFetchError{URI: uri, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &domain.ResourceFetchError{URI: uri, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
