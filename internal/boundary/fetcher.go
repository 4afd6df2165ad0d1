package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default boundary sources.
const (
	DefaultWorldURL = "https://d2ad6b4ur7yvpq.cloudfront.net/naturalearth-3.3.0/ne_110m_admin_0_countries.geojson"
	DefaultChinaURL = "https://geo.datav.aliyun.com/areas_v3/bound/100000_full.json"
)

// maxBodyBytes caps a single boundary document.
const maxBodyBytes = 50 << 20

// ErrNotModified is returned by a conditional fetch when the source reports
// the cached copy is current.
var ErrNotModified = errors.New("boundary document not modified")

// Fetcher downloads one boundary document.
type Fetcher struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewFetcher creates a Fetcher for url with a 30s overall timeout.
func NewFetcher(url string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// URL returns the document source.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads the document. When since is non-zero the request is
// conditional and ErrNotModified is returned on 304.
func (f *Fetcher) Fetch(ctx context.Context, since time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building boundary request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	req.Header.Set("User-Agent", "vppmon-boundary/1")
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", f.url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, ErrNotModified
	default:
		return nil, fmt.Errorf("GET %s: status %d", f.url, resp.StatusCode)
	}

	// One byte past the cap distinguishes "exactly at limit" from "over".
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.url, err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("document at %s is larger than %d bytes", f.url, maxBodyBytes)
	}

	f.logger.Debug("boundary document downloaded", "component", "boundary", "url", f.url, "bytes", len(data))
	return data, nil
}
