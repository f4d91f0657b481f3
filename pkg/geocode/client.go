// Package geocode resolves street addresses to coordinates via the
// Nominatim HTTP API, with a disk-backed cache in front.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Result is a geocoded address. Matched is false when the backend found no
// candidate; non-matches are cached too so a bad address is not re-queried
// every run.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
	Matched     bool    `json:"matched"`
}

// Client defines the geocoding operations.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Option configures the Nominatim client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a new Nominatim client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://nominatim.openstreetmap.org",
		userAgent: "location-evaluator",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (c *httpClient) Geocode(ctx context.Context, address string) (*Result, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}
	if len(results) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, eris.Errorf("geocode: bad coordinates %q,%q", results[0].Lat, results[0].Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: results[0].DisplayName,
		Matched:     true,
	}, nil
}
