// Package crimedata provides a client for incident record APIs that serve
// Socrata-style JSON rows.
package crimedata

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

	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/safety"
)

// Option configures the incident client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key sent with each request.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageSize sets the page size for incident queries.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

type httpClient struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
}

// NewClient creates an incident client implementing safety.IncidentSource.
func NewClient(opts ...Option) safety.IncidentSource {
	c := &httpClient{
		pageSize: 1000,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// record is one incident row as served by the API. Coordinates and dates
// arrive as strings.
type record struct {
	Offense    string `json:"offense"`
	Latitude   string `json:"latitude"`
	Longitude  string `json:"longitude"`
	OccurredAt string `json:"date_occurred"`
}

// Query implements safety.IncidentSource. Results are paged; rows with
// unparseable coordinates or dates are skipped rather than failing the
// query, since a partial sequence is still usable.
func (c *httpClient) Query(ctx context.Context, bounds model.Bounds, since time.Time) ([]safety.Incident, error) {
	var incidents []safety.Incident
	for offset := 0; ; offset += c.pageSize {
		page, err := c.fetchPage(ctx, bounds, since, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range page {
			if inc, ok := parseRecord(rec); ok {
				incidents = append(incidents, inc)
			}
		}
		if len(page) < c.pageSize {
			return incidents, nil
		}
	}
}

func (c *httpClient) fetchPage(ctx context.Context, bounds model.Bounds, since time.Time, offset int) ([]record, error) {
	q := url.Values{}
	q.Set("north", strconv.FormatFloat(bounds.North, 'f', 6, 64))
	q.Set("south", strconv.FormatFloat(bounds.South, 'f', 6, 64))
	q.Set("east", strconv.FormatFloat(bounds.East, 'f', 6, 64))
	q.Set("west", strconv.FormatFloat(bounds.West, 'f', 6, 64))
	q.Set("since", since.UTC().Format("2006-01-02"))
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	reqURL := fmt.Sprintf("%s/incidents?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "crimedata: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crimedata: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "crimedata: read response body")
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, safety.ErrNoCoverage
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("crimedata: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var page []record
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, eris.Wrap(err, "crimedata: unmarshal response")
	}
	return page, nil
}

func parseRecord(rec record) (safety.Incident, bool) {
	lat, latErr := strconv.ParseFloat(rec.Latitude, 64)
	lon, lonErr := strconv.ParseFloat(rec.Longitude, 64)
	if latErr != nil || lonErr != nil {
		return safety.Incident{}, false
	}

	occurred, err := time.Parse(time.RFC3339, rec.OccurredAt)
	if err != nil {
		occurred, err = time.Parse("2006-01-02", rec.OccurredAt)
		if err != nil {
			return safety.Incident{}, false
		}
	}

	return safety.Incident{
		Category:   Classify(rec.Offense),
		Lat:        lat,
		Lon:        lon,
		OccurredAt: occurred,
	}, true
}
