// Package osrm provides a client for the OSRM routing HTTP API.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/location-evaluator/internal/routing"
)

const milesPerMeter = 0.000621371

// Client defines the OSRM routing operations.
type Client interface {
	routing.Gateway
}

// Option configures the OSRM client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new OSRM client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://router.project-osrm.org",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profiles maps transportation modes onto OSRM routing profiles. Transit has
// no OSRM profile; driving is the closest available approximation.
var profiles = map[routing.Mode]string{
	routing.ModeDriving: "driving",
	routing.ModeWalking: "foot",
	routing.ModeCycling: "bike",
	routing.ModeTransit: "driving",
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		DurationSecs   float64 `json:"duration"`
		DistanceMeters float64 `json:"distance"`
	} `json:"routes"`
}

// Route implements routing.Gateway against the OSRM route service. OSRM
// takes coordinates in lon,lat order.
func (c *httpClient) Route(ctx context.Context, req routing.Request) (routing.Route, error) {
	profile, ok := profiles[req.Mode]
	if !ok {
		return routing.Route{}, routing.NewError(routing.KindInvalidRequest,
			eris.Errorf("osrm: unsupported mode %q", req.Mode))
	}

	reqURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		c.baseURL, profile, req.OriginLon, req.OriginLat, req.DestLon, req.DestLat)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return routing.Route{}, routing.NewError(routing.KindInvalidRequest,
			eris.Wrap(err, "osrm: create request"))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return routing.Route{}, routing.NewError(routing.KindNetwork,
			eris.Wrap(err, "osrm: request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return routing.Route{}, routing.NewError(routing.KindNetwork,
			eris.Wrap(err, "osrm: read response body"))
	}

	if kind, failed := classifyStatus(resp.StatusCode); failed {
		return routing.Route{}, routing.NewError(kind,
			eris.Errorf("osrm: status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed routeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return routing.Route{}, routing.NewError(routing.KindUnavailable,
			eris.Wrap(err, "osrm: unmarshal response"))
	}

	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		kind := routing.KindUnavailable
		if parsed.Code == "InvalidQuery" || parsed.Code == "InvalidValue" {
			kind = routing.KindInvalidRequest
		}
		return routing.Route{}, routing.NewError(kind,
			eris.Errorf("osrm: %s: %s", parsed.Code, parsed.Message))
	}

	best := parsed.Routes[0]
	return routing.Route{
		DurationMinutes: best.DurationSecs / 60,
		DistanceMiles:   best.DistanceMeters * milesPerMeter,
		Source:          routing.SourceEngine,
	}, nil
}

func classifyStatus(code int) (routing.ErrorKind, bool) {
	switch {
	case code == http.StatusOK:
		return "", false
	case code == http.StatusTooManyRequests:
		return routing.KindRateLimited, true
	case code == http.StatusBadRequest:
		return routing.KindInvalidRequest, true
	case code >= 500:
		return routing.KindUnavailable, true
	default:
		return routing.KindNetwork, true
	}
}
