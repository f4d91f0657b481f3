package routing

import (
	"context"
	"fmt"
	"time"
)

// Mode is a transportation profile understood by the routing backend.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeWalking Mode = "walking"
	ModeCycling Mode = "cycling"
	ModeTransit Mode = "transit"
)

// Request asks for a single one-way route between two coordinates.
type Request struct {
	OriginLat float64
	OriginLon float64
	DestLat   float64
	DestLon   float64
	Mode      Mode
	Departure time.Time
}

// Route is the answer to a Request. Source identifies whether the numbers
// came from the routing engine or from the straight-line fallback estimate.
type Route struct {
	DurationMinutes float64 `json:"duration_minutes"`
	DistanceMiles   float64 `json:"distance_miles"`
	Source          string  `json:"source"`
}

const (
	SourceEngine   = "osrm"
	SourceEstimate = "estimate"
)

// Gateway computes routes. Implementations talk to an external engine and
// classify their failures with Error so callers can tell a retryable outage
// from a request that will never succeed.
type Gateway interface {
	Route(ctx context.Context, req Request) (Route, error)
}

// ErrorKind classifies routing failures.
type ErrorKind string

const (
	// KindRateLimited means the backend asked us to slow down.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNetwork covers timeouts and connection failures.
	KindNetwork ErrorKind = "network"
	// KindInvalidRequest means the request itself is bad, for example a
	// coordinate outside the loaded map region. Never retried.
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindUnavailable means the backend answered but could not route.
	KindUnavailable ErrorKind = "unavailable"
)

// Error is a classified routing failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("routing: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a failure classification.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Retryable reports whether the failure may succeed on a later attempt.
func (e *Error) Retryable() bool {
	return e.Kind != KindInvalidRequest
}
