package routing

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/location-evaluator/internal/grid"
	"github.com/sells-group/location-evaluator/internal/resilience"
)

// Assumed speeds for the straight-line fallback, in miles per hour.
var fallbackSpeedMPH = map[Mode]float64{
	ModeDriving: 30,
	ModeTransit: 30,
	ModeCycling: 10,
	ModeWalking: 3,
}

// DispatcherOptions configure a Dispatcher.
type DispatcherOptions struct {
	// RequestsPerSecond throttles calls to the gateway. Zero means no limit.
	RequestsPerSecond float64

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// FallbackEstimate enables a straight-line estimate when the gateway is
	// unreachable or cannot route. Invalid requests never fall back.
	FallbackEstimate bool
}

// Dispatcher throttles and retries routing calls to a Gateway. When the
// gateway stays unreachable it can degrade to a straight-line estimate so a
// long analysis run survives an engine outage.
type Dispatcher struct {
	gw       Gateway
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	fallback bool
}

// NewDispatcher wraps gw with rate limiting and retry.
func NewDispatcher(gw Gateway, opts DispatcherOptions) *Dispatcher {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = opts.MaxRetries + 1
	retry.ShouldRetry = shouldRetry
	retry.OnRetry = resilience.RetryLogger("routing", "route")

	return &Dispatcher{
		gw:       gw,
		limiter:  limiter,
		retry:    retry,
		fallback: opts.FallbackEstimate,
	}
}

// Route answers the request via the gateway, waiting for rate-limit budget
// before each attempt.
func (d *Dispatcher) Route(ctx context.Context, req Request) (Route, error) {
	route, err := resilience.DoVal(ctx, d.retry, func(ctx context.Context) (Route, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return Route{}, NewError(KindNetwork, err)
		}
		return d.gw.Route(ctx, req)
	})
	if err == nil {
		return route, nil
	}

	if d.fallback && ctx.Err() == nil && canFallBack(err) {
		zap.L().Debug("routing engine unavailable, using straight-line estimate",
			zap.String("mode", string(req.Mode)),
			zap.Error(err))
		return Estimate(req), nil
	}
	return Route{}, err
}

// Estimate produces a straight-line route at an assumed speed for the mode.
func Estimate(req Request) Route {
	miles := grid.DistanceMiles(req.OriginLat, req.OriginLon, req.DestLat, req.DestLon)
	speed := fallbackSpeedMPH[req.Mode]
	if speed == 0 {
		speed = fallbackSpeedMPH[ModeDriving]
	}
	return Route{
		DurationMinutes: miles / speed * 60,
		DistanceMiles:   miles,
		Source:          SourceEstimate,
	}
}

func shouldRetry(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Retryable()
	}
	return resilience.IsTransient(err)
}

func canFallBack(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind != KindInvalidRequest
	}
	return true
}
