package analyzer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/cost"
	"github.com/sells-group/location-evaluator/internal/grid"
	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/routecache"
	"github.com/sells-group/location-evaluator/internal/routing"
	"github.com/sells-group/location-evaluator/internal/safety"
	"github.com/sells-group/location-evaluator/internal/scoring"
	"github.com/sells-group/location-evaluator/pkg/geocode"
)

// Analyzer orchestrates a full grid analysis run: grid generation, schedule
// expansion, cached routing, safety scoring, and aggregation.
type Analyzer struct {
	cfg       *config.Config
	cache     *routecache.Cache
	geo       geocode.Client
	incidents safety.IncidentSource
	calc      *cost.Calculator
	agg       *scoring.Aggregator

	year    int
	mode    routing.Mode
	workers int
}

// New wires an Analyzer. It validates the scoring weights up front so a bad
// configuration fails before any engine work begins.
func New(cfg *config.Config, cache *routecache.Cache, geo geocode.Client, incidents safety.IncidentSource) (*Analyzer, error) {
	agg, err := scoring.NewAggregator(cfg.Weights)
	if err != nil {
		return nil, err
	}

	mode := routing.ModeDriving
	if len(cfg.Transportation.Modes) > 0 {
		mode = routing.Mode(cfg.Transportation.Modes[0])
	}

	year := cfg.Analysis.Year
	if year == 0 {
		year = time.Now().Year()
	}
	workers := cfg.Analysis.Workers
	if workers <= 0 {
		workers = 8
	}

	return &Analyzer{
		cfg:   cfg,
		cache: cache,
		geo:   geo,
		incidents: incidents,
		calc: cost.NewCalculator(cost.Rates{
			DrivingPerMileUSD: cfg.Transportation.CostPerMileUSD,
			TransitFareUSD:    cfg.Transportation.TransitFareUSD,
		}),
		agg:     agg,
		year:    year,
		mode:    mode,
		workers: workers,
	}, nil
}

// Run executes the analysis and returns the export result. Per-point and
// per-occurrence failures degrade the affected points; only configuration
// failures abort the run.
func (a *Analyzer) Run(ctx context.Context, dests []model.Destination) (*model.ExportResult, error) {
	gen, err := grid.New(
		a.cfg.Analysis.CenterLat, a.cfg.Analysis.CenterLon,
		a.cfg.Analysis.MaxRadiusMiles, a.cfg.Analysis.GridSizeMiles,
	)
	if err != nil {
		return nil, err
	}
	points := gen.Points()
	bounds := grid.Bounds(points)

	plans, skipped := a.plan(ctx, dests)
	if len(plans) == 0 {
		return nil, eris.New("analyzer: no usable destinations")
	}

	zap.L().Info("starting analysis",
		zap.Int("points", len(points)),
		zap.Int("destinations", len(plans)),
		zap.Int("skipped_destinations", len(skipped)),
		zap.Int("workers", a.workers),
		zap.Int("year", a.year),
	)

	incidents := a.loadIncidents(ctx, bounds)

	analyses := make([]model.PointAnalysis, len(points))
	safetyModel := safety.NewModel(a.cfg.Safety, time.Now().UTC())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, pt := range points {
		i, pt := i, pt
		g.Go(func() error {
			analyses[i] = a.analyzePoint(gctx, pt, plans, incidents, safetyModel)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "analyzer: grid processing")
	}

	regional := a.agg.Finalize(analyses)
	regional.SkippedSchedules = skipped

	hits, misses, fetches := a.cache.Snapshot()
	zap.L().Info("analysis complete",
		zap.Int("complete_points", regional.CompletePoints),
		zap.Int("incomplete_points", regional.IncompletePoints),
		zap.Int64("cache_hits", hits),
		zap.Int64("cache_misses", misses),
		zap.Int64("route_fetches", fetches),
	)

	return &model.ExportResult{
		Metadata: model.RunMetadata{
			RunID:        uuid.New().String(),
			Generated:    time.Now().UTC(),
			Year:         a.year,
			SpacingMiles: a.cfg.Analysis.GridSizeMiles,
			RadiusMiles:  a.cfg.Analysis.MaxRadiusMiles,
			CenterLat:    a.cfg.Analysis.CenterLat,
			CenterLon:    a.cfg.Analysis.CenterLon,
			TotalPoints:  len(points),
			Bounds:       bounds,
		},
		Points:   analyses,
		Regional: regional,
	}, nil
}

// loadIncidents fetches incident records once for the whole region. A
// failure here degrades every point to incomplete rather than failing the
// run.
func (a *Analyzer) loadIncidents(ctx context.Context, bounds model.Bounds) []safety.Incident {
	since := time.Date(a.cfg.Incidents.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	incidents, err := a.incidents.Query(ctx, bounds, since)
	if err != nil {
		if errors.Is(err, safety.ErrNoCoverage) {
			zap.L().Warn("no incident coverage for region")
		} else {
			zap.L().Warn("incident query failed, points will be incomplete", zap.Error(err))
		}
		return nil
	}
	zap.L().Info("loaded incident records", zap.Int("count", len(incidents)))
	return incidents
}

// analyzePoint computes travel, cost, and safety for one grid point.
func (a *Analyzer) analyzePoint(ctx context.Context, pt model.GridPoint, plans []destinationPlan, incidents []safety.Incident, sm *safety.Model) model.PointAnalysis {
	var trips []cost.Trip
	unavailable := 0

	for _, p := range plans {
		for _, rp := range p.rules {
			req := routing.Request{
				OriginLat: pt.Lat, OriginLon: pt.Lon,
				DestLat: p.dest.Lat, DestLon: p.dest.Lon,
				Mode:      p.mode,
				Departure: rp.departure,
			}
			entry, err := a.cache.GetOrFetch(ctx, req, p.dest.Address)
			if err != nil {
				if ctx.Err() != nil {
					return model.PointAnalysis{Point: pt}
				}
				zap.L().Debug("route unavailable",
					zap.Int("point", pt.ID),
					zap.String("destination", p.dest.Name),
					zap.Error(err),
				)
				unavailable++
				continue
			}
			trips = append(trips, cost.Trip{
				Destination:     p.dest.Name,
				Category:        p.dest.Category,
				Mode:            p.mode,
				DistanceMiles:   entry.DistanceMiles,
				DurationMinutes: entry.DurationMinutes,
				WeeklyTrips:     rp.weeklyTrips,
			})
		}
	}

	sa := sm.Score(pt, incidents)

	return model.PointAnalysis{
		Point:       pt,
		Travel:      cost.AggregateTravel(trips),
		Cost:        a.calc.Aggregate(trips),
		Safety:      sa,
		Complete:    unavailable == 0 && !sa.Incomplete,
		Unavailable: unavailable,
	}
}
