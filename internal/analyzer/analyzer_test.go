package analyzer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/routecache"
	"github.com/sells-group/location-evaluator/internal/routing"
	"github.com/sells-group/location-evaluator/internal/safety"
	"github.com/sells-group/location-evaluator/pkg/geocode"
)

type stubGateway struct {
	calls atomic.Int64
}

func (g *stubGateway) Route(ctx context.Context, req routing.Request) (routing.Route, error) {
	g.calls.Add(1)
	return routing.Route{DurationMinutes: 20, DistanceMiles: 8, Source: routing.SourceEngine}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	return &geocode.Result{Latitude: 32.80, Longitude: -96.78, Matched: true}, nil
}

type stubIncidents struct {
	incidents []safety.Incident
	err       error
}

func (s stubIncidents) Query(ctx context.Context, b model.Bounds, since time.Time) ([]safety.Incident, error) {
	return s.incidents, s.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Analysis.CenterLat = 32.78
	cfg.Analysis.CenterLon = -96.80
	cfg.Analysis.GridSizeMiles = 1.0
	cfg.Analysis.MaxRadiusMiles = 10
	cfg.Analysis.Year = 2022
	cfg.Analysis.Workers = 4
	cfg.Transportation.Modes = []string{"driving"}
	cfg.Transportation.CostPerMileUSD = 0.65
	cfg.Transportation.TransitFareUSD = 2.75
	cfg.Weights = config.WeightsConfig{TravelTime: 0.4, TravelCost: 0.3, Safety: 0.3}
	cfg.Safety = config.SafetyConfig{
		RadiusMiles: 0.5, HalfLifeDays: 365,
		ViolentWeight: 2, PropertyWeight: 1, OtherWeight: 0.5,
		DensityStrategy: config.DensityStrategyPopulation,
		DensityScale:    1000, ScoreScale: 10,
	}
	cfg.Incidents.StartYear = 2015
	return cfg
}

func testDestinations() []model.Destination {
	return []model.Destination{
		{
			Name: "Office", Address: "325 N St Paul St, Dallas, TX", Category: "work",
			Schedule: []model.ScheduleRule{{Days: "Mon-Fri", ArrivalTime: "09:00", DepartureTime: "17:00"}},
		},
		{
			Name: "Book Club", Address: "1515 Young St, Dallas, TX", Category: "social",
			Schedule: []model.ScheduleRule{{Pattern: "first_monday", ArrivalTime: "19:00"}},
		},
	}
}

func newTestAnalyzer(t *testing.T, cfg *config.Config, gw routing.Gateway, inc safety.IncidentSource) *Analyzer {
	t.Helper()
	cache := routecache.New(routecache.NewMemory(), gw, time.Hour, routecache.ModeNormal)
	a, err := New(cfg, cache, stubGeocoder{}, inc)
	require.NoError(t, err)
	return a
}

func TestRunEndToEnd(t *testing.T) {
	gw := &stubGateway{}
	incidents := []safety.Incident{
		{Category: safety.CategoryProperty, Lat: 32.78, Lon: -96.80, OccurredAt: time.Now().UTC()},
	}
	a := newTestAnalyzer(t, testConfig(), gw, stubIncidents{incidents: incidents})

	result, err := a.Run(context.Background(), testDestinations())
	require.NoError(t, err)

	// 10 mile radius at 1 mile spacing clips a 21x21 square to a disc.
	assert.GreaterOrEqual(t, result.Metadata.TotalPoints, 300)
	assert.LessOrEqual(t, result.Metadata.TotalPoints, 320)
	assert.Len(t, result.Points, result.Metadata.TotalPoints)
	assert.NotEmpty(t, result.Metadata.RunID)
	assert.Equal(t, 2022, result.Metadata.Year)

	assert.Equal(t, result.Metadata.TotalPoints, result.Regional.CompletePoints)
	assert.Empty(t, result.Regional.SkippedSchedules)
	assert.NotEmpty(t, result.Regional.BestLocations)

	p := result.Points[0]
	// Mon-Fri is 260 trips in 2022 (about 4.99/week), first_monday 12/year.
	weekly := 260.0 * 7 / 365
	monthly := 12.0 * 7 / 365
	assert.InDelta(t, (weekly+monthly)*20, p.Travel.WeeklyMinutes, 1e-6)
	assert.InDelta(t, (weekly+monthly)*8*0.65, p.Cost.WeeklyUSD, 1e-6)
	assert.Len(t, p.Travel.Destinations, 2)

	// One fetch per distinct cache key, at most points x rules.
	assert.Positive(t, gw.calls.Load())
	assert.LessOrEqual(t, gw.calls.Load(), int64(result.Metadata.TotalPoints*2))
}

func TestRunSkipsBadSchedules(t *testing.T) {
	dests := testDestinations()
	dests = append(dests, model.Destination{
		Name: "Broken", Address: "1 Nowhere Ln", Category: "other",
		Schedule: []model.ScheduleRule{{Days: "Funday", ArrivalTime: "09:00"}},
	})

	a := newTestAnalyzer(t, testConfig(), &stubGateway{}, stubIncidents{})
	result, err := a.Run(context.Background(), dests)
	require.NoError(t, err)

	require.Len(t, result.Regional.SkippedSchedules, 1)
	assert.Contains(t, result.Regional.SkippedSchedules[0], "Broken")
}

func TestRunNoIncidentsMarksIncomplete(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), &stubGateway{}, stubIncidents{err: safety.ErrNoCoverage})

	result, err := a.Run(context.Background(), testDestinations())
	require.NoError(t, err)

	assert.Zero(t, result.Regional.CompletePoints)
	assert.Equal(t, result.Metadata.TotalPoints, result.Regional.IncompletePoints)
	for _, p := range result.Points {
		assert.True(t, p.Safety.Incomplete)
		assert.Equal(t, 0.5, p.Safety.Score)
	}
}

func TestRunCacheOnlyMissesMarkIncomplete(t *testing.T) {
	gw := &stubGateway{}
	cache := routecache.New(routecache.NewMemory(), gw, time.Hour, routecache.ModeCacheOnly)
	incidents := stubIncidents{incidents: []safety.Incident{
		{Category: safety.CategoryOther, Lat: 32.78, Lon: -96.80, OccurredAt: time.Now().UTC()},
	}}

	a, err := New(testConfig(), cache, stubGeocoder{}, incidents)
	require.NoError(t, err)

	result, err := a.Run(context.Background(), testDestinations())
	require.NoError(t, err)

	assert.Zero(t, gw.calls.Load())
	assert.Zero(t, result.Regional.CompletePoints)
	for _, p := range result.Points {
		assert.Equal(t, 2, p.Unavailable)
	}
}

func TestRunRejectsNoUsableDestinations(t *testing.T) {
	a := newTestAnalyzer(t, testConfig(), &stubGateway{}, stubIncidents{})
	_, err := a.Run(context.Background(), nil)
	require.Error(t, err)
}

func TestNewRejectsBadWeights(t *testing.T) {
	cfg := testConfig()
	cfg.Weights.Safety = 0.31
	cache := routecache.New(routecache.NewMemory(), &stubGateway{}, time.Hour, routecache.ModeNormal)

	_, err := New(cfg, cache, stubGeocoder{}, stubIncidents{})
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))
}

func TestRunInvalidGridConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.GridSizeMiles = 5.0 // above the allowed maximum

	a := newTestAnalyzer(t, cfg, &stubGateway{}, stubIncidents{})
	_, err := a.Run(context.Background(), testDestinations())
	require.Error(t, err)
	assert.True(t, config.IsValidationError(err))
}