package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
)

func defaultWeights() config.WeightsConfig {
	return config.WeightsConfig{TravelTime: 0.4, TravelCost: 0.3, Safety: 0.3}
}

func point(id int, weeklyMinutes, weeklyUSD, safetyScore float64) model.PointAnalysis {
	return model.PointAnalysis{
		Point:    model.GridPoint{ID: id, Lat: 32.78 + float64(id)*0.01, Lon: -96.80},
		Travel:   model.TravelAnalysis{WeeklyMinutes: weeklyMinutes},
		Cost:     model.CostAnalysis{WeeklyUSD: weeklyUSD},
		Safety:   model.SafetyAnalysis{Score: safetyScore},
		Complete: true,
	}
}

func TestNewAggregatorValidatesWeights(t *testing.T) {
	_, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	for _, w := range []config.WeightsConfig{
		{TravelTime: 0.4, TravelCost: 0.3, Safety: 0.29}, // 0.99
		{TravelTime: 0.4, TravelCost: 0.3, Safety: 0.31}, // 1.01
		{},
	} {
		_, err := NewAggregator(w)
		require.Error(t, err)
		assert.True(t, config.IsValidationError(err))
	}
}

func TestFinalizeCompositeInRange(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	points := []model.PointAnalysis{
		point(1, 100, 40, 0.1),
		point(2, 300, 90, 0.6),
		point(3, 200, 10, 0.3),
	}
	a.Finalize(points)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Composite.Overall, 0.0)
		assert.LessOrEqual(t, p.Composite.Overall, 1.0)
		assert.NotEmpty(t, p.Composite.Grade)
		for _, c := range p.Composite.Components {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestFinalizeBestPointWins(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	points := []model.PointAnalysis{
		point(1, 300, 90, 1.0), // worst on every axis
		point(2, 100, 40, 0.0), // best on every axis
		point(3, 200, 60, 0.5),
	}
	stats := a.Finalize(points)

	best := points[1]
	assert.Equal(t, 1.0, best.Composite.Overall)
	assert.Equal(t, 100.0, best.Composite.Percentile)
	assert.Equal(t, "A+", best.Composite.Grade)

	require.NotEmpty(t, stats.BestLocations)
	assert.Equal(t, 1, stats.BestLocations[0].Rank)
	assert.Equal(t, best.Point.Lat, stats.BestLocations[0].Lat)

	worst := points[0]
	assert.Equal(t, 0.0, worst.Composite.Overall)
	assert.Equal(t, 0.0, worst.Composite.Percentile)
}

func TestFinalizeTieBreaking(t *testing.T) {
	a, err := NewAggregator(config.WeightsConfig{TravelTime: 0, TravelCost: 0, Safety: 1})
	require.NoError(t, err)

	// Identical safety means identical composites; ties break by travel
	// time, then cost, then id.
	p1 := point(5, 200, 40, 0.5)
	p2 := point(2, 100, 40, 0.5)
	p3 := point(9, 100, 40, 0.5)
	points := []model.PointAnalysis{p1, p2, p3}

	stats := a.Finalize(points)
	require.Len(t, stats.BestLocations, 3)
	assert.Equal(t, p2.Point.Lat, stats.BestLocations[0].Lat) // travel 100, id 2
	assert.Equal(t, p3.Point.Lat, stats.BestLocations[1].Lat) // travel 100, id 9
	assert.Equal(t, p1.Point.Lat, stats.BestLocations[2].Lat) // travel 200
}

func TestFinalizeIncompleteExcludedFromRanking(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	incomplete := point(3, 50, 5, 0.5)
	incomplete.Complete = false
	incomplete.Safety.Incomplete = true

	points := []model.PointAnalysis{
		point(1, 100, 40, 0.1),
		point(2, 300, 90, 0.6),
		incomplete,
	}
	stats := a.Finalize(points)

	assert.Equal(t, 2, stats.CompletePoints)
	assert.Equal(t, 1, stats.IncompletePoints)
	assert.Len(t, stats.BestLocations, 2)

	// Incomplete points still get a composite, but no percentile rank.
	assert.Zero(t, points[2].Composite.Percentile)
	assert.NotEmpty(t, points[2].Composite.Grade)
}

func TestFinalizeRegionalSummaries(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	points := []model.PointAnalysis{
		point(1, 100, 10, 0.2),
		point(2, 200, 20, 0.4),
		point(3, 300, 30, 0.6),
		point(4, 400, 40, 0.8),
	}
	stats := a.Finalize(points)

	assert.Equal(t, 100.0, stats.Travel.Min)
	assert.Equal(t, 400.0, stats.Travel.Max)
	assert.Equal(t, 250.0, stats.Travel.Mean)
	assert.Equal(t, 250.0, stats.Travel.Median)
	assert.Equal(t, 25.0, stats.Cost.Mean)
	assert.InDelta(t, 0.5, stats.Safety.Mean, 1e-9)
}

func TestFinalizeUniformMetricIsNeutral(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	points := []model.PointAnalysis{
		point(1, 100, 40, 0.2),
		point(2, 100, 40, 0.4),
	}
	a.Finalize(points)

	// Travel and cost carry no signal, so those components sit at 0.5 and
	// only safety separates the two points.
	assert.InDelta(t, 0.5, points[0].Composite.Components["travel_time"], 1e-9)
	assert.InDelta(t, 0.5, points[0].Composite.Components["travel_cost"], 1e-9)
	assert.Greater(t, points[0].Composite.Overall, points[1].Composite.Overall)
}

func TestFinalizeEmpty(t *testing.T) {
	a, err := NewAggregator(defaultWeights())
	require.NoError(t, err)

	stats := a.Finalize(nil)
	assert.Zero(t, stats.CompletePoints)
	assert.Empty(t, stats.BestLocations)
}
