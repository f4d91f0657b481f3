package scoring

import (
	"math"
	"sort"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
)

const topLocations = 5

// Aggregator combines per-point travel, cost, and safety results into
// composite scores and regional statistics. It runs once, after every point
// has been analyzed.
type Aggregator struct {
	weights config.WeightsConfig
}

// NewAggregator validates the weights and builds an Aggregator. Weights must
// sum to 1.0 within tolerance.
func NewAggregator(weights config.WeightsConfig) (*Aggregator, error) {
	sum := weights.TravelTime + weights.TravelCost + weights.Safety
	if math.Abs(sum-1.0) > 0.001 {
		return nil, config.NewValidationError("scoring: weights must sum to 1.0, got %.3f", sum)
	}
	return &Aggregator{weights: weights}, nil
}

// Finalize fills in every point's composite score and percentile in place
// and returns the regional summary. Travel and cost are min-max normalized
// over points with complete data; incomplete points are scored against the
// same scale but excluded from percentile ranking and the summaries.
func (a *Aggregator) Finalize(points []model.PointAnalysis) model.RegionalStatistics {
	complete := make([]*model.PointAnalysis, 0, len(points))
	for i := range points {
		if points[i].Complete {
			complete = append(complete, &points[i])
		}
	}

	basis := complete
	if len(basis) == 0 {
		for i := range points {
			basis = append(basis, &points[i])
		}
	}

	travelScale := scaleOf(basis, func(p *model.PointAnalysis) float64 { return p.Travel.WeeklyMinutes })
	costScale := scaleOf(basis, func(p *model.PointAnalysis) float64 { return p.Cost.WeeklyUSD })

	for i := range points {
		p := &points[i]

		// Each component is 0-1 with higher meaning better.
		timeScore := 1 - travelScale.normalize(p.Travel.WeeklyMinutes)
		costScore := 1 - costScale.normalize(p.Cost.WeeklyUSD)
		safetyScore := 1 - p.Safety.Score

		overall := a.weights.TravelTime*timeScore +
			a.weights.TravelCost*costScore +
			a.weights.Safety*safetyScore

		p.Composite = model.CompositeScore{
			Overall: overall,
			Components: map[string]float64{
				"travel_time": timeScore,
				"travel_cost": costScore,
				"safety":      safetyScore,
			},
			Grade: model.GradeForScore(1 - overall),
		}
	}

	rankPoints(complete)

	stats := model.RegionalStatistics{
		CompletePoints:   len(complete),
		IncompletePoints: len(points) - len(complete),
	}
	if len(complete) > 0 {
		stats.Travel = summarize(complete, func(p *model.PointAnalysis) float64 { return p.Travel.WeeklyMinutes })
		stats.Cost = summarize(complete, func(p *model.PointAnalysis) float64 { return p.Cost.WeeklyUSD })
		stats.Safety = summarize(complete, func(p *model.PointAnalysis) float64 { return p.Safety.Score })
		stats.Composite = summarize(complete, func(p *model.PointAnalysis) float64 { return p.Composite.Overall })
	}

	for i, p := range complete {
		if i >= topLocations {
			break
		}
		stats.BestLocations = append(stats.BestLocations, model.RankedLocation{
			Rank:  i + 1,
			Lat:   p.Point.Lat,
			Lon:   p.Point.Lon,
			Score: p.Composite.Overall,
		})
	}

	return stats
}

// rankPoints orders complete points best first and assigns percentiles.
// Ties break by lowest travel time, then lowest cost, then point id, so the
// ordering is stable across runs.
func rankPoints(complete []*model.PointAnalysis) {
	sort.Slice(complete, func(i, j int) bool {
		a, b := complete[i], complete[j]
		if a.Composite.Overall != b.Composite.Overall {
			return a.Composite.Overall > b.Composite.Overall
		}
		if a.Travel.WeeklyMinutes != b.Travel.WeeklyMinutes {
			return a.Travel.WeeklyMinutes < b.Travel.WeeklyMinutes
		}
		if a.Cost.WeeklyUSD != b.Cost.WeeklyUSD {
			return a.Cost.WeeklyUSD < b.Cost.WeeklyUSD
		}
		return a.Point.ID < b.Point.ID
	})

	n := len(complete)
	for i, p := range complete {
		if n == 1 {
			p.Composite.Percentile = 100
			continue
		}
		p.Composite.Percentile = float64(n-1-i) / float64(n-1) * 100
	}
}

type scale struct {
	min, max float64
}

func scaleOf(points []*model.PointAnalysis, metric func(*model.PointAnalysis) float64) scale {
	s := scale{min: math.Inf(1), max: math.Inf(-1)}
	for _, p := range points {
		v := metric(p)
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	return s
}

// normalize maps v onto [0, 1] within the scale. When every point shares the
// same value the metric carries no signal, so everyone gets a neutral 0.5.
func (s scale) normalize(v float64) float64 {
	if s.max <= s.min {
		return 0.5
	}
	return math.Min(math.Max((v-s.min)/(s.max-s.min), 0), 1)
}

func summarize(points []*model.PointAnalysis, metric func(*model.PointAnalysis) float64) model.MetricSummary {
	vals := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		vals[i] = metric(p)
		sum += vals[i]
	}
	sort.Float64s(vals)

	mid := len(vals) / 2
	median := vals[mid]
	if len(vals)%2 == 0 {
		median = (vals[mid-1] + vals[mid]) / 2
	}

	return model.MetricSummary{
		Min:    vals[0],
		Max:    vals[len(vals)-1],
		Mean:   sum / float64(len(vals)),
		Median: median,
	}
}
