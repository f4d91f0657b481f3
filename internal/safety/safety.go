package safety

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/grid"
	"github.com/sells-group/location-evaluator/internal/model"
)

// ErrNoCoverage reports that an incident source has no data for the queried
// area. Points affected are flagged incomplete, not failed.
var ErrNoCoverage = errors.New("safety: no incident coverage")

// Category classifies an incident for weighting.
type Category string

const (
	CategoryViolent  Category = "violent"
	CategoryProperty Category = "property"
	CategoryOther    Category = "other"
)

// Incident is a single reported incident.
type Incident struct {
	Category   Category
	Lat        float64
	Lon        float64
	OccurredAt time.Time
}

// IncidentSource supplies incidents for a bounding box. Implementations may
// return a partial or empty result; they return ErrNoCoverage only when the
// area is entirely outside their coverage.
type IncidentSource interface {
	Query(ctx context.Context, bounds model.Bounds, since time.Time) ([]Incident, error)
}

// neutralScore is reported for points without incident coverage. Such points
// are flagged incomplete so the neutral value never masquerades as a real
// measurement.
const neutralScore = 0.5

// Model scores grid points against incident data. Scores are on a 0-1 scale
// where 0 is safest. The reference time is fixed at construction so recency
// decay is deterministic across a run.
type Model struct {
	cfg  config.SafetyConfig
	asOf time.Time
}

// NewModel builds a safety model using asOf as the reference time for
// recency decay.
func NewModel(cfg config.SafetyConfig, asOf time.Time) *Model {
	return &Model{cfg: cfg, asOf: asOf}
}

// Score evaluates one grid point against the incidents near it. The caller
// passes every incident for the analysis region; Score filters to the
// configured radius around the point.
func (m *Model) Score(point model.GridPoint, incidents []Incident) model.SafetyAnalysis {
	if len(incidents) == 0 {
		return model.SafetyAnalysis{
			Score:      neutralScore,
			Grade:      model.GradeForScore(neutralScore),
			Incomplete: true,
		}
	}

	var weighted float64
	count := 0
	byType := make(map[string]int)
	for _, inc := range incidents {
		if grid.DistanceMiles(point.Lat, point.Lon, inc.Lat, inc.Lon) > m.cfg.RadiusMiles {
			continue
		}
		count++
		byType[string(inc.Category)]++
		weighted += m.categoryWeight(inc.Category) * m.recencyWeight(inc.OccurredAt)
	}

	score := m.normalize(weighted, count)
	return model.SafetyAnalysis{
		Score:         score,
		Grade:         model.GradeForScore(score),
		IncidentCount: count,
		CountsByType:  byType,
	}
}

func (m *Model) categoryWeight(c Category) float64 {
	switch c {
	case CategoryViolent:
		return m.cfg.ViolentWeight
	case CategoryProperty:
		return m.cfg.PropertyWeight
	default:
		return m.cfg.OtherWeight
	}
}

// recencyWeight halves an incident's influence every HalfLifeDays. Incidents
// dated in the future count at full weight.
func (m *Model) recencyWeight(occurred time.Time) float64 {
	ageDays := m.asOf.Sub(occurred).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return math.Exp2(-ageDays / m.cfg.HalfLifeDays)
}

// normalize divides the weighted total by a density factor so dense areas are
// not penalized purely for density, then maps onto [0, 1].
func (m *Model) normalize(weighted float64, count int) float64 {
	var density float64
	switch m.cfg.DensityStrategy {
	case config.DensityStrategyArea:
		// Incidents per square mile of the sampled disc.
		area := math.Pi * m.cfg.RadiusMiles * m.cfg.RadiusMiles
		density = float64(count) / area
	default:
		// Raw incident count proxies for population density.
		density = float64(count)
	}

	divisor := math.Max(density/m.cfg.DensityScale, 1)
	return math.Min(weighted/divisor/m.cfg.ScoreScale, 1)
}
