package grid

import (
	"math"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/config"
	"github.com/sells-group/location-evaluator/internal/model"
)

const (
	// earthRadiusMiles is the mean Earth radius used for great-circle math.
	earthRadiusMiles = 3959.0

	// milesPerDegreeLat is the approximate north-south extent of one degree
	// of latitude. Longitude shrinks by cos(latitude).
	milesPerDegreeLat = 69.0
)

// DistanceMiles returns the great-circle distance between two coordinates.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusMiles
}

// Generator produces the regularly spaced analysis mesh around a center
// point. Generation is deterministic: points are emitted south to north,
// west to east, and IDs are assigned in that order.
type Generator struct {
	centerLat    float64
	centerLon    float64
	radiusMiles  float64
	spacingMiles float64
}

// New validates the grid parameters and returns a Generator.
// Spacing must be within [0.1, 2.0] miles and radius within [5, 50].
func New(centerLat, centerLon, radiusMiles, spacingMiles float64) (*Generator, error) {
	if spacingMiles < config.MinSpacingMiles || spacingMiles > config.MaxSpacingMiles {
		return nil, config.NewValidationError("grid: spacing %.2f miles outside [%.1f, %.1f]",
			spacingMiles, config.MinSpacingMiles, config.MaxSpacingMiles)
	}
	if radiusMiles < config.MinRadiusMiles || radiusMiles > config.MaxRadiusMiles {
		return nil, config.NewValidationError("grid: radius %.1f miles outside [%.0f, %.0f]",
			radiusMiles, config.MinRadiusMiles, config.MaxRadiusMiles)
	}
	if centerLat < -90 || centerLat > 90 {
		return nil, config.NewValidationError("grid: center latitude %.4f outside [-90, 90]", centerLat)
	}
	if centerLon < -180 || centerLon > 180 {
		return nil, config.NewValidationError("grid: center longitude %.4f outside [-180, 180]", centerLon)
	}
	return &Generator{
		centerLat:    centerLat,
		centerLon:    centerLon,
		radiusMiles:  radiusMiles,
		spacingMiles: spacingMiles,
	}, nil
}

// Points generates all grid points within the configured radius.
// The square lattice is clipped to the circle: points whose great-circle
// distance from the center exceeds the radius are excluded.
func (g *Generator) Points() []model.GridPoint {
	latPerMile := 1.0 / milesPerDegreeLat
	lonPerMile := 1.0 / (milesPerDegreeLat * math.Cos(g.centerLat*math.Pi/180))

	latSpacing := g.spacingMiles * latPerMile
	lonSpacing := g.spacingMiles * lonPerMile
	radiusLat := g.radiusMiles * latPerMile
	radiusLon := g.radiusMiles * lonPerMile

	var points []model.GridPoint
	id := 0
	for lat := g.centerLat - radiusLat; lat <= g.centerLat+radiusLat+latSpacing/2; lat += latSpacing {
		for lon := g.centerLon - radiusLon; lon <= g.centerLon+radiusLon+lonSpacing/2; lon += lonSpacing {
			dist := DistanceMiles(lat, lon, g.centerLat, g.centerLon)
			if dist > g.radiusMiles {
				continue
			}
			points = append(points, model.GridPoint{
				ID:                 id,
				Lat:                round(lat, 6),
				Lon:                round(lon, 6),
				DistanceFromCenter: round(dist, 2),
			})
			id++
		}
	}

	zap.L().Debug("generated grid",
		zap.Int("points", len(points)),
		zap.Float64("spacing_miles", g.spacingMiles),
		zap.Float64("radius_miles", g.radiusMiles),
	)
	return points
}

// Bounds returns the bounding box of the given points.
func Bounds(points []model.GridPoint) model.Bounds {
	if len(points) == 0 {
		return model.Bounds{}
	}
	b := model.Bounds{
		North: points[0].Lat, South: points[0].Lat,
		East: points[0].Lon, West: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.North = math.Max(b.North, p.Lat)
		b.South = math.Min(b.South, p.Lat)
		b.East = math.Max(b.East, p.Lon)
		b.West = math.Min(b.West, p.Lon)
	}
	return b
}

// Info summarizes a generated grid.
func (g *Generator) Info(points []model.GridPoint) model.GridInfo {
	return model.GridInfo{
		TotalPoints:      len(points),
		SpacingMiles:     g.spacingMiles,
		RadiusMiles:      g.radiusMiles,
		CenterLat:        g.centerLat,
		CenterLon:        g.centerLon,
		Bounds:           Bounds(points),
		CoverageAreaSqMi: math.Pi * g.radiusMiles * g.radiusMiles,
		SampledAreaSqMi:  float64(len(points)) * g.spacingMiles * g.spacingMiles,
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
