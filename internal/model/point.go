package model

// GridPoint is one coordinate sampled from the analysis mesh. Points are
// immutable once generated and uniquely identified by their grid index.
type GridPoint struct {
	ID                 int     `json:"id"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	DistanceFromCenter float64 `json:"distance_from_center"`
}

// Bounds is the bounding box of a generated grid.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// GridInfo summarizes a generated grid for metadata and the grid subcommand.
type GridInfo struct {
	TotalPoints        int     `json:"total_points"`
	SpacingMiles       float64 `json:"spacing_miles"`
	RadiusMiles        float64 `json:"radius_miles"`
	CenterLat          float64 `json:"center_lat"`
	CenterLon          float64 `json:"center_lon"`
	Bounds             Bounds  `json:"bounds"`
	CoverageAreaSqMi   float64 `json:"coverage_area_sq_miles"`
	SampledAreaSqMi    float64 `json:"sampled_area_sq_miles"`
}
