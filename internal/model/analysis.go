package model

import "time"

// DestinationTravel summarizes travel to a single destination from one point.
type DestinationTravel struct {
	Destination    string  `json:"destination"`
	Category       string  `json:"category"`
	WeeklyTrips    float64 `json:"weekly_trips"`
	MonthlyTrips   float64 `json:"monthly_trips"`
	AvgMinutes     float64 `json:"avg_minutes"`
	WeeklyMinutes  float64 `json:"weekly_minutes"`
	MonthlyMinutes float64 `json:"monthly_minutes"`
	Unavailable    int     `json:"unavailable,omitempty"`
}

// TravelAnalysis aggregates travel time for a grid point.
type TravelAnalysis struct {
	WeeklyMinutes  float64             `json:"weekly_minutes"`
	MonthlyMinutes float64             `json:"monthly_minutes"`
	Destinations   []DestinationTravel `json:"destinations"`
}

// CostAnalysis aggregates transportation cost for a grid point.
type CostAnalysis struct {
	WeeklyUSD     float64            `json:"weekly_usd"`
	MonthlyUSD    float64            `json:"monthly_usd"`
	ByMode        map[string]float64 `json:"by_mode"`
	ByDestination map[string]float64 `json:"by_destination,omitempty"`
}

// SafetyAnalysis holds the normalized safety result for a grid point.
// Score is on a 0-1 scale where lower is safer. Incomplete marks points
// with missing incident coverage; their Score is a neutral default and
// they are excluded from percentile ranking.
type SafetyAnalysis struct {
	Score          float64        `json:"score"`
	Grade          string         `json:"grade"`
	IncidentCount  int            `json:"incident_count"`
	CountsByType   map[string]int `json:"counts_by_type,omitempty"`
	Incomplete     bool           `json:"incomplete,omitempty"`
}

// CompositeScore is the weighted combination of normalized components.
// Overall is on a 0-1 scale where higher is better.
type CompositeScore struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
	Grade      string             `json:"grade"`
	Percentile float64            `json:"percentile"`
}

// PointAnalysis is the complete per-point result, finalized once by the
// score aggregator and immutable afterwards.
type PointAnalysis struct {
	Point     GridPoint      `json:"point"`
	Travel    TravelAnalysis `json:"travel"`
	Cost      CostAnalysis   `json:"cost"`
	Safety    SafetyAnalysis `json:"safety"`
	Composite CompositeScore `json:"composite"`

	// Complete is false when any required metric (route or safety) could
	// not be computed for this point.
	Complete    bool `json:"complete"`
	Unavailable int  `json:"unavailable_occurrences,omitempty"`
}

// MetricSummary holds min/max/mean/median for one metric across the region.
type MetricSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// RankedLocation is one entry in the regional top-N ranking.
type RankedLocation struct {
	Rank  int     `json:"rank"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Score float64 `json:"score"`
}

// RegionalStatistics is a read-only summary over all point analyses.
// Metric summaries cover complete points only.
type RegionalStatistics struct {
	Travel        MetricSummary    `json:"travel"`
	Cost          MetricSummary    `json:"cost"`
	Safety        MetricSummary    `json:"safety"`
	Composite     MetricSummary    `json:"composite"`
	BestLocations []RankedLocation `json:"best_locations"`

	CompletePoints   int      `json:"complete_points"`
	IncompletePoints int      `json:"incomplete_points"`
	SkippedSchedules []string `json:"skipped_schedules,omitempty"`
}

// RunMetadata describes the run that produced an export.
type RunMetadata struct {
	RunID        string    `json:"run_id"`
	Generated    time.Time `json:"generated"`
	Year         int       `json:"year"`
	SpacingMiles float64   `json:"spacing_miles"`
	RadiusMiles  float64   `json:"radius_miles"`
	CenterLat    float64   `json:"center_lat"`
	CenterLon    float64   `json:"center_lon"`
	TotalPoints  int       `json:"total_points"`
	Bounds       Bounds    `json:"bounds"`
}

// ExportResult is the sole contract with the visualization/export layer.
type ExportResult struct {
	Metadata RunMetadata        `json:"metadata"`
	Points   []PointAnalysis    `json:"grid_points"`
	Regional RegionalStatistics `json:"regional_statistics"`
}
