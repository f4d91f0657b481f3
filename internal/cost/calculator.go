package cost

import (
	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/routing"
)

// Rates holds per-mode transportation pricing.
type Rates struct {
	// DrivingPerMileUSD covers fuel, maintenance, and depreciation.
	DrivingPerMileUSD float64 `yaml:"cost_per_mile" mapstructure:"cost_per_mile"`

	// TransitFareUSD is a flat fare per one-way transit trip.
	TransitFareUSD float64 `yaml:"transit_fare" mapstructure:"transit_fare"`
}

// DefaultRates returns the default transportation pricing.
func DefaultRates() Rates {
	return Rates{
		DrivingPerMileUSD: 0.65,
		TransitFareUSD:    2.75,
	}
}

// Trip is one recurring one-way journey from a grid point to a destination,
// weighted by how often it happens in an average week.
type Trip struct {
	Destination     string
	Category        string
	Mode            routing.Mode
	DistanceMiles   float64
	DurationMinutes float64
	WeeklyTrips     float64
}

// Calculator prices trips.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// PerTrip returns the cost of a single one-way trip. Driving is priced per
// mile, transit is a flat fare, and active modes are free.
func (c *Calculator) PerTrip(mode routing.Mode, distanceMiles float64) float64 {
	switch mode {
	case routing.ModeDriving:
		return distanceMiles * c.rates.DrivingPerMileUSD
	case routing.ModeTransit:
		return c.rates.TransitFareUSD
	default:
		return 0
	}
}

// Aggregate rolls a point's trips up into weekly and monthly spend. Monthly
// figures use the average month of 52/12 weeks rather than a fixed 4 weeks.
func (c *Calculator) Aggregate(trips []Trip) model.CostAnalysis {
	out := model.CostAnalysis{
		ByMode:        make(map[string]float64),
		ByDestination: make(map[string]float64),
	}
	for _, t := range trips {
		weekly := c.PerTrip(t.Mode, t.DistanceMiles) * t.WeeklyTrips
		out.WeeklyUSD += weekly
		out.ByMode[string(t.Mode)] += weekly
		out.ByDestination[t.Destination] += weekly
	}
	out.MonthlyUSD = out.WeeklyUSD * 52 / 12
	return out
}

// AggregateTravel rolls the same trip list up into time spent traveling,
// grouped per destination. Trip order is preserved for the first appearance
// of each destination.
func AggregateTravel(trips []Trip) model.TravelAnalysis {
	out := model.TravelAnalysis{}
	index := make(map[string]int)
	for _, t := range trips {
		weekly := t.DurationMinutes * t.WeeklyTrips
		out.WeeklyMinutes += weekly

		i, ok := index[t.Destination]
		if !ok {
			i = len(out.Destinations)
			index[t.Destination] = i
			out.Destinations = append(out.Destinations, model.DestinationTravel{
				Destination: t.Destination,
				Category:    t.Category,
			})
		}
		d := &out.Destinations[i]
		d.WeeklyTrips += t.WeeklyTrips
		d.WeeklyMinutes += weekly
	}

	for i := range out.Destinations {
		d := &out.Destinations[i]
		d.MonthlyTrips = d.WeeklyTrips * 52 / 12
		d.MonthlyMinutes = d.WeeklyMinutes * 52 / 12
		if d.WeeklyTrips > 0 {
			d.AvgMinutes = d.WeeklyMinutes / d.WeeklyTrips
		}
	}
	out.MonthlyMinutes = out.WeeklyMinutes * 52 / 12
	return out
}
