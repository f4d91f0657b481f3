package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/location-evaluator/internal/model"
	"github.com/sells-group/location-evaluator/internal/routing"
	"github.com/sells-group/location-evaluator/internal/schedule"
)

// rulePlan is one parsed schedule rule with its precomputed frequency and a
// representative departure for route cache bucketing.
type rulePlan struct {
	rule        schedule.Rule
	weeklyTrips float64
	departure   time.Time
}

// destinationPlan is a destination that survived geocoding and schedule
// parsing, ready for per-point routing.
type destinationPlan struct {
	dest  model.Destination
	mode  routing.Mode
	rules []rulePlan
}

// plan resolves destinations into executable plans. Destinations that fail
// geocoding or schedule parsing are skipped and reported, never fatal.
func (a *Analyzer) plan(ctx context.Context, dests []model.Destination) (plans []destinationPlan, skipped []string) {
	for _, d := range dests {
		log := zap.L().With(zap.String("destination", d.Name))

		if d.Lat == 0 && d.Lon == 0 {
			r, err := a.geo.Geocode(ctx, d.Address)
			if err != nil || !r.Matched {
				log.Warn("skipping destination, geocode failed", zap.Error(err))
				skipped = append(skipped, fmt.Sprintf("%s: address %q did not geocode", d.Name, d.Address))
				continue
			}
			d.Lat, d.Lon = r.Latitude, r.Longitude
		}

		p := destinationPlan{dest: d, mode: a.mode}
		ok := true
		for _, sr := range d.Schedule {
			rule, err := schedule.ParseRule(sr)
			if err != nil {
				log.Warn("skipping destination, bad schedule", zap.Error(err))
				skipped = append(skipped, fmt.Sprintf("%s: %v", d.Name, err))
				ok = false
				break
			}
			p.rules = append(p.rules, rulePlan{
				rule:        rule,
				weeklyTrips: rule.Frequency(a.year).WeeklyEquivalent,
				departure:   representativeDeparture(rule, a.year),
			})
		}
		if ok && len(p.rules) > 0 {
			plans = append(plans, p)
		}
	}
	return plans, skipped
}

// representativeDeparture picks the rule's first occurrence of the year as
// the departure used for route lookup, so every point shares one cache
// bucket per rule.
func representativeDeparture(rule schedule.Rule, year int) time.Time {
	occs := rule.Expand(year)
	if len(occs) == 0 {
		return time.Date(year, time.January, 1, 9, 0, 0, 0, time.UTC)
	}
	o := occs[0]
	return o.Date.Add(time.Duration(o.ArrivalMinute) * time.Minute)
}
