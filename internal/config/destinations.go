package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/location-evaluator/internal/model"
)

// LoadDestinations reads the destinations file: a map of category name to
// a list of destinations, each with an address and a schedule.
func LoadDestinations(path string) ([]model.Destination, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read destinations %s", path)
	}

	var byCategory map[string][]model.Destination
	if err := yaml.Unmarshal(raw, &byCategory); err != nil {
		return nil, eris.Wrapf(err, "config: parse destinations %s", path)
	}
	if len(byCategory) == 0 {
		return nil, NewValidationError("config: destinations file %s has no categories", path)
	}

	var dests []model.Destination
	for category, list := range byCategory {
		for i, d := range list {
			if d.Address == "" {
				return nil, NewValidationError("config: destination %d in %q missing address", i, category)
			}
			if d.Name == "" {
				return nil, NewValidationError("config: destination %d in %q missing name", i, category)
			}
			if len(d.Schedule) == 0 {
				return nil, NewValidationError("config: destination %q has no schedule", d.Name)
			}
			d.Category = category
			dests = append(dests, d)
		}
	}
	if len(dests) == 0 {
		return nil, NewValidationError("config: destinations file %s has no destinations", path)
	}
	return dests, nil
}
