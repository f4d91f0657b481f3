package crimedata

import (
	"strings"

	"github.com/sells-group/location-evaluator/internal/safety"
)

var violentOffenses = []string{
	"homicide", "murder", "assault", "robbery", "rape",
	"sexual assault", "kidnapping", "carjacking",
}

var propertyOffenses = []string{
	"burglary", "theft", "larceny", "shoplifting", "vandalism",
	"arson", "stolen vehicle", "motor vehicle theft", "criminal mischief",
}

// Classify maps a free-text offense description onto an incident category.
// Unrecognized offenses fall into the other bucket.
func Classify(offense string) safety.Category {
	o := strings.ToLower(offense)
	for _, v := range violentOffenses {
		if strings.Contains(o, v) {
			return safety.CategoryViolent
		}
	}
	for _, p := range propertyOffenses {
		if strings.Contains(o, p) {
			return safety.CategoryProperty
		}
	}
	return safety.CategoryOther
}
