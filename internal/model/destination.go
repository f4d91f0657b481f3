package model

// ScheduleRule describes one recurring visit to a destination. Exactly one
// of Days (weekly, e.g. "Mon-Fri" or "Tue,Thu") or Pattern (monthly, e.g.
// "first_monday", "last_friday") must be set.
type ScheduleRule struct {
	Days          string `yaml:"days,omitempty" json:"days,omitempty"`
	Pattern       string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	ArrivalTime   string `yaml:"arrival_time" json:"arrival_time"`
	DepartureTime string `yaml:"departure_time,omitempty" json:"departure_time,omitempty"`
}

// IsWeekly reports whether the rule recurs weekly rather than monthly.
func (r ScheduleRule) IsWeekly() bool { return r.Days != "" }

// Destination is a recurring trip target. The geocode (Lat/Lon) is resolved
// once at config validation time and treated as immutable for the run.
type Destination struct {
	Name     string         `yaml:"name" json:"name"`
	Address  string         `yaml:"address" json:"address"`
	Category string         `yaml:"-" json:"category"`
	Lat      float64        `yaml:"lat,omitempty" json:"lat"`
	Lon      float64        `yaml:"lon,omitempty" json:"lon"`
	Schedule []ScheduleRule `yaml:"schedule" json:"schedule"`
}

// TripDirection distinguishes the two halves of a scheduled visit.
type TripDirection string

const (
	DirectionOutbound TripDirection = "outbound"
	DirectionReturn   TripDirection = "return"
)
