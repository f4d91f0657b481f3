package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/location-evaluator/internal/model"
)

// ParseError marks a schedule rule that could not be parsed. The offending
// token is preserved so reports can name it. A parse failure skips the
// destination that owns the rule; it never aborts the run.
type ParseError struct {
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schedule: %s (token %q)", e.Msg, e.Token)
}

func newParseError(token, format string, args ...any) *ParseError {
	return &ParseError{Token: token, Msg: fmt.Sprintf(format, args...)}
}

// Ordinal selects which matching weekday of a month a monthly rule refers to.
type Ordinal int

const (
	First Ordinal = iota + 1
	Second
	Third
	Fourth
	Fifth
	Last Ordinal = -1
)

var ordinals = map[string]Ordinal{
	"first":  First,
	"second": Second,
	"third":  Third,
	"fourth": Fourth,
	"fifth":  Fifth,
	"last":   Last,
}

// shortDays orders weekday tokens as they appear in day ranges.
var shortDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var shortDayIndex = func() map[string]int {
	m := make(map[string]int, len(shortDays))
	for i, d := range shortDays {
		m[d] = i
	}
	return m
}()

// weekdayForIndex maps a shortDays index (Mon=0) to time.Weekday.
func weekdayForIndex(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

var longDays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Rule is a parsed schedule rule, ready for expansion.
type Rule struct {
	Weekly   bool
	Weekdays []time.Weekday // weekly rules; calendar order starting Monday
	Ordinal  Ordinal        // monthly rules
	Weekday  time.Weekday   // monthly rules

	ArrivalMinute   int // minutes after midnight
	DepartureMinute int // -1 when the rule has no departure time
}

// ParseRule validates and parses a schedule rule from configuration.
func ParseRule(r model.ScheduleRule) (Rule, error) {
	if (r.Days == "") == (r.Pattern == "") {
		return Rule{}, newParseError(r.Days+r.Pattern, "rule needs exactly one of days or pattern")
	}

	arrival, err := parseClock(r.ArrivalTime)
	if err != nil {
		return Rule{}, err
	}
	departure := -1
	if r.DepartureTime != "" {
		departure, err = parseClock(r.DepartureTime)
		if err != nil {
			return Rule{}, err
		}
	}

	if r.Days != "" {
		days, err := ParseDays(r.Days)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Weekly: true, Weekdays: days, ArrivalMinute: arrival, DepartureMinute: departure}, nil
	}

	ord, wd, err := parsePattern(r.Pattern)
	if err != nil {
		return Rule{}, err
	}
	return Rule{Ordinal: ord, Weekday: wd, ArrivalMinute: arrival, DepartureMinute: departure}, nil
}

// ParseDays expands a weekday expression ("Mon-Fri", "Mon,Wed,Fri", "Sat")
// into the matching weekday set, in calendar order starting Monday.
// Ranges are inclusive; an end day earlier than the start day is malformed.
func ParseDays(expr string) ([]time.Weekday, error) {
	expr = strings.TrimSpace(expr)

	if strings.Contains(expr, "-") {
		parts := strings.SplitN(expr, "-", 2)
		start, ok := shortDayIndex[strings.TrimSpace(parts[0])]
		if !ok {
			return nil, newParseError(strings.TrimSpace(parts[0]), "unknown day in range %q", expr)
		}
		end, ok := shortDayIndex[strings.TrimSpace(parts[1])]
		if !ok {
			return nil, newParseError(strings.TrimSpace(parts[1]), "unknown day in range %q", expr)
		}
		if end < start {
			return nil, newParseError(expr, "range end before start")
		}
		days := make([]time.Weekday, 0, end-start+1)
		for i := start; i <= end; i++ {
			days = append(days, weekdayForIndex(i))
		}
		return days, nil
	}

	tokens := strings.Split(expr, ",")
	seen := make(map[int]bool, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		idx, ok := shortDayIndex[tok]
		if !ok {
			return nil, newParseError(tok, "unknown day")
		}
		seen[idx] = true
	}
	var days []time.Weekday
	for i := range shortDays {
		if seen[i] {
			days = append(days, weekdayForIndex(i))
		}
	}
	return days, nil
}

// parsePattern parses a monthly pattern like "first_monday" or "last_friday".
func parsePattern(pattern string) (Ordinal, time.Weekday, error) {
	parts := strings.SplitN(strings.TrimSpace(pattern), "_", 2)
	if len(parts) != 2 {
		return 0, 0, newParseError(pattern, "monthly pattern must be ordinal_weekday")
	}
	ord, ok := ordinals[parts[0]]
	if !ok {
		return 0, 0, newParseError(parts[0], "unknown ordinal in pattern %q", pattern)
	}
	wd, ok := longDays[parts[1]]
	if !ok {
		return 0, 0, newParseError(parts[1], "unknown weekday in pattern %q", pattern)
	}
	return ord, wd, nil
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, newParseError(s, "time must be HH:MM")
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, newParseError(s, "time must be HH:MM")
	}
	return h*60 + m, nil
}
