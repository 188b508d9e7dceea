// internal/domain/schedule/parser.go
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Errors returned by Parse. Callers must not fall back to a firing schedule
// when parsing fails; an entity with an unrecognized descriptor simply gets
// no notification record.
var (
	ErrUnrecognizedDescriptor = errors.New("unrecognized schedule descriptor")
	ErrWeekdayRequired        = errors.New("schedule descriptor requires a weekday supplied by the caller")
)

// NoWeekday is the sentinel passed to ParseWithWeekday when the caller has no
// weekday to supply.
const NoWeekday = time.Weekday(-1)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse converts a raw recurrence descriptor into a Descriptor. Recognized
// forms (case-insensitive):
//
//	weekly-<weekday>      e.g. "weekly-monday"
//	monthly-<1..31>       e.g. "monthly-15"
//	biweekly-<weekday>    e.g. "biweekly-friday" (every 14 days)
//	biweekly-<w1>,<w2>    e.g. "biweekly-1,3" (weeks of month; weekday must
//	                      come from the caller, see ParseWithWeekday)
//	irregular
//	completed
//
// Parse never panics on malformed input; it returns an error the caller
// decides how to surface.
func Parse(raw string) (Descriptor, error) {
	return ParseWithWeekday(raw, NoWeekday)
}

// ParseWithWeekday is Parse with an out-of-band weekday for descriptor forms
// that do not encode one themselves (the week-of-month biweekly form).
func ParseWithWeekday(raw string, weekday time.Weekday) (Descriptor, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	switch s {
	case "irregular":
		return Descriptor{Kind: KindIrregular, Label: "Irregular"}, nil
	case "completed":
		return Descriptor{Kind: KindCompleted, Label: "Completed"}, nil
	}

	switch {
	case strings.HasPrefix(s, "weekly-"):
		day, ok := weekdayNames[strings.TrimPrefix(s, "weekly-")]
		if !ok {
			return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedDescriptor, raw)
		}
		return Descriptor{Kind: KindWeekly, Weekday: day, Label: weeklyLabel(day)}, nil

	case strings.HasPrefix(s, "monthly-"):
		day, err := strconv.Atoi(strings.TrimPrefix(s, "monthly-"))
		if err != nil || day < 1 || day > 31 {
			return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedDescriptor, raw)
		}
		return Descriptor{Kind: KindMonthly, DayOfMonth: day, Label: monthlyLabel(day)}, nil

	case strings.HasPrefix(s, "biweekly-"):
		return parseBiweekly(raw, strings.TrimPrefix(s, "biweekly-"), weekday)
	}

	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedDescriptor, raw)
}

// parseBiweekly disambiguates the two biweekly forms: a weekday name means a
// rolling 14-day schedule, a "w1,w2" pair means week-of-month ordinals.
func parseBiweekly(raw, rest string, weekday time.Weekday) (Descriptor, error) {
	if day, ok := weekdayNames[rest]; ok {
		return Descriptor{Kind: KindBiweeklyByWeekday, Weekday: day, Label: biweeklyWeekdayLabel(day)}, nil
	}

	parts := strings.Split(rest, ",")
	if len(parts) != 2 {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedDescriptor, raw)
	}
	var weeks [2]int
	for i, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || w < 1 || w > 5 {
			return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedDescriptor, raw)
		}
		weeks[i] = w
	}
	if weeks[0] == weeks[1] {
		return Descriptor{}, fmt.Errorf("%w: %q (weeks must be distinct)", ErrUnrecognizedDescriptor, raw)
	}
	sort.Ints(weeks[:])

	// The raw form carries no weekday of its own; the caller must supply one.
	if weekday < time.Sunday || weekday > time.Saturday {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrWeekdayRequired, raw)
	}

	return Descriptor{
		Kind:    KindBiweeklyWeeksOfMonth,
		Weekday: weekday,
		Weeks:   weeks,
		Label:   biweeklyWeeksLabel(weekday, weeks),
	}, nil
}
