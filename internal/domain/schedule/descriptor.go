// internal/domain/schedule/descriptor.go
package schedule

import (
	"fmt"
	"time"
)

// Kind discriminates the recurrence variants a Descriptor can take.
type Kind string

const (
	KindWeekly               Kind = "WEEKLY"
	KindMonthly              Kind = "MONTHLY"
	KindBiweeklyByWeekday    Kind = "BIWEEKLY_WEEKDAY"
	KindBiweeklyWeeksOfMonth Kind = "BIWEEKLY_WEEKS_OF_MONTH"
	KindIrregular            Kind = "IRREGULAR"
	KindCompleted            Kind = "COMPLETED"
)

// Descriptor is the parsed, immutable form of a recurrence rule. It is built
// once by Parse and serialized as JSON only at the store boundary; no other
// layer inspects raw descriptor strings.
type Descriptor struct {
	Kind Kind `json:"kind"`
	// Weekday is set for WEEKLY, BIWEEKLY_WEEKDAY and BIWEEKLY_WEEKS_OF_MONTH.
	Weekday time.Weekday `json:"weekday,omitempty"`
	// DayOfMonth is set for MONTHLY (1..31).
	DayOfMonth int `json:"day_of_month,omitempty"`
	// Weeks holds the two distinct week-of-month ordinals (1..5) for
	// BIWEEKLY_WEEKS_OF_MONTH, in ascending order.
	Weeks [2]int `json:"weeks,omitempty"`
	// Label is a precomputed human-readable description, e.g. "Weekly on Monday".
	Label string `json:"label"`
}

// Fires reports whether this descriptor can ever produce a next occurrence.
// IRREGULAR and COMPLETED never fire.
func (d Descriptor) Fires() bool {
	switch d.Kind {
	case KindIrregular, KindCompleted:
		return false
	}
	return true
}

func (d Descriptor) String() string {
	if d.Label != "" {
		return d.Label
	}
	return string(d.Kind)
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func weeklyLabel(day time.Weekday) string {
	return fmt.Sprintf("Weekly on %s", day)
}

func monthlyLabel(day int) string {
	return fmt.Sprintf("Monthly on the %s", ordinal(day))
}

func biweeklyWeekdayLabel(day time.Weekday) string {
	return fmt.Sprintf("Every other %s", day)
}

func biweeklyWeeksLabel(day time.Weekday, weeks [2]int) string {
	return fmt.Sprintf("The %s and %s %s of each month", ordinal(weeks[0]), ordinal(weeks[1]), day)
}
