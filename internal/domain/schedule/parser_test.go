package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParse_ValidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Descriptor
	}{
		{
			name: "weekly monday",
			raw:  "weekly-monday",
			want: Descriptor{Kind: KindWeekly, Weekday: time.Monday, Label: "Weekly on Monday"},
		},
		{
			name: "weekly uppercase",
			raw:  "WEEKLY-FRIDAY",
			want: Descriptor{Kind: KindWeekly, Weekday: time.Friday, Label: "Weekly on Friday"},
		},
		{
			name: "monthly mid",
			raw:  "monthly-15",
			want: Descriptor{Kind: KindMonthly, DayOfMonth: 15, Label: "Monthly on the 15th"},
		},
		{
			name: "monthly first",
			raw:  "monthly-1",
			want: Descriptor{Kind: KindMonthly, DayOfMonth: 1, Label: "Monthly on the 1st"},
		},
		{
			name: "monthly last possible",
			raw:  "monthly-31",
			want: Descriptor{Kind: KindMonthly, DayOfMonth: 31, Label: "Monthly on the 31st"},
		},
		{
			name: "biweekly by weekday",
			raw:  "biweekly-tuesday",
			want: Descriptor{Kind: KindBiweeklyByWeekday, Weekday: time.Tuesday, Label: "Every other Tuesday"},
		},
		{
			name: "irregular",
			raw:  "irregular",
			want: Descriptor{Kind: KindIrregular, Label: "Irregular"},
		},
		{
			name: "completed with whitespace",
			raw:  "  completed ",
			want: Descriptor{Kind: KindCompleted, Label: "Completed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParse_BiweeklyWeeksOfMonth(t *testing.T) {
	got, err := ParseWithWeekday("biweekly-1,3", time.Monday)
	if err != nil {
		t.Fatalf("ParseWithWeekday returned error: %v", err)
	}
	want := Descriptor{
		Kind:    KindBiweeklyWeeksOfMonth,
		Weekday: time.Monday,
		Weeks:   [2]int{1, 3},
		Label:   "The 1st and 3rd Monday of each month",
	}
	if got != want {
		t.Errorf("ParseWithWeekday = %+v, want %+v", got, want)
	}
}

func TestParse_BiweeklyWeeksOrderNormalized(t *testing.T) {
	got, err := ParseWithWeekday("biweekly-4,2", time.Friday)
	if err != nil {
		t.Fatalf("ParseWithWeekday returned error: %v", err)
	}
	if got.Weeks != [2]int{2, 4} {
		t.Errorf("weeks = %v, want ascending [2 4]", got.Weeks)
	}
}

func TestParse_BiweeklyWeeksRequiresWeekday(t *testing.T) {
	_, err := Parse("biweekly-1,3")
	if !errors.Is(err, ErrWeekdayRequired) {
		t.Errorf("Parse without weekday: err = %v, want ErrWeekdayRequired", err)
	}
}

func TestParse_InvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"gibberish", "every once in a while"},
		{"unknown weekday", "weekly-moonday"},
		{"monthly zero", "monthly-0"},
		{"monthly out of range", "monthly-32"},
		{"monthly non-numeric", "monthly-first"},
		{"biweekly week zero", "biweekly-0,3"},
		{"biweekly week six", "biweekly-1,6"},
		{"biweekly single week", "biweekly-3"},
		{"biweekly three weeks", "biweekly-1,2,3"},
		{"biweekly duplicate weeks", "biweekly-2,2"},
		{"bare weekly", "weekly"},
		{"bare monthly", "monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWithWeekday(tt.raw, time.Monday); err == nil {
				t.Errorf("ParseWithWeekday(%q) should return an error", tt.raw)
			}
		})
	}
}

func TestParse_FiresFlag(t *testing.T) {
	for _, raw := range []string{"irregular", "completed"} {
		d, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", raw, err)
		}
		if d.Fires() {
			t.Errorf("%q should never fire", raw)
		}
	}

	d, err := Parse("weekly-sunday")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !d.Fires() {
		t.Error("weekly schedule should fire")
	}
}
