package schedule

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, raw string) Descriptor {
	t.Helper()
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", raw, err)
	}
	return d
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04:05", value, time.UTC)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", value, err)
	}
	return parsed
}

func TestCalculator_Weekly(t *testing.T) {
	calc := NewCalculator(time.UTC)

	tests := []struct {
		name string
		raw  string
		ref  string
		want string
	}{
		// 2024-01-03 is a Wednesday.
		{"midweek to next monday", "weekly-monday", "2024-01-03T10:00:00", "2024-01-08T09:00:00"},
		{"same weekday before 09:00 fires same day", "weekly-wednesday", "2024-01-03T08:00:00", "2024-01-03T09:00:00"},
		{"same weekday at 09:00 rolls a week", "weekly-wednesday", "2024-01-03T09:00:00", "2024-01-10T09:00:00"},
		{"same weekday after 09:00 rolls a week", "weekly-wednesday", "2024-01-03T15:30:00", "2024-01-10T09:00:00"},
		{"crosses month boundary", "weekly-thursday", "2024-01-31T12:00:00", "2024-02-01T09:00:00"},
		{"crosses year boundary", "weekly-monday", "2023-12-28T12:00:00", "2024-01-01T09:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.Next(mustParse(t, tt.raw), ts(t, tt.ref))
			if !ok {
				t.Fatal("Next returned no occurrence for a weekly schedule")
			}
			if want := ts(t, tt.want); !got.Equal(want) {
				t.Errorf("Next = %s, want %s", got, want)
			}
		})
	}
}

func TestCalculator_WeeklyAlwaysStrictlyAfterReference(t *testing.T) {
	calc := NewCalculator(time.UTC)
	d := mustParse(t, "weekly-saturday")

	ref := ts(t, "2024-01-01T00:00:00")
	for i := 0; i < 60; i++ {
		got, ok := calc.Next(d, ref)
		if !ok {
			t.Fatal("Next returned no occurrence")
		}
		if !got.After(ref) {
			t.Fatalf("Next(%s) = %s, not strictly after reference", ref, got)
		}
		if got.Weekday() != time.Saturday {
			t.Fatalf("Next(%s) = %s, wrong weekday %s", ref, got, got.Weekday())
		}
		if got.Hour() != 9 || got.Minute() != 0 {
			t.Fatalf("Next(%s) = %s, not at 09:00", ref, got)
		}
		ref = ref.Add(13*time.Hour + 37*time.Minute)
	}
}

func TestCalculator_Monthly(t *testing.T) {
	calc := NewCalculator(time.UTC)

	tests := []struct {
		name string
		raw  string
		ref  string
		want string
	}{
		{"past this month's day", "monthly-15", "2024-01-20T12:00:00", "2024-02-15T09:00:00"},
		{"before this month's day", "monthly-15", "2024-01-10T12:00:00", "2024-01-15T09:00:00"},
		{"on the day before 09:00", "monthly-15", "2024-01-15T08:00:00", "2024-01-15T09:00:00"},
		{"on the day at 09:00 rolls a month", "monthly-15", "2024-01-15T09:00:00", "2024-02-15T09:00:00"},
		{"december rolls to january", "monthly-10", "2024-12-20T12:00:00", "2025-01-10T09:00:00"},
		// Short months clamp to their last day.
		{"day 31 clamps to leap february", "monthly-31", "2024-01-31T10:00:00", "2024-02-29T09:00:00"},
		{"day 31 clamps to plain february", "monthly-31", "2023-01-31T10:00:00", "2023-02-28T09:00:00"},
		{"day 31 clamps to april", "monthly-31", "2024-03-31T10:00:00", "2024-04-30T09:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.Next(mustParse(t, tt.raw), ts(t, tt.ref))
			if !ok {
				t.Fatal("Next returned no occurrence for a monthly schedule")
			}
			if want := ts(t, tt.want); !got.Equal(want) {
				t.Errorf("Next = %s, want %s", got, want)
			}
		})
	}
}

func TestCalculator_BiweeklyByWeekday(t *testing.T) {
	calc := NewCalculator(time.UTC)
	d := mustParse(t, "biweekly-monday")

	// A clean reference on the right weekday: exactly 14 days later.
	got, ok := calc.Next(d, ts(t, "2024-01-08T09:00:00"))
	if !ok {
		t.Fatal("Next returned no occurrence")
	}
	if want := ts(t, "2024-01-22T09:00:00"); !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}

	// Drifted stored state (reference on a Wednesday): 14 days out, then
	// snapped forward to the next Monday.
	got, ok = calc.Next(d, ts(t, "2024-01-03T09:00:00"))
	if !ok {
		t.Fatal("Next returned no occurrence")
	}
	if want := ts(t, "2024-01-22T09:00:00"); !got.Equal(want) {
		t.Errorf("Next from drifted reference = %s, want %s", got, want)
	}
	if got.Weekday() != time.Monday {
		t.Errorf("snap produced weekday %s, want Monday", got.Weekday())
	}
}

func TestCalculator_BiweeklyWeeksOfMonth(t *testing.T) {
	calc := NewCalculator(time.UTC)

	mondays13, err := ParseWithWeekday("biweekly-1,3", time.Monday)
	if err != nil {
		t.Fatalf("ParseWithWeekday returned error: %v", err)
	}

	tests := []struct {
		name string
		d    Descriptor
		ref  string
		want string
	}{
		// January 2024 Mondays: 1, 8, 15, 22, 29.
		{"before both ordinals", mondays13, "2023-12-30T12:00:00", "2024-01-01T09:00:00"},
		{"between ordinals", mondays13, "2024-01-02T12:00:00", "2024-01-15T09:00:00"},
		{"after both rolls to next month", mondays13, "2024-01-20T12:00:00", "2024-02-05T09:00:00"},
		{"on first ordinal at 09:00 moves to third", mondays13, "2024-01-01T09:00:00", "2024-01-15T09:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := calc.Next(tt.d, ts(t, tt.ref))
			if !ok {
				t.Fatal("Next returned no occurrence")
			}
			if want := ts(t, tt.want); !got.Equal(want) {
				t.Errorf("Next = %s, want %s", got, want)
			}
		})
	}
}

func TestCalculator_BiweeklyWeeksMissingOrdinalDropped(t *testing.T) {
	calc := NewCalculator(time.UTC)

	fridays15, err := ParseWithWeekday("biweekly-1,5", time.Friday)
	if err != nil {
		t.Fatalf("ParseWithWeekday returned error: %v", err)
	}

	// January 2024 has only four Fridays, so after the 1st Friday (Jan 5)
	// the 5th-Friday candidate is dropped and the schedule rolls to the 1st
	// Friday of February.
	got, ok := calc.Next(fridays15, ts(t, "2024-01-06T12:00:00"))
	if !ok {
		t.Fatal("Next returned no occurrence")
	}
	if want := ts(t, "2024-02-02T09:00:00"); !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}

	// March 2024 has five Fridays; the 5th (Mar 29) is a real candidate.
	got, ok = calc.Next(fridays15, ts(t, "2024-03-02T12:00:00"))
	if !ok {
		t.Fatal("Next returned no occurrence")
	}
	if want := ts(t, "2024-03-29T09:00:00"); !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}

func TestCalculator_NonFiringKinds(t *testing.T) {
	calc := NewCalculator(time.UTC)
	ref := ts(t, "2024-01-03T10:00:00")

	for _, raw := range []string{"irregular", "completed"} {
		if _, ok := calc.Next(mustParse(t, raw), ref); ok {
			t.Errorf("Next(%q) should report no occurrence", raw)
		}
	}
}

func TestCalculator_Deterministic(t *testing.T) {
	calc := NewCalculator(time.UTC)
	d := mustParse(t, "weekly-monday")
	ref := ts(t, "2024-01-03T10:00:00")

	first, _ := calc.Next(d, ref)
	for i := 0; i < 5; i++ {
		again, _ := calc.Next(d, ref)
		if !again.Equal(first) {
			t.Fatalf("Next is not deterministic: %s != %s", again, first)
		}
	}
}

func TestCalculator_RespectsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}
	calc := NewCalculator(loc)

	// 08:30 UTC on a Wednesday is 09:30 in Berlin, already past the notify
	// hour, so the occurrence moves to the following Wednesday.
	ref := time.Date(2024, time.January, 3, 8, 30, 0, 0, time.UTC)
	got, ok := calc.Next(mustParse(t, "weekly-wednesday"), ref)
	if !ok {
		t.Fatal("Next returned no occurrence")
	}
	want := time.Date(2024, time.January, 10, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Next = %s, want %s", got, want)
	}
}
