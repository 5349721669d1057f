package model

import (
	"errors"
	"testing"
	"time"
)

func day(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestRecurrenceWeeklyHabitScenario(t *testing.T) {
	rule := Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Weekly()}
	cases := map[string]bool{
		"2025-01-01": true,
		"2025-01-08": true,
		"2025-01-09": false,
		"2024-12-25": false,
	}
	for s, want := range cases {
		if got := rule.IsDue(day(t, s)); got != want {
			t.Fatalf("IsDue(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestRecurrenceBeforeAnchorNeverDue(t *testing.T) {
	anchor := day(t, "2025-06-15")
	freqs := []Frequency{
		Never(), Daily(), Weekly(), Biweekly(), Monthly(), Yearly(),
		Custom(CustomRule{Unit: UnitDay, Interval: 1}),
		Custom(CustomRule{Unit: UnitWeek, Interval: 1, Weekdays: []time.Weekday{time.Monday, time.Sunday}}),
	}
	for _, f := range freqs {
		rule := Recurrence{Anchor: anchor, Frequency: f}
		for i := 1; i <= 400; i++ {
			d := anchor.AddDays(-i)
			if rule.IsDue(d) {
				t.Fatalf("%s: due on %s before anchor %s", f, d, anchor)
			}
		}
	}
}

func TestRecurrenceNeverOnlyOnAnchor(t *testing.T) {
	anchor := day(t, "2025-03-10")
	rule := Recurrence{Anchor: anchor, Frequency: Never()}
	for i := -10; i <= 10; i++ {
		d := anchor.AddDays(i)
		if got := rule.IsDue(d); got != (i == 0) {
			t.Fatalf("IsDue(%s) = %v", d, got)
		}
	}
}

func TestRecurrenceDaily(t *testing.T) {
	rule := Recurrence{Anchor: day(t, "2025-02-27"), Frequency: Daily()}
	for i := 0; i < 10; i++ {
		d := day(t, "2025-02-27").AddDays(i)
		if !rule.IsDue(d) {
			t.Fatalf("daily not due on %s", d)
		}
	}
}

func TestRecurrenceWeeklyAndBiweeklyWeekdays(t *testing.T) {
	anchor := day(t, "2025-01-01") // Wednesday
	weekly := Recurrence{Anchor: anchor, Frequency: Weekly()}
	biweekly := Recurrence{Anchor: anchor, Frequency: Biweekly()}

	weeklyHits := 0
	for i := 0; i < 200; i++ {
		d := anchor.AddDays(i)
		if weekly.IsDue(d) {
			if d.Weekday() != anchor.Weekday() {
				t.Fatalf("weekly due on %s (%s)", d, d.Weekday())
			}
			wantBiweekly := weeklyHits%2 == 0
			if biweekly.IsDue(d) != wantBiweekly {
				t.Fatalf("biweekly on %s = %v, want %v", d, !wantBiweekly, wantBiweekly)
			}
			weeklyHits++
			continue
		}
		if biweekly.IsDue(d) {
			t.Fatalf("biweekly due on non-weekly date %s", d)
		}
	}
	if weeklyHits != 29 {
		t.Fatalf("expected 29 weekly hits in 200 days, got %d", weeklyHits)
	}
}

func TestRecurrenceMonthlyClampsToMonthEnd(t *testing.T) {
	rule := Recurrence{Anchor: day(t, "2025-01-31"), Frequency: Monthly()}
	due := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30", "2028-02-29"}
	notDue := []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-02-27", "2025-04-29", "2028-02-28"}
	for _, s := range due {
		if !rule.IsDue(day(t, s)) {
			t.Fatalf("monthly not due on %s", s)
		}
	}
	for _, s := range notDue {
		if rule.IsDue(day(t, s)) {
			t.Fatalf("monthly due on %s", s)
		}
	}

	leap := Recurrence{Anchor: day(t, "2024-01-31"), Frequency: Monthly()}
	if !leap.IsDue(day(t, "2024-02-29")) {
		t.Fatal("expected leap-year february clamp to 29th")
	}
	if leap.IsDue(day(t, "2024-02-28")) {
		t.Fatal("did not expect 28th in leap year")
	}
}

func TestRecurrenceYearlyLeapDayAnchor(t *testing.T) {
	rule := Recurrence{Anchor: day(t, "2024-02-29"), Frequency: Yearly()}
	cases := map[string]bool{
		"2024-02-29": true,
		"2025-02-28": true,
		"2025-03-01": false,
		"2026-02-28": true,
		"2028-02-28": false,
		"2028-02-29": true,
	}
	for s, want := range cases {
		if got := rule.IsDue(day(t, s)); got != want {
			t.Fatalf("yearly IsDue(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestRecurrenceEndRepeatCutoffInclusive(t *testing.T) {
	anchor := day(t, "2025-01-01")
	cutoff := day(t, "2025-12-31")
	freqs := []Frequency{
		Daily(),
		Custom(CustomRule{Unit: UnitDay, Interval: 1}),
		Custom(CustomRule{Unit: UnitWeek, Interval: 1, Weekdays: []time.Weekday{time.Wednesday, time.Thursday}}),
		Weekly(),
		Biweekly(),
	}
	for _, f := range freqs {
		rule := Recurrence{Anchor: anchor, Frequency: f, EndRepeat: EndOn(cutoff)}
		if !rule.IsDue(cutoff) {
			t.Fatalf("%s: expected due on cutoff", f)
		}
		if rule.IsDue(cutoff.AddDays(1)) {
			t.Fatalf("%s: expected not due after cutoff", f)
		}
	}

	never := Recurrence{Anchor: anchor, Frequency: Never(), EndRepeat: EndOn(anchor.AddDays(-1))}
	if never.IsDue(anchor) {
		t.Fatal("cutoff before anchor must hide the item")
	}
}

func TestRecurrenceCustomWeekdays(t *testing.T) {
	rule := Recurrence{
		Anchor: day(t, "2025-01-01"),
		Frequency: Custom(CustomRule{
			Unit:     UnitWeek,
			Interval: 1,
			Weekdays: []time.Weekday{time.Tuesday, time.Thursday},
		}),
	}
	if !rule.IsDue(day(t, "2025-01-07")) {
		t.Fatal("expected tuesday due")
	}
	if rule.IsDue(day(t, "2025-01-08")) {
		t.Fatal("expected wednesday not due")
	}
	if !rule.IsDue(day(t, "2025-01-02")) {
		t.Fatal("expected first thursday after anchor due")
	}
	if rule.IsDue(day(t, "2024-12-31")) {
		t.Fatal("expected tuesday before anchor not due")
	}
}

func TestRecurrenceCustomIntervals(t *testing.T) {
	cases := []struct {
		name   string
		rule   CustomRule
		anchor string
		due    []string
		notDue []string
	}{
		{
			name:   "every 3 days",
			rule:   CustomRule{Unit: UnitDay, Interval: 3},
			anchor: "2025-02-26",
			due:    []string{"2025-02-26", "2025-03-01", "2025-03-04"},
			notDue: []string{"2025-02-27", "2025-02-28", "2025-03-02"},
		},
		{
			name:   "every 3 weeks",
			rule:   CustomRule{Unit: UnitWeek, Interval: 3},
			anchor: "2025-01-06",
			due:    []string{"2025-01-06", "2025-01-27", "2025-02-17"},
			notDue: []string{"2025-01-13", "2025-01-20", "2025-01-28"},
		},
		{
			name:   "every 2 months clamped",
			rule:   CustomRule{Unit: UnitMonth, Interval: 2},
			anchor: "2024-12-31",
			due:    []string{"2024-12-31", "2025-02-28", "2025-04-30", "2025-06-30"},
			notDue: []string{"2025-01-31", "2025-03-31", "2025-03-01"},
		},
		{
			name:   "every 2 years",
			rule:   CustomRule{Unit: UnitYear, Interval: 2},
			anchor: "2024-02-29",
			due:    []string{"2024-02-29", "2026-02-28", "2028-02-29"},
			notDue: []string{"2025-02-28", "2026-03-01", "2027-02-28"},
		},
	}
	for _, tc := range cases {
		rule := Recurrence{Anchor: day(t, tc.anchor), Frequency: Custom(tc.rule)}
		for _, s := range tc.due {
			if !rule.IsDue(day(t, s)) {
				t.Fatalf("%s: expected due on %s", tc.name, s)
			}
		}
		for _, s := range tc.notDue {
			if rule.IsDue(day(t, s)) {
				t.Fatalf("%s: expected not due on %s", tc.name, s)
			}
		}
	}
}

func TestRecurrenceMalformedIsNeverDue(t *testing.T) {
	anchor := day(t, "2025-01-01")
	bad := []Frequency{
		{},
		Custom(CustomRule{Unit: UnitDay, Interval: 0}),
		Custom(CustomRule{Unit: "fortnight", Interval: 1}),
		Custom(CustomRule{Unit: UnitMonth, Interval: 1, Weekdays: []time.Weekday{time.Monday}}),
	}
	for i, f := range bad {
		rule := Recurrence{Anchor: anchor, Frequency: f}
		for j := 0; j < 40; j++ {
			if rule.IsDue(anchor.AddDays(j)) {
				t.Fatalf("case %d: malformed frequency due on %s", i, anchor.AddDays(j))
			}
		}
	}
}

func TestCustomRuleValidate(t *testing.T) {
	if err := (CustomRule{Unit: UnitWeek, Interval: 0}).Validate(); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if err := (CustomRule{Unit: UnitDay, Interval: 1, Weekdays: []time.Weekday{time.Friday}}).Validate(); !errors.Is(err, ErrWeekdaysRequireWeekUnit) {
		t.Fatalf("expected ErrWeekdaysRequireWeekUnit, got %v", err)
	}
	if err := (CustomRule{Unit: UnitWeek, Interval: 1, Weekdays: []time.Weekday{time.Friday, time.Friday}}).Validate(); err == nil {
		t.Fatal("expected duplicate weekday error")
	}
	if err := (CustomRule{Unit: "hour", Interval: 1}).Validate(); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("expected ErrInvalidUnit, got %v", err)
	}
}

func TestFrequencyCustomRuleIsCopied(t *testing.T) {
	days := []time.Weekday{time.Monday}
	f := Custom(CustomRule{Unit: UnitWeek, Interval: 1, Weekdays: days})
	days[0] = time.Sunday
	rule, ok := f.CustomRule()
	if !ok || rule.Weekdays[0] != time.Monday {
		t.Fatalf("custom rule shares caller slice: %+v", rule)
	}
	if _, ok := Weekly().CustomRule(); ok {
		t.Fatal("weekly must not carry a custom rule")
	}
	if _, err := FrequencyOf(KindCustom); err == nil {
		t.Fatal("expected custom without rule to be rejected")
	}
}

func TestRecurrenceUpcoming(t *testing.T) {
	rule := Recurrence{
		Anchor:    day(t, "2025-01-31"),
		Frequency: Monthly(),
		EndRepeat: EndOn(day(t, "2025-04-30")),
	}
	got := rule.Upcoming(day(t, "2025-01-01"), 10)
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}
	if len(got) != len(want) {
		t.Fatalf("upcoming = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Fatalf("upcoming[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	once := Recurrence{Anchor: day(t, "2025-05-05"), Frequency: Never()}
	if got := once.Upcoming(day(t, "2025-05-06"), 3); len(got) != 0 {
		t.Fatalf("expected nothing after a one-off, got %v", got)
	}
	if got := once.Upcoming(day(t, "2025-01-01"), 3); len(got) != 1 {
		t.Fatalf("expected the one-off date, got %v", got)
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays("thu, Tue")
	if err != nil {
		t.Fatalf("parse weekdays: %v", err)
	}
	if len(got) != 2 || got[0] != time.Tuesday || got[1] != time.Thursday {
		t.Fatalf("unexpected weekdays: %v", got)
	}
	if _, err := ParseWeekdays("funday"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}
}

func TestRecurrenceCenturiesApart(t *testing.T) {
	anchor := day(t, "1700-01-01")
	if got := day(t, "2083-04-23").DaysSince(anchor); got != 20000*7 {
		t.Fatalf("DaysSince = %d, want %d", got, 20000*7)
	}
	if got := day(t, "9999-12-31").DaysSince(day(t, "0001-01-01")); got != 3652058 {
		t.Fatalf("DaysSince across the calendar = %d, want 3652058", got)
	}
	if got := anchor.DaysSince(day(t, "2083-04-23")); got != -20000*7 {
		t.Fatalf("negative DaysSince = %d", got)
	}

	weekly := Recurrence{Anchor: anchor, Frequency: Weekly()}
	biweekly := Recurrence{Anchor: anchor, Frequency: Biweekly()}
	cases := []struct {
		date     string
		weekly   bool
		biweekly bool
	}{
		{"2083-04-23", true, true},
		{"2083-04-24", false, false},
		{"2083-04-30", true, false},
	}
	for _, tc := range cases {
		d := day(t, tc.date)
		if got := weekly.IsDue(d); got != tc.weekly {
			t.Fatalf("weekly IsDue(%s) = %v, want %v", tc.date, got, tc.weekly)
		}
		if got := biweekly.IsDue(d); got != tc.biweekly {
			t.Fatalf("biweekly IsDue(%s) = %v, want %v", tc.date, got, tc.biweekly)
		}
	}

	daily := Recurrence{Anchor: day(t, "0001-01-01"), Frequency: Custom(CustomRule{Unit: UnitDay, Interval: 2})}
	if !daily.IsDue(day(t, "9999-12-31")) {
		t.Fatal("every second day from 0001-01-01 should include 9999-12-31")
	}
}
