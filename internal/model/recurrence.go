package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type FrequencyKind string

const (
	KindNever    FrequencyKind = "never"
	KindDaily    FrequencyKind = "daily"
	KindWeekly   FrequencyKind = "weekly"
	KindBiweekly FrequencyKind = "biweekly"
	KindMonthly  FrequencyKind = "monthly"
	KindYearly   FrequencyKind = "yearly"
	KindCustom   FrequencyKind = "custom"
)

func (k FrequencyKind) IsValid() bool {
	switch k {
	case KindNever, KindDaily, KindWeekly, KindBiweekly, KindMonthly, KindYearly, KindCustom:
		return true
	default:
		return false
	}
}

func ParseFrequencyKind(s string) (FrequencyKind, error) {
	k := FrequencyKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return k, nil
}

type IntervalUnit string

const (
	UnitDay   IntervalUnit = "day"
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

func (u IntervalUnit) IsValid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	default:
		return false
	}
}

func ParseIntervalUnit(s string) (IntervalUnit, error) {
	u := IntervalUnit(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

var (
	ErrInvalidFrequency        = errors.New("model: invalid frequency")
	ErrInvalidUnit             = errors.New("model: invalid interval unit")
	ErrInvalidInterval         = errors.New("model: invalid recurrence interval")
	ErrWeekdaysRequireWeekUnit = errors.New("model: weekday selection requires the week unit")
	ErrAnchorRequired          = errors.New("model: recurrence anchor is required")
)

// CustomRule is the payload of a custom frequency. With Weekdays set it
// matches every listed weekday; otherwise it matches every Interval-th Unit
// counted from the anchor.
type CustomRule struct {
	Unit     IntervalUnit
	Interval int
	Weekdays []time.Weekday
}

func (c CustomRule) Validate() error {
	if !c.Unit.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, c.Unit)
	}
	if c.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, c.Interval)
	}
	if len(c.Weekdays) == 0 {
		return nil
	}
	if c.Unit != UnitWeek {
		return ErrWeekdaysRequireWeekUnit
	}
	s := make([]int, 0, len(c.Weekdays))
	for _, d := range c.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("model: invalid weekday %d", d)
		}
		s = append(s, int(d))
	}
	sort.Ints(s)
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			return errors.New("model: duplicate weekday in recurrence")
		}
	}
	return nil
}

func (c CustomRule) clone() CustomRule {
	if c.Weekdays != nil {
		c.Weekdays = append([]time.Weekday(nil), c.Weekdays...)
	}
	return c
}

// Frequency is a closed variant. Only the custom kind carries a payload, so
// a custom frequency without its rule cannot be built.
type Frequency struct {
	kind   FrequencyKind
	custom CustomRule
}

func Never() Frequency    { return Frequency{kind: KindNever} }
func Daily() Frequency    { return Frequency{kind: KindDaily} }
func Weekly() Frequency   { return Frequency{kind: KindWeekly} }
func Biweekly() Frequency { return Frequency{kind: KindBiweekly} }
func Monthly() Frequency  { return Frequency{kind: KindMonthly} }
func Yearly() Frequency   { return Frequency{kind: KindYearly} }

func Custom(rule CustomRule) Frequency {
	return Frequency{kind: KindCustom, custom: rule.clone()}
}

// FrequencyOf builds a payload-free frequency from its kind. Custom needs a
// rule and is rejected here.
func FrequencyOf(kind FrequencyKind) (Frequency, error) {
	switch kind {
	case KindNever, KindDaily, KindWeekly, KindBiweekly, KindMonthly, KindYearly:
		return Frequency{kind: kind}, nil
	case KindCustom:
		return Frequency{}, errors.New("model: custom frequency requires a rule")
	default:
		return Frequency{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, kind)
	}
}

func (f Frequency) Kind() FrequencyKind { return f.kind }

// CustomRule returns the payload of a custom frequency.
func (f Frequency) CustomRule() (CustomRule, bool) {
	if f.kind != KindCustom {
		return CustomRule{}, false
	}
	return f.custom.clone(), true
}

func (f Frequency) Validate() error {
	if !f.kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, f.kind)
	}
	if f.kind == KindCustom {
		return f.custom.Validate()
	}
	return nil
}

func (f Frequency) Equal(other Frequency) bool {
	if f.kind != other.kind {
		return false
	}
	if f.kind != KindCustom {
		return true
	}
	a, b := f.custom, other.custom
	if a.Unit != b.Unit || a.Interval != b.Interval || len(a.Weekdays) != len(b.Weekdays) {
		return false
	}
	for i := range a.Weekdays {
		if a.Weekdays[i] != b.Weekdays[i] {
			return false
		}
	}
	return true
}

func (f Frequency) String() string {
	if f.kind != KindCustom {
		return string(f.kind)
	}
	c := f.custom
	if len(c.Weekdays) > 0 {
		names := make([]string, 0, len(c.Weekdays))
		for _, d := range c.Weekdays {
			names = append(names, strings.ToLower(d.String()[:3]))
		}
		return "custom on " + strings.Join(names, ",")
	}
	if c.Interval == 1 {
		return fmt.Sprintf("custom every %s", c.Unit)
	}
	return fmt.Sprintf("custom every %d %ss", c.Interval, c.Unit)
}

// EndRepeat is either open-ended or an inclusive cutoff date.
type EndRepeat struct {
	set    bool
	cutoff Date
}

func EndNever() EndRepeat { return EndRepeat{} }

func EndOn(cutoff Date) EndRepeat { return EndRepeat{set: true, cutoff: cutoff} }

func (e EndRepeat) Cutoff() (Date, bool) { return e.cutoff, e.set }

// Allows reports whether d is on or before the cutoff.
func (e EndRepeat) Allows(d Date) bool {
	return !e.set || !d.After(e.cutoff)
}

func (e EndRepeat) String() string {
	if !e.set {
		return "never"
	}
	return e.cutoff.String()
}

// Recurrence decides on which calendar days something is due.
type Recurrence struct {
	Anchor    Date
	Frequency Frequency
	EndRepeat EndRepeat
}

func (r Recurrence) Validate() error {
	if r.Anchor.IsZero() {
		return ErrAnchorRequired
	}
	return r.Frequency.Validate()
}

// Clone returns a deep copy; the custom weekday slice is not shared.
func (r Recurrence) Clone() Recurrence {
	r.Frequency.custom = r.Frequency.custom.clone()
	return r
}

func (r Recurrence) Equal(other Recurrence) bool {
	return r.Anchor.Equal(other.Anchor) &&
		r.Frequency.Equal(other.Frequency) &&
		r.EndRepeat == other.EndRepeat
}

// IsDue reports whether the recurrence falls on d. Malformed configurations
// are never due.
func (r Recurrence) IsDue(d Date) bool {
	return r.matches(d) && r.EndRepeat.Allows(d)
}

func (r Recurrence) matches(d Date) bool {
	anchor := r.Anchor
	if r.Frequency.kind == KindNever {
		return d.Equal(anchor)
	}
	if d.Before(anchor) {
		return false
	}
	switch r.Frequency.kind {
	case KindDaily:
		return everyN(anchor, d, UnitDay, 1)
	case KindWeekly:
		return everyN(anchor, d, UnitWeek, 1)
	case KindBiweekly:
		return everyN(anchor, d, UnitWeek, 2)
	case KindMonthly:
		return everyN(anchor, d, UnitMonth, 1)
	case KindYearly:
		return everyN(anchor, d, UnitYear, 1)
	case KindCustom:
		c := r.Frequency.custom
		if c.Validate() != nil {
			return false
		}
		if len(c.Weekdays) > 0 {
			wd := d.Weekday()
			for _, allowed := range c.Weekdays {
				if allowed == wd {
					return true
				}
			}
			return false
		}
		return everyN(anchor, d, c.Unit, c.Interval)
	default:
		return false
	}
}

// everyN assumes d is not before anchor.
func everyN(anchor, d Date, unit IntervalUnit, n int) bool {
	switch unit {
	case UnitDay:
		return d.DaysSince(anchor)%n == 0
	case UnitWeek:
		days := d.DaysSince(anchor)
		return days%7 == 0 && (days/7)%n == 0
	case UnitMonth:
		months := (d.Year-anchor.Year)*12 + int(d.Month) - int(anchor.Month)
		return months%n == 0 && d.Day == clampDay(anchor.Day, d.Year, d.Month)
	case UnitYear:
		years := d.Year - anchor.Year
		return years%n == 0 && d.Month == anchor.Month && d.Day == clampDay(anchor.Day, d.Year, anchor.Month)
	default:
		return false
	}
}

const upcomingHorizonDays = 3660

// Upcoming lists up to count due dates on or after from, looking at most ten
// years ahead.
func (r Recurrence) Upcoming(from Date, count int) []Date {
	if count <= 0 {
		return []Date{}
	}
	if r.Frequency.kind == KindNever {
		if !from.After(r.Anchor) && r.IsDue(r.Anchor) {
			return []Date{r.Anchor}
		}
		return []Date{}
	}
	out := make([]Date, 0, count)
	day := from
	if day.Before(r.Anchor) {
		day = r.Anchor
	}
	for i := 0; i < upcomingHorizonDays && len(out) < count; i++ {
		if cutoff, ok := r.EndRepeat.Cutoff(); ok && day.After(cutoff) {
			break
		}
		if r.IsDue(day) {
			out = append(out, day)
		}
		day = day.AddDays(1)
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays reads a comma separated list such as "mon,wed,fri".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, 7)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		d, ok := weekdayNames[part]
		if !ok {
			return nil, fmt.Errorf("model: unknown weekday %q", part)
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
