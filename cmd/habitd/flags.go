package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/spf13/cobra"
)

// recurrenceFlags are shared by every command that creates or edits a
// recurrence.
type recurrenceFlags struct {
	freq  string
	every int
	unit  string
	on    string
	start string
	until string
}

func (f *recurrenceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.freq, "freq", "daily", "frequency (never, daily, weekly, biweekly, monthly, yearly, custom)")
	cmd.Flags().IntVar(&f.every, "every", 0, "custom interval, used with --unit")
	cmd.Flags().StringVar(&f.unit, "unit", "", "custom interval unit (day, week, month, year)")
	cmd.Flags().StringVar(&f.on, "on", "", "custom weekdays, e.g. mon,thu")
	cmd.Flags().StringVar(&f.start, "start", "", "anchor date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.until, "until", "never", "last due date YYYY-MM-DD or never")
}

func (f *recurrenceFlags) frequencyChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"freq", "every", "unit", "on"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// anyChanged reports whether the user set any recurrence flag.
func (f *recurrenceFlags) anyChanged(cmd *cobra.Command) bool {
	return f.frequencyChanged(cmd) || cmd.Flags().Changed("start") || cmd.Flags().Changed("until")
}

func (f *recurrenceFlags) frequency() (model.Frequency, error) {
	custom := f.on != "" || f.every != 0 || f.unit != ""
	kind, err := model.ParseFrequencyKind(f.freq)
	if err != nil {
		return model.Frequency{}, err
	}
	if kind != model.KindCustom && !custom {
		return model.FrequencyOf(kind)
	}
	if kind != model.KindCustom && kind != model.KindDaily {
		return model.Frequency{}, fmt.Errorf("--every, --unit and --on need --freq custom, got %s", kind)
	}

	rule := model.CustomRule{Unit: model.UnitDay, Interval: 1}
	switch {
	case f.on != "":
		if f.every > 1 || (f.unit != "" && !strings.EqualFold(f.unit, string(model.UnitWeek))) {
			return model.Frequency{}, errors.New("--on cannot be combined with --every or a non-week --unit")
		}
		days, err := model.ParseWeekdays(f.on)
		if err != nil {
			return model.Frequency{}, err
		}
		rule.Unit = model.UnitWeek
		rule.Weekdays = days
	case f.every != 0 || f.unit != "":
		if f.every != 0 {
			rule.Interval = f.every
		}
		if f.unit != "" {
			unit, err := model.ParseIntervalUnit(f.unit)
			if err != nil {
				return model.Frequency{}, err
			}
			rule.Unit = unit
		}
	default:
		return model.Frequency{}, errors.New("--freq custom needs --every/--unit or --on")
	}
	if err := rule.Validate(); err != nil {
		return model.Frequency{}, err
	}
	return model.Custom(rule), nil
}

func (f *recurrenceFlags) endRepeat() (model.EndRepeat, error) {
	if f.until == "" || strings.EqualFold(f.until, "never") {
		return model.EndNever(), nil
	}
	d, err := model.ParseDate(f.until)
	if err != nil {
		return model.EndRepeat{}, fmt.Errorf("invalid --until: %w", err)
	}
	return model.EndOn(d), nil
}

// build returns a new recurrence anchored on --start or today.
func (f *recurrenceFlags) build(today model.Date) (model.Recurrence, error) {
	anchor := today
	if f.start != "" {
		d, err := model.ParseDate(f.start)
		if err != nil {
			return model.Recurrence{}, fmt.Errorf("invalid --start: %w", err)
		}
		anchor = d
	}
	freq, err := f.frequency()
	if err != nil {
		return model.Recurrence{}, err
	}
	end, err := f.endRepeat()
	if err != nil {
		return model.Recurrence{}, err
	}
	rec := model.Recurrence{Anchor: anchor, Frequency: freq, EndRepeat: end}
	return rec, rec.Validate()
}

// apply overrides the parts of base named by the flags the user set.
func (f *recurrenceFlags) apply(cmd *cobra.Command, base model.Recurrence) (model.Recurrence, error) {
	out := base.Clone()
	if f.frequencyChanged(cmd) {
		freq, err := f.frequency()
		if err != nil {
			return model.Recurrence{}, err
		}
		out.Frequency = freq
	}
	if cmd.Flags().Changed("start") {
		d, err := model.ParseDate(f.start)
		if err != nil {
			return model.Recurrence{}, fmt.Errorf("invalid --start: %w", err)
		}
		out.Anchor = d
	}
	if cmd.Flags().Changed("until") {
		end, err := f.endRepeat()
		if err != nil {
			return model.Recurrence{}, err
		}
		out.EndRepeat = end
	}
	return out, out.Validate()
}

func parseDateFlag(value string, today model.Date) (model.Date, error) {
	if value == "" || strings.EqualFold(value, "today") {
		return today, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return d, nil
}
