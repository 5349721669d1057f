// Package migrate upgrades records written by the first, flat data format:
// routines whose items were plain strings and whose completions were keyed
// by item name.
package migrate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/habitd/internal/model"
)

// DefaultColor is given to legacy routines saved without one.
const DefaultColor = "blue"

// LegacyRecurrence is the flat recurrence encoding shared by legacy habits
// and routines.
type LegacyRecurrence struct {
	StartDate      string `json:"startDate" yaml:"startDate"`
	Frequency      string `json:"frequency" yaml:"frequency"`
	CustomUnit     string `json:"customUnit,omitempty" yaml:"customUnit,omitempty"`
	CustomInterval int    `json:"customInterval,omitempty" yaml:"customInterval,omitempty"`
	CustomWeekdays []int  `json:"customWeekdays,omitempty" yaml:"customWeekdays,omitempty"`
	EndDate        string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
}

type LegacyHabit struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	CompletedDates []string `json:"completedDates" yaml:"completedDates"`
	LegacyRecurrence `yaml:",inline"`
}

type LegacyRoutine struct {
	ID               string              `json:"id" yaml:"id"`
	Name             string              `json:"name" yaml:"name"`
	Icon             string              `json:"icon" yaml:"icon"`
	Color            string              `json:"color,omitempty" yaml:"color,omitempty"`
	Items            []string            `json:"items" yaml:"items"`
	Completions      map[string][]string `json:"completions" yaml:"completions"`
	LegacyRecurrence `yaml:",inline"`
}

type LegacyDocument struct {
	Habits   []LegacyHabit   `json:"habits" yaml:"habits"`
	Routines []LegacyRoutine `json:"routines" yaml:"routines"`
}

// Upgrader converts legacy records. NewID defaults to random UUIDs.
type Upgrader struct {
	NewID func() string
}

func NewUpgrader() *Upgrader {
	return &Upgrader{NewID: uuid.NewString}
}

func (u *Upgrader) newID() string {
	if u.NewID == nil {
		return uuid.NewString()
	}
	return u.NewID()
}

func (u *Upgrader) UpgradeDocument(doc LegacyDocument) (model.Collection, error) {
	out := model.Collection{
		Habits:   make([]*model.Habit, 0, len(doc.Habits)),
		Routines: make([]*model.Routine, 0, len(doc.Routines)),
	}
	for i, h := range doc.Habits {
		habit, err := u.UpgradeHabit(h)
		if err != nil {
			return model.Collection{}, withSource(err, fmt.Sprintf("habits[%d]", i))
		}
		out.Habits = append(out.Habits, habit)
	}
	for i, r := range doc.Routines {
		routine, err := u.UpgradeRoutine(r)
		if err != nil {
			return model.Collection{}, withSource(err, fmt.Sprintf("routines[%d]", i))
		}
		out.Routines = append(out.Routines, routine)
	}
	return out, nil
}

func (u *Upgrader) UpgradeHabit(in LegacyHabit) (*model.Habit, error) {
	rec, err := in.LegacyRecurrence.toModel()
	if err != nil {
		return nil, err
	}
	h := &model.Habit{
		ID:         strings.TrimSpace(in.ID),
		Name:       strings.TrimSpace(in.Name),
		Recurrence: rec,
	}
	if h.ID == "" {
		h.ID = u.newID()
	}
	for _, raw := range in.CompletedDates {
		d, err := model.ParseDate(raw)
		if err != nil {
			return nil, &model.DecodeError{Field: "completedDates", Err: err}
		}
		h.SetCompleted(d, true)
	}
	return h, nil
}

// UpgradeRoutine turns each legacy item name into a RoutineItem with a daily
// recurrence anchored at the routine's start, assigns DefaultColor when the
// routine has none, and re-keys completions from item names to the new item
// ids. Item names that differ only in case collapse into one item.
// Completions for names that match no item are kept under the name.
func (u *Upgrader) UpgradeRoutine(in LegacyRoutine) (*model.Routine, error) {
	rec, err := in.LegacyRecurrence.toModel()
	if err != nil {
		return nil, err
	}
	r := &model.Routine{
		ID:         strings.TrimSpace(in.ID),
		Name:       strings.TrimSpace(in.Name),
		Icon:       in.Icon,
		Color:      strings.TrimSpace(in.Color),
		Recurrence: rec,
	}
	if r.ID == "" {
		r.ID = u.newID()
	}
	if r.Color == "" {
		r.Color = DefaultColor
	}

	idByName := make(map[string]string, len(in.Items))
	idByFolded := make(map[string]string, len(in.Items))
	for _, name := range in.Items {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if id, dup := idByFolded[strings.ToLower(name)]; dup {
			idByName[name] = id
			continue
		}
		daily := model.Recurrence{Anchor: rec.Anchor, Frequency: model.Daily()}
		item := model.RoutineItem{ID: u.newID(), Name: name, Override: &daily}
		if err := r.AddItem(item); err != nil {
			return nil, &model.DecodeError{Field: "items", Err: err}
		}
		idByName[name] = item.ID
		idByFolded[strings.ToLower(name)] = item.ID
	}

	for rawDay, names := range in.Completions {
		d, err := model.ParseDate(rawDay)
		if err != nil {
			return nil, &model.DecodeError{Field: "completions", Err: err}
		}
		for _, name := range names {
			r.Ledger.SetCompleted(name, d, true)
		}
	}
	for name, id := range idByName {
		r.Ledger.RenameKey(name, id)
	}
	return r, nil
}

func (l LegacyRecurrence) toModel() (model.Recurrence, error) {
	anchor, err := model.ParseDate(strings.TrimSpace(l.StartDate))
	if err != nil {
		return model.Recurrence{}, &model.DecodeError{Field: "startDate", Err: err}
	}
	kind, err := model.ParseFrequencyKind(l.Frequency)
	if err != nil {
		return model.Recurrence{}, &model.DecodeError{Field: "frequency", Err: err}
	}

	var freq model.Frequency
	if kind == model.KindCustom {
		rule := model.CustomRule{Interval: l.CustomInterval}
		if rule.Unit, err = model.ParseIntervalUnit(l.CustomUnit); err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "customUnit", Err: err}
		}
		for _, wd := range l.CustomWeekdays {
			if wd < 1 || wd > 7 {
				return model.Recurrence{}, &model.DecodeError{Field: "customWeekdays", Err: fmt.Errorf("weekday %d out of range", wd)}
			}
			rule.Weekdays = append(rule.Weekdays, weekdayFromLegacy(wd))
		}
		// Weekday rules were saved without an interval.
		if len(rule.Weekdays) > 0 && rule.Interval == 0 {
			rule.Interval = 1
		}
		if err := rule.Validate(); err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "custom", Err: err}
		}
		freq = model.Custom(rule)
	} else if freq, err = model.FrequencyOf(kind); err != nil {
		return model.Recurrence{}, &model.DecodeError{Field: "frequency", Err: err}
	}

	end := model.EndNever()
	if s := strings.TrimSpace(l.EndDate); s != "" {
		cutoff, err := model.ParseDate(s)
		if err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "endDate", Err: err}
		}
		end = model.EndOn(cutoff)
	}
	return model.Recurrence{Anchor: anchor, Frequency: freq, EndRepeat: end}, nil
}

// Legacy weekdays are numbered 1 (Sunday) through 7 (Saturday).
func weekdayFromLegacy(n int) time.Weekday {
	return time.Weekday((n + 6) % 7)
}

func withSource(err error, source string) error {
	if de, ok := err.(*model.DecodeError); ok {
		out := *de
		if out.Source == "" {
			out.Source = source
		} else {
			out.Source = source + "." + out.Source
		}
		return &out
	}
	return &model.DecodeError{Source: source, Err: err}
}
