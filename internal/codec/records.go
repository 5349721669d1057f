// Package codec defines the document format used to export and import a
// whole collection of habits and routines.
package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
)

// CurrentVersion is written by Encode. Documents without a version are
// treated as the legacy flat format.
const CurrentVersion = 2

type Document struct {
	Version  int             `json:"version" yaml:"version"`
	Habits   []HabitRecord   `json:"habits" yaml:"habits"`
	Routines []RoutineRecord `json:"routines" yaml:"routines"`
}

type CustomRecord struct {
	Unit     string   `json:"unit" yaml:"unit"`
	Interval int      `json:"interval" yaml:"interval"`
	Weekdays []string `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
}

type RecurrenceRecord struct {
	Anchor    string        `json:"anchor" yaml:"anchor"`
	Frequency string        `json:"frequency" yaml:"frequency"`
	Custom    *CustomRecord `json:"custom,omitempty" yaml:"custom,omitempty"`
	EndDate   string        `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

type HabitRecord struct {
	ID         string           `json:"id" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	Recurrence RecurrenceRecord `json:"recurrence" yaml:"recurrence"`
	Completed  []string         `json:"completed,omitempty" yaml:"completed,omitempty"`
}

type ItemRecord struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Override *RecurrenceRecord `json:"override,omitempty" yaml:"override,omitempty"`
}

type CompletionRecord struct {
	Date  string   `json:"date" yaml:"date"`
	Items []string `json:"items" yaml:"items"`
}

type RoutineRecord struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Icon        string             `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string             `json:"color,omitempty" yaml:"color,omitempty"`
	Recurrence  RecurrenceRecord   `json:"recurrence" yaml:"recurrence"`
	Items       []ItemRecord       `json:"items" yaml:"items"`
	Completions []CompletionRecord `json:"completions,omitempty" yaml:"completions,omitempty"`
}

func FromCollection(c model.Collection) Document {
	doc := Document{
		Version:  CurrentVersion,
		Habits:   make([]HabitRecord, 0, len(c.Habits)),
		Routines: make([]RoutineRecord, 0, len(c.Routines)),
	}
	for _, h := range c.Habits {
		rec := HabitRecord{ID: h.ID, Name: h.Name, Recurrence: FromRecurrence(h.Recurrence)}
		for _, d := range h.Ledger.Dates() {
			rec.Completed = append(rec.Completed, d.String())
		}
		doc.Habits = append(doc.Habits, rec)
	}
	for _, r := range c.Routines {
		rec := RoutineRecord{
			ID:         r.ID,
			Name:       r.Name,
			Icon:       r.Icon,
			Color:      r.Color,
			Recurrence: FromRecurrence(r.Recurrence),
			Items:      make([]ItemRecord, 0, len(r.Items)),
		}
		for _, it := range r.Items {
			item := ItemRecord{ID: it.ID, Name: it.Name}
			if it.Override != nil {
				o := FromRecurrence(*it.Override)
				item.Override = &o
			}
			rec.Items = append(rec.Items, item)
		}
		for _, d := range r.Ledger.Dates() {
			rec.Completions = append(rec.Completions, CompletionRecord{Date: d.String(), Items: r.Ledger.Keys(d)})
		}
		doc.Routines = append(doc.Routines, rec)
	}
	return doc
}

// ToCollection rebuilds the aggregates. Any malformed field is reported as a
// *model.DecodeError naming the record.
func (doc Document) ToCollection() (model.Collection, error) {
	out := model.Collection{
		Habits:   make([]*model.Habit, 0, len(doc.Habits)),
		Routines: make([]*model.Routine, 0, len(doc.Routines)),
	}
	for i, rec := range doc.Habits {
		source := fmt.Sprintf("habits[%d]", i)
		rr, err := ToRecurrence(rec.Recurrence)
		if err != nil {
			return model.Collection{}, sourced(err, source+".recurrence")
		}
		h := &model.Habit{ID: rec.ID, Name: rec.Name, Recurrence: rr}
		for _, raw := range rec.Completed {
			d, err := model.ParseDate(raw)
			if err != nil {
				return model.Collection{}, &model.DecodeError{Source: source, Field: "completed", Err: err}
			}
			h.SetCompleted(d, true)
		}
		out.Habits = append(out.Habits, h)
	}
	for i, rec := range doc.Routines {
		source := fmt.Sprintf("routines[%d]", i)
		rr, err := ToRecurrence(rec.Recurrence)
		if err != nil {
			return model.Collection{}, sourced(err, source+".recurrence")
		}
		r := &model.Routine{ID: rec.ID, Name: rec.Name, Icon: rec.Icon, Color: rec.Color, Recurrence: rr}
		for j, item := range rec.Items {
			it := model.RoutineItem{ID: item.ID, Name: item.Name}
			if item.Override != nil {
				o, err := ToRecurrence(*item.Override)
				if err != nil {
					return model.Collection{}, sourced(err, fmt.Sprintf("%s.items[%d].override", source, j))
				}
				it.Override = &o
			}
			r.Items = append(r.Items, it)
		}
		for _, c := range rec.Completions {
			d, err := model.ParseDate(c.Date)
			if err != nil {
				return model.Collection{}, &model.DecodeError{Source: source, Field: "completions", Err: err}
			}
			for _, key := range c.Items {
				r.Ledger.SetCompleted(key, d, true)
			}
		}
		out.Routines = append(out.Routines, r)
	}
	return out, nil
}

func FromRecurrence(r model.Recurrence) RecurrenceRecord {
	out := RecurrenceRecord{
		Anchor:    r.Anchor.String(),
		Frequency: string(r.Frequency.Kind()),
	}
	if rule, ok := r.Frequency.CustomRule(); ok {
		c := &CustomRecord{Unit: string(rule.Unit), Interval: rule.Interval}
		for _, d := range rule.Weekdays {
			c.Weekdays = append(c.Weekdays, WeekdayName(d))
		}
		out.Custom = c
	}
	if cutoff, ok := r.EndRepeat.Cutoff(); ok {
		out.EndDate = cutoff.String()
	}
	return out
}

// ToRecurrence decodes a record. A custom frequency must carry its rule.
func ToRecurrence(rec RecurrenceRecord) (model.Recurrence, error) {
	anchor, err := model.ParseDate(rec.Anchor)
	if err != nil {
		return model.Recurrence{}, &model.DecodeError{Field: "anchor", Err: err}
	}
	kind, err := model.ParseFrequencyKind(rec.Frequency)
	if err != nil {
		return model.Recurrence{}, &model.DecodeError{Field: "frequency", Err: err}
	}

	var freq model.Frequency
	switch {
	case kind == model.KindCustom:
		if rec.Custom == nil {
			return model.Recurrence{}, &model.DecodeError{Field: "custom", Err: fmt.Errorf("custom frequency without rule")}
		}
		rule := model.CustomRule{Interval: rec.Custom.Interval}
		if rule.Unit, err = model.ParseIntervalUnit(rec.Custom.Unit); err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "custom.unit", Err: err}
		}
		for _, name := range rec.Custom.Weekdays {
			wd, err := ParseWeekday(name)
			if err != nil {
				return model.Recurrence{}, &model.DecodeError{Field: "custom.weekdays", Err: err}
			}
			rule.Weekdays = append(rule.Weekdays, wd)
		}
		if err := rule.Validate(); err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "custom", Err: err}
		}
		freq = model.Custom(rule)
	default:
		if freq, err = model.FrequencyOf(kind); err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "frequency", Err: err}
		}
	}

	end := model.EndNever()
	if rec.EndDate != "" {
		cutoff, err := model.ParseDate(rec.EndDate)
		if err != nil {
			return model.Recurrence{}, &model.DecodeError{Field: "end_date", Err: err}
		}
		end = model.EndOn(cutoff)
	}
	return model.Recurrence{Anchor: anchor, Frequency: freq, EndRepeat: end}, nil
}

func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}

func ParseWeekday(name string) (time.Weekday, error) {
	days, err := model.ParseWeekdays(name)
	if err != nil {
		return 0, err
	}
	if len(days) != 1 {
		return 0, fmt.Errorf("expected one weekday, got %q", name)
	}
	return days[0], nil
}

func sourced(err error, source string) error {
	if de, ok := err.(*model.DecodeError); ok {
		out := *de
		out.Source = source
		return &out
	}
	return &model.DecodeError{Source: source, Err: err}
}
