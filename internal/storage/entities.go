package storage

import (
	"database/sql"
	"strings"

	"github.com/sandeepkv93/habitd/internal/codec"
	"github.com/sandeepkv93/habitd/internal/model"
)

// recurrenceColumns mirrors the six recurrence columns shared by habits,
// routines and routine items. All columns NULL means "inherit".
type recurrenceColumns struct {
	Anchor    sql.NullString
	Frequency sql.NullString
	Unit      sql.NullString
	Interval  sql.NullInt64
	Weekdays  sql.NullString
	EndDate   sql.NullString
}

func recurrenceToColumns(r *model.Recurrence) recurrenceColumns {
	if r == nil {
		return recurrenceColumns{}
	}
	rec := codec.FromRecurrence(*r)
	out := recurrenceColumns{
		Anchor:    sql.NullString{String: rec.Anchor, Valid: true},
		Frequency: sql.NullString{String: rec.Frequency, Valid: true},
	}
	if rec.Custom != nil {
		out.Unit = sql.NullString{String: rec.Custom.Unit, Valid: true}
		out.Interval = sql.NullInt64{Int64: int64(rec.Custom.Interval), Valid: true}
		if len(rec.Custom.Weekdays) > 0 {
			out.Weekdays = sql.NullString{String: strings.Join(rec.Custom.Weekdays, ","), Valid: true}
		}
	}
	if rec.EndDate != "" {
		out.EndDate = sql.NullString{String: rec.EndDate, Valid: true}
	}
	return out
}

func (c recurrenceColumns) args() []any {
	return []any{c.Anchor, c.Frequency, c.Unit, c.Interval, c.Weekdays, c.EndDate}
}

func (c *recurrenceColumns) dest() []any {
	return []any{&c.Anchor, &c.Frequency, &c.Unit, &c.Interval, &c.Weekdays, &c.EndDate}
}

func (c recurrenceColumns) inherits() bool {
	return !c.Anchor.Valid && !c.Frequency.Valid
}

func (c recurrenceColumns) toModel(source string) (model.Recurrence, error) {
	rec := codec.RecurrenceRecord{
		Anchor:    c.Anchor.String,
		Frequency: c.Frequency.String,
		EndDate:   c.EndDate.String,
	}
	if c.Frequency.String == string(model.KindCustom) {
		custom := &codec.CustomRecord{Unit: c.Unit.String, Interval: int(c.Interval.Int64)}
		if c.Weekdays.Valid && c.Weekdays.String != "" {
			custom.Weekdays = strings.Split(c.Weekdays.String, ",")
		}
		rec.Custom = custom
	}
	out, err := codec.ToRecurrence(rec)
	if err != nil {
		return model.Recurrence{}, withSource(err, source)
	}
	return out, nil
}

func withSource(err error, source string) error {
	if de, ok := err.(*model.DecodeError); ok {
		out := *de
		out.Source = source
		return &out
	}
	return &model.DecodeError{Source: source, Err: err}
}
