package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(db *sql.DB, logger *zap.Logger) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, logger: logger, now: time.Now}, nil
}

func OpenSQLite(path string, logger *zap.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the foreign_keys pragma in effect for every query.
	db.SetMaxOpenConns(1)
	repo, err := NewSQLiteRepository(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) LoadCollection(ctx context.Context) (model.Collection, error) {
	habits, err := r.loadHabits(ctx)
	if err != nil {
		return model.Collection{}, err
	}
	routines, err := r.loadRoutines(ctx)
	if err != nil {
		return model.Collection{}, err
	}
	r.logger.Debug("Loaded collection",
		zap.Int("habits", len(habits)),
		zap.Int("routines", len(routines)),
	)
	return model.Collection{Habits: habits, Routines: routines}, nil
}

func (r *SQLiteRepository) SaveCollection(ctx context.Context, c model.Collection) error {
	r.logger.Debug("Saving collection",
		zap.Int("habits", len(c.Habits)),
		zap.Int("routines", len(c.Routines)),
	)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM routine_completions`,
			`DELETE FROM routine_items`,
			`DELETE FROM routines`,
			`DELETE FROM habit_completions`,
			`DELETE FROM habits`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		for i, h := range c.Habits {
			if err := r.writeHabit(ctx, tx, h, i); err != nil {
				return err
			}
		}
		for i, rt := range c.Routines {
			if err := r.writeRoutine(ctx, tx, rt, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SaveHabit(ctx context.Context, h *model.Habit) error {
	if h == nil {
		return errors.New("storage: nil habit")
	}
	r.logger.Debug("Saving habit", zap.String("id", h.ID), zap.String("name", h.Name))
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.writeHabit(ctx, tx, h, -1)
	})
}

func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete habit", zap.String("id", id), zap.Error(err))
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) SaveRoutine(ctx context.Context, rt *model.Routine) error {
	if rt == nil {
		return errors.New("storage: nil routine")
	}
	r.logger.Debug("Saving routine",
		zap.String("id", rt.ID),
		zap.String("name", rt.Name),
		zap.Int("items", len(rt.Items)),
	)
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return r.writeRoutine(ctx, tx, rt, -1)
	})
}

func (r *SQLiteRepository) DeleteRoutine(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routines WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete routine", zap.String("id", id), zap.Error(err))
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		r.logger.Error("Transaction rolled back", zap.Error(err))
		return err
	}
	return tx.Commit()
}

// writeHabit upserts the habit row and replaces its completions. A negative
// position keeps an existing row's position or appends a new row at the end.
func (r *SQLiteRepository) writeHabit(ctx context.Context, tx execer, h *model.Habit, position int) error {
	cols := recurrenceToColumns(&h.Recurrence)
	args := []any{h.ID, h.Name, position}
	args = append(args, cols.args()...)
	args = append(args, mustTime(r.now()))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO habits (id, name, position, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date, updated_at)
		VALUES (?, ?, CASE WHEN ?3 >= 0 THEN ?3 ELSE (SELECT COALESCE(MAX(position) + 1, 0) FROM habits) END, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = CASE WHEN ?3 >= 0 THEN ?3 ELSE habits.position END,
			anchor_date = excluded.anchor_date,
			frequency = excluded.frequency,
			custom_unit = excluded.custom_unit,
			custom_interval = excluded.custom_interval,
			custom_weekdays = excluded.custom_weekdays,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at`,
		args...,
	); err != nil {
		return fmt.Errorf("write habit %s: %w", h.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_completions WHERE habit_id = ?`, h.ID); err != nil {
		return err
	}
	for _, d := range h.Ledger.Dates() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO habit_completions (habit_id, day) VALUES (?, ?)`, h.ID, d.String(),
		); err != nil {
			return fmt.Errorf("write habit completion %s: %w", h.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) writeRoutine(ctx context.Context, tx execer, rt *model.Routine, position int) error {
	cols := recurrenceToColumns(&rt.Recurrence)
	args := []any{rt.ID, rt.Name, rt.Icon, rt.Color, position}
	args = append(args, cols.args()...)
	args = append(args, mustTime(r.now()))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO routines (id, name, icon, color, position, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date, updated_at)
		VALUES (?, ?, ?, ?, CASE WHEN ?5 >= 0 THEN ?5 ELSE (SELECT COALESCE(MAX(position) + 1, 0) FROM routines) END, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			color = excluded.color,
			position = CASE WHEN ?5 >= 0 THEN ?5 ELSE routines.position END,
			anchor_date = excluded.anchor_date,
			frequency = excluded.frequency,
			custom_unit = excluded.custom_unit,
			custom_interval = excluded.custom_interval,
			custom_weekdays = excluded.custom_weekdays,
			end_date = excluded.end_date,
			updated_at = excluded.updated_at`,
		args...,
	); err != nil {
		return fmt.Errorf("write routine %s: %w", rt.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM routine_items WHERE routine_id = ?`, rt.ID); err != nil {
		return err
	}
	for i, it := range rt.Items {
		itemArgs := []any{rt.ID, it.ID, it.Name, i}
		itemArgs = append(itemArgs, recurrenceToColumns(it.Override).args()...)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO routine_items (routine_id, id, name, position, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			itemArgs...,
		); err != nil {
			return fmt.Errorf("write routine item %s/%s: %w", rt.ID, it.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM routine_completions WHERE routine_id = ?`, rt.ID); err != nil {
		return err
	}
	for _, d := range rt.Ledger.Dates() {
		for _, key := range rt.Ledger.Keys(d) {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO routine_completions (routine_id, item_key, day) VALUES (?, ?, ?)`,
				rt.ID, key, d.String(),
			); err != nil {
				return fmt.Errorf("write routine completion %s: %w", rt.ID, err)
			}
		}
	}
	return nil
}

func (r *SQLiteRepository) loadHabits(ctx context.Context) ([]*model.Habit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date
		FROM habits ORDER BY position ASC, id ASC`)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Habit, 0)
	byID := make(map[string]*model.Habit)
	for rows.Next() {
		h, scanErr := scanHabit(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, h)
		byID[h.ID] = h
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	done, err := r.db.QueryContext(ctx, `SELECT habit_id, day FROM habit_completions`)
	if err != nil {
		return nil, err
	}
	defer done.Close()
	for done.Next() {
		var habitID, raw string
		if err := done.Scan(&habitID, &raw); err != nil {
			return nil, err
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return nil, &model.DecodeError{Source: "habit_completions/" + habitID, Field: "day", Err: err}
		}
		if h, ok := byID[habitID]; ok {
			h.SetCompleted(d, true)
		}
	}
	return out, done.Err()
}

func (r *SQLiteRepository) loadRoutines(ctx context.Context) ([]*model.Routine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date
		FROM routines ORDER BY position ASC, id ASC`)
	if err != nil {
		r.logger.Error("Failed to list routines", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Routine, 0)
	byID := make(map[string]*model.Routine)
	for rows.Next() {
		rt, scanErr := scanRoutine(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, rt)
		byID[rt.ID] = rt
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := r.db.QueryContext(ctx, `
		SELECT routine_id, id, name, anchor_date, frequency, custom_unit, custom_interval, custom_weekdays, end_date
		FROM routine_items ORDER BY routine_id ASC, position ASC`)
	if err != nil {
		return nil, err
	}
	defer items.Close()
	for items.Next() {
		routineID, it, scanErr := scanRoutineItem(items)
		if scanErr != nil {
			return nil, scanErr
		}
		if rt, ok := byID[routineID]; ok {
			rt.Items = append(rt.Items, it)
		}
	}
	if err := items.Err(); err != nil {
		return nil, err
	}

	done, err := r.db.QueryContext(ctx, `SELECT routine_id, item_key, day FROM routine_completions`)
	if err != nil {
		return nil, err
	}
	defer done.Close()
	for done.Next() {
		var routineID, key, raw string
		if err := done.Scan(&routineID, &key, &raw); err != nil {
			return nil, err
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return nil, &model.DecodeError{Source: "routine_completions/" + routineID, Field: "day", Err: err}
		}
		if rt, ok := byID[routineID]; ok {
			rt.Ledger.SetCompleted(key, d, true)
		}
	}
	return out, done.Err()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(s scanner) (*model.Habit, error) {
	out := &model.Habit{}
	var cols recurrenceColumns
	dest := append([]any{&out.ID, &out.Name}, cols.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	rec, err := cols.toModel("habits/" + out.ID)
	if err != nil {
		return nil, err
	}
	out.Recurrence = rec
	return out, nil
}

func scanRoutine(s scanner) (*model.Routine, error) {
	out := &model.Routine{}
	var cols recurrenceColumns
	dest := append([]any{&out.ID, &out.Name, &out.Icon, &out.Color}, cols.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	rec, err := cols.toModel("routines/" + out.ID)
	if err != nil {
		return nil, err
	}
	out.Recurrence = rec
	return out, nil
}

func scanRoutineItem(s scanner) (string, model.RoutineItem, error) {
	var routineID string
	var out model.RoutineItem
	var cols recurrenceColumns
	dest := append([]any{&routineID, &out.ID, &out.Name}, cols.dest()...)
	if err := s.Scan(dest...); err != nil {
		return "", model.RoutineItem{}, err
	}
	if cols.inherits() {
		return routineID, out, nil
	}
	rec, err := cols.toModel("routine_items/" + routineID + "/" + out.ID)
	if err != nil {
		return "", model.RoutineItem{}, err
	}
	out.Override = &rec
	return routineID, out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
