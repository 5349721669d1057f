package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

// RoutineSpec carries the fields needed to create a routine.
type RoutineSpec struct {
	Name       string
	Icon       string
	Color      string
	Recurrence model.Recurrence
}

func (s *Store) AddHabit(ctx context.Context, name string, rec model.Recurrence) (*model.Habit, error) {
	h := &model.Habit{ID: s.newID(), Name: strings.TrimSpace(name), Recurrence: rec.Clone()}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveHabit(ctx, h); err != nil {
		return nil, err
	}
	s.habits = append(s.habits, h)
	s.logger.Info("Habit added", zap.String("id", h.ID), zap.String("name", h.Name))
	return h.Clone(), nil
}

func (s *Store) RenameHabit(ctx context.Context, ref, name string) error {
	return s.updateHabit(ctx, ref, func(h *model.Habit) error {
		return h.Rename(name)
	})
}

func (s *Store) SetHabitRecurrence(ctx context.Context, ref string, rec model.Recurrence) error {
	return s.updateHabit(ctx, ref, func(h *model.Habit) error {
		return h.SetRecurrence(rec)
	})
}

// ToggleHabit flips completion on d and returns the new state. Dates the
// habit is not due on may be toggled too.
func (s *Store) ToggleHabit(ctx context.Context, ref string, d model.Date) (bool, error) {
	var done bool
	err := s.updateHabit(ctx, ref, func(h *model.Habit) error {
		done = h.Toggle(d)
		return nil
	})
	return done, err
}

func (s *Store) DeleteHabit(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.habitIndex(ref)
	if err != nil {
		return err
	}
	id := s.habits[i].ID
	if s.persist != nil {
		if err := s.persist.DeleteHabit(ctx, id); err != nil {
			return fmt.Errorf("store: delete habit: %w", err)
		}
	}
	s.habits = append(s.habits[:i], s.habits[i+1:]...)
	s.logger.Info("Habit deleted", zap.String("id", id))
	return nil
}

func (s *Store) AddRoutine(ctx context.Context, spec RoutineSpec) (*model.Routine, error) {
	r := &model.Routine{
		ID:         s.newID(),
		Name:       strings.TrimSpace(spec.Name),
		Icon:       spec.Icon,
		Color:      spec.Color,
		Recurrence: spec.Recurrence.Clone(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveRoutine(ctx, r); err != nil {
		return nil, err
	}
	s.routines = append(s.routines, r)
	s.logger.Info("Routine added", zap.String("id", r.ID), zap.String("name", r.Name))
	return r.Clone(), nil
}

func (s *Store) RenameRoutine(ctx context.Context, ref, name string) error {
	return s.updateRoutine(ctx, ref, func(r *model.Routine) error {
		return r.Rename(name)
	})
}

// SetRoutineRecurrence changes the routine gate. Items with an override are
// not touched.
func (s *Store) SetRoutineRecurrence(ctx context.Context, ref string, rec model.Recurrence) error {
	return s.updateRoutine(ctx, ref, func(r *model.Routine) error {
		return r.SetRecurrence(rec)
	})
}

func (s *Store) SetRoutineStyle(ctx context.Context, ref, icon, color string) error {
	return s.updateRoutine(ctx, ref, func(r *model.Routine) error {
		r.Icon = icon
		r.Color = color
		return nil
	})
}

func (s *Store) DeleteRoutine(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.routineIndex(ref)
	if err != nil {
		return err
	}
	id := s.routines[i].ID
	if s.persist != nil {
		if err := s.persist.DeleteRoutine(ctx, id); err != nil {
			return fmt.Errorf("store: delete routine: %w", err)
		}
	}
	s.routines = append(s.routines[:i], s.routines[i+1:]...)
	s.logger.Info("Routine deleted", zap.String("id", id))
	return nil
}

// AddItem appends an item. A nil override makes it follow the routine.
func (s *Store) AddItem(ctx context.Context, routineRef, name string, override *model.Recurrence) (model.RoutineItem, error) {
	item := model.RoutineItem{ID: s.newID(), Name: strings.TrimSpace(name), Override: override}
	err := s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		return r.AddItem(item)
	})
	if err != nil {
		return model.RoutineItem{}, err
	}
	if item.Override != nil {
		c := item.Override.Clone()
		item.Override = &c
	}
	return item, nil
}

func (s *Store) RemoveItem(ctx context.Context, routineRef, itemRef string) error {
	return s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		it, err := resolveItem(r, itemRef)
		if err != nil {
			return err
		}
		return r.RemoveItem(it.ID)
	})
}

func (s *Store) RenameItem(ctx context.Context, routineRef, itemRef, name string) error {
	return s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		it, err := resolveItem(r, itemRef)
		if err != nil {
			return err
		}
		return r.RenameItem(it.ID, name)
	})
}

func (s *Store) MoveItem(ctx context.Context, routineRef string, from, to int) error {
	return s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		return r.MoveItem(from, to)
	})
}

// SetItemOverride gives the item its own recurrence, or with nil makes it
// inherit the routine's again.
func (s *Store) SetItemOverride(ctx context.Context, routineRef, itemRef string, rec *model.Recurrence) error {
	return s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		it, err := resolveItem(r, itemRef)
		if err != nil {
			return err
		}
		return r.SetItemOverride(it.ID, rec)
	})
}

// ToggleItem flips an item's completion on d. Unknown items leave the
// routine untouched and report ErrNotFound.
func (s *Store) ToggleItem(ctx context.Context, routineRef, itemRef string, d model.Date) (bool, error) {
	var done bool
	err := s.updateRoutine(ctx, routineRef, func(r *model.Routine) error {
		it, err := resolveItem(r, itemRef)
		if err != nil {
			return err
		}
		done, _ = r.ToggleItemID(it.ID, d)
		return nil
	})
	return done, err
}

func resolveItem(r *model.Routine, ref string) (model.RoutineItem, error) {
	ref = strings.TrimSpace(ref)
	if it, ok := r.Item(ref); ok {
		return it, nil
	}
	if it, ok := r.ItemByName(ref); ok {
		return it, nil
	}
	for _, it := range r.Items {
		if strings.EqualFold(it.Name, ref) {
			return it, nil
		}
	}
	return model.RoutineItem{}, fmt.Errorf("%w: item %q in routine %q", ErrNotFound, ref, r.Name)
}

// updateHabit applies fn to a copy and commits it only once it is persisted.
func (s *Store) updateHabit(ctx context.Context, ref string, fn func(h *model.Habit) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.habitIndex(ref)
	if err != nil {
		return err
	}
	next := s.habits[i].Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.saveHabit(ctx, next); err != nil {
		return err
	}
	s.habits[i] = next
	return nil
}

func (s *Store) updateRoutine(ctx context.Context, ref string, fn func(r *model.Routine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.routineIndex(ref)
	if err != nil {
		return err
	}
	next := s.routines[i].Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.saveRoutine(ctx, next); err != nil {
		return err
	}
	s.routines[i] = next
	return nil
}

func (s *Store) saveHabit(ctx context.Context, h *model.Habit) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.SaveHabit(ctx, h); err != nil {
		s.logger.Error("Failed to save habit", zap.String("id", h.ID), zap.Error(err))
		return fmt.Errorf("store: save habit: %w", err)
	}
	return nil
}

func (s *Store) saveRoutine(ctx context.Context, r *model.Routine) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.SaveRoutine(ctx, r); err != nil {
		s.logger.Error("Failed to save routine", zap.String("id", r.ID), zap.Error(err))
		return fmt.Errorf("store: save routine: %w", err)
	}
	return nil
}
