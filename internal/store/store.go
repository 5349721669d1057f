// Package store owns the in-memory habits and routines of one user. It
// serialises mutations, writes every change through to a Persister and hands
// out clones to readers.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sandeepkv93/habitd/internal/model"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrAmbiguous = errors.New("store: ambiguous reference")
)

// Persister is the write-through target. storage.SQLiteRepository satisfies
// it.
type Persister interface {
	SaveCollection(ctx context.Context, c model.Collection) error
	SaveHabit(ctx context.Context, h *model.Habit) error
	DeleteHabit(ctx context.Context, id string) error
	SaveRoutine(ctx context.Context, r *model.Routine) error
	DeleteRoutine(ctx context.Context, id string) error
}

type Store struct {
	mu       sync.RWMutex
	habits   []*model.Habit
	routines []*model.Routine

	persist Persister
	logger  *zap.Logger
	newID   func() string
}

type Option func(*Store)

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persist = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New validates c and takes a private copy of it.
func New(c model.Collection, opts ...Option) (*Store, error) {
	s := &Store{logger: zap.NewNop(), newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.habits, s.routines = cloneCollection(c)
	return s, nil
}

func (s *Store) Snapshot() model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	habits, routines := cloneCollection(model.Collection{Habits: s.habits, Routines: s.routines})
	return model.Collection{Habits: habits, Routines: routines}
}

func (s *Store) Habits() []*model.Habit {
	return s.Snapshot().Habits
}

func (s *Store) Routines() []*model.Routine {
	return s.Snapshot().Routines
}

// Replace swaps the whole collection, as an import does.
func (s *Store) Replace(ctx context.Context, c model.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persist != nil {
		if err := s.persist.SaveCollection(ctx, c); err != nil {
			return fmt.Errorf("store: save collection: %w", err)
		}
	}
	s.habits, s.routines = cloneCollection(c)
	s.logger.Info("Collection replaced",
		zap.Int("habits", len(s.habits)),
		zap.Int("routines", len(s.routines)),
	)
	return nil
}

// FindHabit resolves ref as an id, then as a case-insensitive name.
func (s *Store) FindHabit(ref string) (*model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.habitIndex(ref)
	if err != nil {
		return nil, err
	}
	return s.habits[i].Clone(), nil
}

func (s *Store) FindRoutine(ref string) (*model.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, err := s.routineIndex(ref)
	if err != nil {
		return nil, err
	}
	return s.routines[i].Clone(), nil
}

// FindItem resolves an item of the referenced routine by id, then by name.
func (s *Store) FindItem(routineRef, itemRef string) (*model.Routine, model.RoutineItem, error) {
	r, err := s.FindRoutine(routineRef)
	if err != nil {
		return nil, model.RoutineItem{}, err
	}
	it, err := resolveItem(r, itemRef)
	if err != nil {
		return nil, model.RoutineItem{}, err
	}
	return r, it, nil
}

func (s *Store) habitIndex(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, h := range s.habits {
		if h.ID == ref {
			return i, nil
		}
	}
	found := -1
	for i, h := range s.habits {
		if strings.EqualFold(h.Name, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%w: habit %q", ErrAmbiguous, ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: habit %q", ErrNotFound, ref)
	}
	return found, nil
}

func (s *Store) routineIndex(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	for i, r := range s.routines {
		if r.ID == ref {
			return i, nil
		}
	}
	found := -1
	for i, r := range s.routines {
		if strings.EqualFold(r.Name, ref) {
			if found >= 0 {
				return -1, fmt.Errorf("%w: routine %q", ErrAmbiguous, ref)
			}
			found = i
		}
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: routine %q", ErrNotFound, ref)
	}
	return found, nil
}

func cloneCollection(c model.Collection) ([]*model.Habit, []*model.Routine) {
	habits := make([]*model.Habit, 0, len(c.Habits))
	for _, h := range c.Habits {
		habits = append(habits, h.Clone())
	}
	routines := make([]*model.Routine, 0, len(c.Routines))
	for _, r := range c.Routines {
		routines = append(routines, r.Clone())
	}
	return habits, routines
}
