package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePersister struct {
	mu       sync.Mutex
	habits   map[string]*model.Habit
	routines map[string]*model.Routine
	fail     error
	saves    int
}

func newFakePersister() *fakePersister {
	return &fakePersister{habits: map[string]*model.Habit{}, routines: map[string]*model.Routine{}}
}

func (f *fakePersister) SaveCollection(_ context.Context, c model.Collection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.habits = map[string]*model.Habit{}
	f.routines = map[string]*model.Routine{}
	for _, h := range c.Habits {
		f.habits[h.ID] = h.Clone()
	}
	for _, r := range c.Routines {
		f.routines[r.ID] = r.Clone()
	}
	f.saves++
	return nil
}

func (f *fakePersister) SaveHabit(_ context.Context, h *model.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.habits[h.ID] = h.Clone()
	f.saves++
	return nil
}

func (f *fakePersister) DeleteHabit(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.habits, id)
	return f.fail
}

func (f *fakePersister) SaveRoutine(_ context.Context, r *model.Routine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.routines[r.ID] = r.Clone()
	f.saves++
	return nil
}

func (f *fakePersister) DeleteRoutine(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.routines, id)
	return f.fail
}

func day(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newTestStore(t *testing.T, p Persister) *Store {
	t.Helper()
	n := 0
	s, err := New(model.Collection{},
		WithPersister(p),
		WithLogger(zaptest.NewLogger(t)),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	return s
}

func TestHabitLifecycle(t *testing.T) {
	p := newFakePersister()
	s := newTestStore(t, p)
	ctx := context.Background()
	weekly := model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Weekly()}

	h, err := s.AddHabit(ctx, "  Run ", weekly)
	require.NoError(t, err)
	assert.Equal(t, "id-1", h.ID)
	assert.Equal(t, "Run", h.Name)
	require.Contains(t, p.habits, "id-1")

	done, err := s.ToggleHabit(ctx, "run", day(t, "2025-01-08"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, p.habits["id-1"].IsCompleted(day(t, "2025-01-08")))

	require.NoError(t, s.RenameHabit(ctx, "id-1", "Long run"))
	found, err := s.FindHabit("LONG RUN")
	require.NoError(t, err)
	assert.Equal(t, "id-1", found.ID)

	// Callers get copies.
	found.Toggle(day(t, "2025-01-15"))
	again, err := s.FindHabit("id-1")
	require.NoError(t, err)
	assert.False(t, again.IsCompleted(day(t, "2025-01-15")))

	require.NoError(t, s.SetHabitRecurrence(ctx, "id-1", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()}))
	agenda := s.Agenda(day(t, "2025-01-09"))
	require.Len(t, agenda.Habits, 1)
	assert.Equal(t, "daily", agenda.Habits[0].Frequency)

	require.NoError(t, s.DeleteHabit(ctx, "Long run"))
	assert.Empty(t, s.Habits())
	assert.NotContains(t, p.habits, "id-1")
	_, err = s.FindHabit("id-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddHabitRejectsInvalidInput(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	_, err := s.AddHabit(ctx, " ", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()})
	assert.ErrorIs(t, err, model.ErrNameRequired)

	bad := model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Custom(model.CustomRule{Unit: model.UnitDay})}
	_, err = s.AddHabit(ctx, "x", bad)
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
	assert.Empty(t, s.Habits())
}

func TestPersistFailureLeavesStateUnchanged(t *testing.T) {
	p := newFakePersister()
	s := newTestStore(t, p)
	ctx := context.Background()
	h, err := s.AddHabit(ctx, "Read", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()})
	require.NoError(t, err)

	p.fail = errors.New("disk full")
	_, err = s.ToggleHabit(ctx, h.ID, day(t, "2025-01-02"))
	require.Error(t, err)

	got, err := s.FindHabit(h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted(day(t, "2025-01-02")))

	_, err = s.AddHabit(ctx, "Write", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()})
	require.Error(t, err)
	assert.Len(t, s.Habits(), 1)
}

func TestRoutineItemsAndAgenda(t *testing.T) {
	p := newFakePersister()
	s := newTestStore(t, p)
	ctx := context.Background()

	r, err := s.AddRoutine(ctx, RoutineSpec{
		Name:       "Morning",
		Icon:       "sun",
		Color:      "yellow",
		Recurrence: model.Recurrence{Anchor: day(t, "2025-03-01"), Frequency: model.Biweekly()},
	})
	require.NoError(t, err)

	a, err := s.AddItem(ctx, "Morning", "A", nil)
	require.NoError(t, err)
	daily := model.Recurrence{Anchor: day(t, "2025-03-01"), Frequency: model.Daily()}
	b, err := s.AddItem(ctx, r.ID, "B", &daily)
	require.NoError(t, err)
	require.NotNil(t, b.Override)

	onWeek := s.Agenda(day(t, "2025-03-15"))
	require.Len(t, onWeek.Routines, 1)
	entry := onWeek.Routines[0]
	assert.True(t, entry.Scheduled)
	require.Len(t, entry.Items, 2)
	assert.True(t, entry.Items[0].Inherited)
	assert.False(t, entry.Items[1].Inherited)
	assert.Zero(t, entry.Progress)

	offWeek := s.Agenda(day(t, "2025-03-08"))
	require.Len(t, offWeek.Routines, 1)
	assert.False(t, offWeek.Routines[0].Scheduled)
	require.Len(t, offWeek.Routines[0].Items, 1)
	assert.Equal(t, "B", offWeek.Routines[0].Items[0].Name)

	done, err := s.ToggleItem(ctx, "morning", "a", day(t, "2025-03-15"))
	require.NoError(t, err)
	assert.True(t, done)
	entry = s.Agenda(day(t, "2025-03-15")).Routines[0]
	assert.Equal(t, 1, entry.Done)
	assert.InDelta(t, 0.5, entry.Progress, 1e-9)
	assert.True(t, p.routines[r.ID].IsItemIDCompleted(a.ID, day(t, "2025-03-15")))

	_, err = s.ToggleItem(ctx, "Morning", "C", day(t, "2025-03-15"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddItem(ctx, "Morning", "b", nil)
	assert.ErrorIs(t, err, model.ErrDuplicateName)

	require.NoError(t, s.RenameItem(ctx, "Morning", "A", "Alpha"))
	assert.ErrorIs(t, s.RenameItem(ctx, "Morning", "Alpha", "B"), model.ErrDuplicateName)
	got, err := s.FindRoutine("Morning")
	require.NoError(t, err)
	assert.True(t, got.IsItemCompleted("Alpha", day(t, "2025-03-15")))

	require.NoError(t, s.MoveItem(ctx, "Morning", 1, 0))
	require.NoError(t, s.SetItemOverride(ctx, "Morning", "B", nil))
	got, err = s.FindRoutine("Morning")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Items[0].Name)
	assert.Nil(t, got.Items[0].Override)

	assert.True(t, s.Agenda(day(t, "2025-03-08")).Empty())

	require.NoError(t, s.RemoveItem(ctx, "Morning", "Alpha"))
	require.NoError(t, s.SetRoutineStyle(ctx, "Morning", "moon", "blue"))
	require.NoError(t, s.RenameRoutine(ctx, "Morning", "Evening"))
	got, err = s.FindRoutine("evening")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, "moon", got.Icon)

	require.NoError(t, s.DeleteRoutine(ctx, "Evening"))
	assert.Empty(t, s.Routines())
}

func TestRoutineRecurrenceEditKeepsOverrides(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	_, err := s.AddRoutine(ctx, RoutineSpec{
		Name:       "Gym",
		Recurrence: model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Weekly()},
	})
	require.NoError(t, err)
	daily := model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()}
	_, err = s.AddItem(ctx, "Gym", "Stretch", &daily)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, "Gym", "Lift", nil)
	require.NoError(t, err)

	require.NoError(t, s.SetRoutineRecurrence(ctx, "Gym", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Monthly()}))
	entry := s.Agenda(day(t, "2025-01-08")).Routines[0]
	require.Len(t, entry.Items, 1)
	assert.Equal(t, "Stretch", entry.Items[0].Name)

	entry = s.Agenda(day(t, "2025-02-01")).Routines[0]
	assert.Len(t, entry.Items, 2)
}

func TestAmbiguousNamesAndReplace(t *testing.T) {
	p := newFakePersister()
	s := newTestStore(t, p)
	ctx := context.Background()
	rec := model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()}

	require.NoError(t, s.Replace(ctx, model.Collection{Habits: []*model.Habit{
		{ID: "a", Name: "Read", Recurrence: rec},
		{ID: "b", Name: "read", Recurrence: rec},
	}}))
	_, err := s.FindHabit("Read")
	assert.ErrorIs(t, err, ErrAmbiguous)
	h, err := s.FindHabit("b")
	require.NoError(t, err)
	assert.Equal(t, "read", h.Name)
	assert.Len(t, p.habits, 2)

	err = s.Replace(ctx, model.Collection{Habits: []*model.Habit{
		{ID: "a", Name: "Read", Recurrence: rec},
		{ID: "a", Name: "Again", Recurrence: rec},
	}})
	assert.ErrorIs(t, err, model.ErrDuplicateID)
	assert.Len(t, s.Habits(), 2)
}

func TestConcurrentToggles(t *testing.T) {
	s := newTestStore(t, newFakePersister())
	ctx := context.Background()
	h, err := s.AddHabit(ctx, "Water", model.Recurrence{Anchor: day(t, "2025-01-01"), Frequency: model.Daily()})
	require.NoError(t, err)

	start := day(t, "2025-01-01")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = s.ToggleHabit(ctx, h.ID, start.AddDays(n))
			_ = s.Agenda(start.AddDays(n))
		}(i)
	}
	wg.Wait()

	got, err := s.FindHabit(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Ledger.Len())
}
