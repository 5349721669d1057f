package store

import "github.com/sandeepkv93/habitd/internal/model"

type HabitEntry struct {
	ID        string
	Name      string
	Frequency string
	Done      bool
}

type ItemEntry struct {
	ID        string
	Name      string
	Inherited bool
	Done      bool
}

// RoutineEntry lists the items of a routine visible on the agenda date.
// Scheduled is the routine's own gate; a routine can be listed unscheduled
// when an item with an override is due.
type RoutineEntry struct {
	ID        string
	Name      string
	Icon      string
	Color     string
	Scheduled bool
	Items     []ItemEntry
	Done      int
	Progress  float64
}

type Agenda struct {
	Date     model.Date
	Habits   []HabitEntry
	Routines []RoutineEntry
}

func (a Agenda) Empty() bool {
	return len(a.Habits) == 0 && len(a.Routines) == 0
}

// Agenda builds the view of d: due habits, and routines that are scheduled
// or have at least one visible item.
func (s *Store) Agenda(d model.Date) Agenda {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Agenda{Date: d}
	for _, h := range s.habits {
		if !h.ShouldAppear(d) {
			continue
		}
		out.Habits = append(out.Habits, HabitEntry{
			ID:        h.ID,
			Name:      h.Name,
			Frequency: h.Recurrence.Frequency.String(),
			Done:      h.IsCompleted(d),
		})
	}
	for _, r := range s.routines {
		visible := r.VisibleItems(d)
		scheduled := r.ShouldAppear(d)
		if !scheduled && len(visible) == 0 {
			continue
		}
		entry := RoutineEntry{
			ID:        r.ID,
			Name:      r.Name,
			Icon:      r.Icon,
			Color:     r.Color,
			Scheduled: scheduled,
			Progress:  r.Progress(d),
		}
		for _, it := range visible {
			done := r.IsItemIDCompleted(it.ID, d)
			if done {
				entry.Done++
			}
			entry.Items = append(entry.Items, ItemEntry{
				ID:        it.ID,
				Name:      it.Name,
				Inherited: it.Override == nil,
				Done:      done,
			})
		}
		out.Routines = append(out.Routines, entry)
	}
	return out
}
