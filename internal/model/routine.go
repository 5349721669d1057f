package model

import (
	"errors"
	"fmt"
	"strings"
)

// RoutineItem is one step of a routine. A nil Override means the item
// follows the routine's own recurrence.
type RoutineItem struct {
	ID       string
	Name     string
	Override *Recurrence
}

func (it RoutineItem) clone() RoutineItem {
	if it.Override != nil {
		r := it.Override.Clone()
		it.Override = &r
	}
	return it
}

type Routine struct {
	ID         string
	Name       string
	Icon       string
	Color      string
	Recurrence Recurrence
	Items      []RoutineItem
	Ledger     RoutineLedger
}

func (r *Routine) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: routine id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if err := r.Recurrence.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Items))
	for _, it := range r.Items {
		if strings.TrimSpace(it.ID) == "" {
			return errors.New("model: routine item id is required")
		}
		if seen[it.ID] {
			return fmt.Errorf("%w: item %s", ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("item %s: %w", it.ID, ErrNameRequired)
		}
		if it.Override != nil {
			if err := it.Override.Validate(); err != nil {
				return fmt.Errorf("item %s: %w", it.ID, err)
			}
		}
	}
	return nil
}

// ShouldAppear gates the routine as a whole, regardless of which items are
// due.
func (r *Routine) ShouldAppear(d Date) bool {
	return r.Recurrence.IsDue(d)
}

// EffectiveRecurrence returns the item's override, or a copy of the routine's
// recurrence when it has none. Fields are never merged.
func (r *Routine) EffectiveRecurrence(it RoutineItem) Recurrence {
	if it.Override != nil {
		return it.Override.Clone()
	}
	return r.Recurrence.Clone()
}

// VisibleItems returns the items due on d in list order.
func (r *Routine) VisibleItems(d Date) []RoutineItem {
	out := make([]RoutineItem, 0, len(r.Items))
	for _, it := range r.Items {
		if r.EffectiveRecurrence(it).IsDue(d) {
			out = append(out, it.clone())
		}
	}
	return out
}

func (r *Routine) Item(id string) (RoutineItem, bool) {
	if i := r.indexOf(id); i >= 0 {
		return r.Items[i].clone(), true
	}
	return RoutineItem{}, false
}

// ItemByName returns the item called name. AddItem and RenameItem keep item
// names unique within a routine.
func (r *Routine) ItemByName(name string) (RoutineItem, bool) {
	for _, it := range r.Items {
		if it.Name == name {
			return it.clone(), true
		}
	}
	return RoutineItem{}, false
}

// IsItemCompleted reports completion of the item currently called name.
func (r *Routine) IsItemCompleted(name string, d Date) bool {
	it, ok := r.ItemByName(name)
	if !ok {
		return false
	}
	return r.Ledger.IsCompleted(it.ID, d)
}

// ToggleItem flips the item called name on d. The second result is false,
// and nothing changes, when no such item exists.
func (r *Routine) ToggleItem(name string, d Date) (bool, bool) {
	it, ok := r.ItemByName(name)
	if !ok {
		return false, false
	}
	return r.Ledger.Toggle(it.ID, d), true
}

func (r *Routine) IsItemIDCompleted(id string, d Date) bool {
	return r.Ledger.IsCompleted(id, d)
}

func (r *Routine) ToggleItemID(id string, d Date) (bool, bool) {
	if r.indexOf(id) < 0 {
		return false, false
	}
	return r.Ledger.Toggle(id, d), true
}

// Progress is the completed share of the items visible on d, or 0 when none
// are visible.
func (r *Routine) Progress(d Date) float64 {
	visible := r.VisibleItems(d)
	if len(visible) == 0 {
		return 0
	}
	done := 0
	for _, it := range visible {
		if r.Ledger.IsCompleted(it.ID, d) {
			done++
		}
	}
	return float64(done) / float64(len(visible))
}

func (r *Routine) AddItem(it RoutineItem) error {
	it.Name = strings.TrimSpace(it.Name)
	if it.Name == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(it.ID) == "" {
		return errors.New("model: routine item id is required")
	}
	if r.indexOf(it.ID) >= 0 {
		return fmt.Errorf("%w: item %s", ErrDuplicateID, it.ID)
	}
	if r.nameTaken(it.Name, "") {
		return fmt.Errorf("%w: %q", ErrDuplicateName, it.Name)
	}
	if it.Override != nil {
		if err := it.Override.Validate(); err != nil {
			return err
		}
	}
	r.Items = append(r.Items, it.clone())
	return nil
}

// RemoveItem drops the item. Its completions stay in the ledger.
func (r *Routine) RemoveItem(id string) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	r.Items = append(r.Items[:i], r.Items[i+1:]...)
	return nil
}

func (r *Routine) RenameItem(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if r.nameTaken(name, id) {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.Items[i].Name = name
	return nil
}

// MoveItem moves the item at index from to index to, shifting the others.
func (r *Routine) MoveItem(from, to int) error {
	n := len(r.Items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("model: move %d -> %d out of range for %d items", from, to, n)
	}
	if from == to {
		return nil
	}
	it := r.Items[from]
	r.Items = append(r.Items[:from], r.Items[from+1:]...)
	r.Items = append(r.Items[:to], append([]RoutineItem{it}, r.Items[to:]...)...)
	return nil
}

// SetItemOverride sets or, with nil, clears an item's own recurrence.
func (r *Routine) SetItemOverride(id string, rec *Recurrence) error {
	i := r.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if rec == nil {
		r.Items[i].Override = nil
		return nil
	}
	if err := rec.Validate(); err != nil {
		return err
	}
	c := rec.Clone()
	r.Items[i].Override = &c
	return nil
}

// SetRecurrence changes the routine gate and the fallback for items without
// an override.
func (r *Routine) SetRecurrence(rec Recurrence) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	r.Recurrence = rec.Clone()
	return nil
}

func (r *Routine) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	r.Name = name
	return nil
}

func (r *Routine) Clone() *Routine {
	out := *r
	out.Recurrence = r.Recurrence.Clone()
	out.Items = make([]RoutineItem, 0, len(r.Items))
	for _, it := range r.Items {
		out.Items = append(out.Items, it.clone())
	}
	out.Ledger = r.Ledger.Clone()
	return &out
}

// nameTaken reports whether an item other than except is called name.
func (r *Routine) nameTaken(name, except string) bool {
	for _, it := range r.Items {
		if it.ID != except && strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

func (r *Routine) indexOf(id string) int {
	for i, it := range r.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Collection is the full set of aggregates loaded and saved together.
type Collection struct {
	Habits   []*Habit
	Routines []*Routine
}

func (c Collection) Validate() error {
	seen := make(map[string]bool, len(c.Habits)+len(c.Routines))
	for _, h := range c.Habits {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("habit %q: %w", h.ID, err)
		}
		if seen[h.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, h.ID)
		}
		seen[h.ID] = true
	}
	for _, r := range c.Routines {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("routine %q: %w", r.ID, err)
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
