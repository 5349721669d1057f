package model

import (
	"errors"
	"strings"
)

type Habit struct {
	ID         string
	Name       string
	Recurrence Recurrence
	Ledger     HabitLedger
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return errors.New("model: habit id is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return ErrNameRequired
	}
	return h.Recurrence.Validate()
}

// ShouldAppear reports whether the habit is due on d.
func (h *Habit) ShouldAppear(d Date) bool {
	return h.Recurrence.IsDue(d)
}

func (h *Habit) IsCompleted(d Date) bool {
	return h.Ledger.IsCompleted(d)
}

// Toggle flips completion for d and returns the new state.
func (h *Habit) Toggle(d Date) bool {
	return h.Ledger.Toggle(d)
}

func (h *Habit) SetCompleted(d Date, done bool) {
	h.Ledger.SetCompleted(d, done)
}

func (h *Habit) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	h.Name = name
	return nil
}

// SetRecurrence replaces the rule. Past completions are kept as they are.
func (h *Habit) SetRecurrence(r Recurrence) error {
	if err := r.Validate(); err != nil {
		return err
	}
	h.Recurrence = r.Clone()
	return nil
}

func (h *Habit) Clone() *Habit {
	out := *h
	out.Recurrence = h.Recurrence.Clone()
	out.Ledger = h.Ledger.Clone()
	return &out
}
