package model

import "sort"

// HabitLedger records the days a habit was marked done. A missing day means
// not completed.
type HabitLedger struct {
	days map[Date]struct{}
}

func NewHabitLedger(days ...Date) HabitLedger {
	l := HabitLedger{}
	for _, d := range days {
		l.SetCompleted(d, true)
	}
	return l
}

func (l *HabitLedger) IsCompleted(d Date) bool {
	_, ok := l.days[d]
	return ok
}

// Toggle flips d and returns its new state.
func (l *HabitLedger) Toggle(d Date) bool {
	done := !l.IsCompleted(d)
	l.SetCompleted(d, done)
	return done
}

func (l *HabitLedger) SetCompleted(d Date, done bool) {
	if !done {
		delete(l.days, d)
		return
	}
	if l.days == nil {
		l.days = make(map[Date]struct{})
	}
	l.days[d] = struct{}{}
}

// Dates returns the completed days in ascending order.
func (l *HabitLedger) Dates() []Date {
	out := make([]Date, 0, len(l.days))
	for d := range l.days {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

func (l *HabitLedger) Len() int { return len(l.days) }

func (l HabitLedger) Clone() HabitLedger {
	return NewHabitLedger(l.Dates()...)
}

// RoutineLedger maps a day to the set of item keys completed on it. Keys are
// routine item IDs; keys of removed items stay behind untouched.
type RoutineLedger struct {
	days map[Date]map[string]struct{}
}

func (l *RoutineLedger) IsCompleted(key string, d Date) bool {
	_, ok := l.days[d][key]
	return ok
}

func (l *RoutineLedger) Toggle(key string, d Date) bool {
	done := !l.IsCompleted(key, d)
	l.SetCompleted(key, d, done)
	return done
}

func (l *RoutineLedger) SetCompleted(key string, d Date, done bool) {
	if !done {
		set, ok := l.days[d]
		if !ok {
			return
		}
		delete(set, key)
		if len(set) == 0 {
			delete(l.days, d)
		}
		return
	}
	if l.days == nil {
		l.days = make(map[Date]map[string]struct{})
	}
	set, ok := l.days[d]
	if !ok {
		set = make(map[string]struct{})
		l.days[d] = set
	}
	set[key] = struct{}{}
}

// Keys returns the keys completed on d, sorted.
func (l *RoutineLedger) Keys(d Date) []string {
	set := l.days[d]
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dates returns every day with at least one completion, ascending.
func (l *RoutineLedger) Dates() []Date {
	out := make([]Date, 0, len(l.days))
	for d := range l.days {
		out = append(out, d)
	}
	sortDates(out)
	return out
}

// RenameKey moves every completion recorded under from to to.
func (l *RoutineLedger) RenameKey(from, to string) {
	if from == to {
		return
	}
	for _, set := range l.days {
		if _, ok := set[from]; ok {
			delete(set, from)
			set[to] = struct{}{}
		}
	}
}

func (l RoutineLedger) Clone() RoutineLedger {
	out := RoutineLedger{}
	for d, set := range l.days {
		for k := range set {
			out.SetCompleted(k, d, true)
		}
	}
	return out
}

func sortDates(ds []Date) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
}
