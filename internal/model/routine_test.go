package model

import (
	"errors"
	"testing"
)

func newTestRoutine(t *testing.T, rec Recurrence, items ...RoutineItem) *Routine {
	t.Helper()
	r := &Routine{ID: "routine-1", Name: "Morning", Icon: "sun.max", Color: "orange", Recurrence: rec}
	for _, it := range items {
		if err := r.AddItem(it); err != nil {
			t.Fatalf("add item %s: %v", it.Name, err)
		}
	}
	return r
}

func itemNames(items []RoutineItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestRoutineBiweeklyWithDailyOverride(t *testing.T) {
	daily := Recurrence{Anchor: day(t, "2025-03-01"), Frequency: Daily()}
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-03-01"), Frequency: Biweekly()},
		RoutineItem{ID: "a", Name: "A"},
		RoutineItem{ID: "b", Name: "B", Override: &daily},
	)

	got := itemNames(r.VisibleItems(day(t, "2025-03-15")))
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("visible on 2025-03-15 = %v, want [A B]", got)
	}
	got = itemNames(r.VisibleItems(day(t, "2025-03-08")))
	if len(got) != 1 || got[0] != "B" {
		t.Fatalf("visible on 2025-03-08 = %v, want [B]", got)
	}
	if !r.ShouldAppear(day(t, "2025-03-15")) || r.ShouldAppear(day(t, "2025-03-08")) {
		t.Fatal("routine gate must follow the routine recurrence only")
	}
}

func TestRoutineOverridePrecedence(t *testing.T) {
	anchor := day(t, "2025-01-01")
	weekly := Recurrence{Anchor: anchor, Frequency: Weekly()}
	r := newTestRoutine(t,
		Recurrence{Anchor: anchor, Frequency: Daily()},
		RoutineItem{ID: "inherit", Name: "Stretch"},
		RoutineItem{ID: "own", Name: "Journal", Override: &weekly},
	)

	thursday := day(t, "2025-01-02")
	if got := itemNames(r.VisibleItems(thursday)); len(got) != 1 || got[0] != "Stretch" {
		t.Fatalf("expected only inheriting item on thursday, got %v", got)
	}

	if err := r.SetRecurrence(Recurrence{Anchor: anchor, Frequency: Monthly()}); err != nil {
		t.Fatalf("set recurrence: %v", err)
	}
	if got := itemNames(r.VisibleItems(thursday)); len(got) != 0 {
		t.Fatalf("inheriting item should follow monthly now, got %v", got)
	}
	wednesday := day(t, "2025-01-08")
	if got := itemNames(r.VisibleItems(wednesday)); len(got) != 1 || got[0] != "Journal" {
		t.Fatalf("override must ignore routine change, got %v", got)
	}
}

func TestRoutineEffectiveRecurrenceIsCopy(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "A"},
	)
	eff := r.EffectiveRecurrence(r.Items[0])
	eff.Frequency = Never()
	if r.Recurrence.Frequency.Kind() != KindDaily {
		t.Fatal("effective recurrence must not alias the routine recurrence")
	}
}

func TestRoutineProgress(t *testing.T) {
	anchor := day(t, "2025-01-01")
	never := Recurrence{Anchor: anchor, Frequency: Never()}
	r := newTestRoutine(t,
		Recurrence{Anchor: anchor, Frequency: Daily()},
		RoutineItem{ID: "a", Name: "A"},
		RoutineItem{ID: "b", Name: "B"},
		RoutineItem{ID: "c", Name: "C"},
		RoutineItem{ID: "d", Name: "D", Override: &never},
	)
	d := day(t, "2025-01-05")

	if got := r.Progress(d); got != 0 {
		t.Fatalf("progress before toggles = %v", got)
	}
	r.ToggleItem("A", d)
	r.ToggleItem("C", d)
	if got := r.Progress(d); got != 2.0/3.0 {
		t.Fatalf("progress = %v, want 2/3", got)
	}
	r.ToggleItem("A", d)
	if got := r.Progress(d); got != 1.0/3.0 {
		t.Fatalf("progress after untoggle = %v, want 1/3", got)
	}

	empty := newTestRoutine(t, Recurrence{Anchor: anchor, Frequency: Daily()})
	if got := empty.Progress(d); got != 0 {
		t.Fatalf("empty routine progress = %v", got)
	}
	if got := r.Progress(day(t, "2024-12-31")); got != 0 {
		t.Fatalf("progress before anchor = %v", got)
	}
}

func TestRoutineToggleUnknownItemIsNoop(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "A"},
	)
	d := day(t, "2025-01-02")
	if _, ok := r.ToggleItem("missing", d); ok {
		t.Fatal("expected unknown item toggle to report no match")
	}
	if len(r.Ledger.Dates()) != 0 {
		t.Fatal("unknown item toggle must not touch the ledger")
	}
	if r.IsItemCompleted("missing", d) {
		t.Fatal("unknown item cannot be completed")
	}
}

func TestRoutineRenameKeepsHistoryAndRemoveKeepsLedger(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "Meditate"},
	)
	d := day(t, "2025-01-02")
	if done, ok := r.ToggleItem("Meditate", d); !done || !ok {
		t.Fatalf("toggle = %v, %v", done, ok)
	}
	if err := r.RenameItem("a", "Breathe"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if !r.IsItemCompleted("Breathe", d) {
		t.Fatal("rename must keep completion history")
	}
	if err := r.RemoveItem("a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !r.Ledger.IsCompleted("a", d) {
		t.Fatal("removing an item must not purge its ledger entries")
	}
	if err := r.RemoveItem("a"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRoutineMoveItem(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "A"},
		RoutineItem{ID: "b", Name: "B"},
		RoutineItem{ID: "c", Name: "C"},
		RoutineItem{ID: "d", Name: "D"},
	)
	if err := r.MoveItem(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := itemNames(r.Items); got[0] != "B" || got[1] != "C" || got[2] != "A" || got[3] != "D" {
		t.Fatalf("after move 0->2: %v", got)
	}
	if err := r.MoveItem(3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := itemNames(r.Items); got[0] != "D" || got[1] != "B" || got[2] != "C" || got[3] != "A" {
		t.Fatalf("after move 3->0: %v", got)
	}
	if got := itemNames(r.VisibleItems(day(t, "2025-01-03"))); got[0] != "D" || got[3] != "A" {
		t.Fatalf("visible order must follow list order: %v", got)
	}
	if err := r.MoveItem(0, 4); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestRoutineItemOverrideSetAndClear(t *testing.T) {
	anchor := day(t, "2025-01-01")
	r := newTestRoutine(t, Recurrence{Anchor: anchor, Frequency: Daily()}, RoutineItem{ID: "a", Name: "A"})
	weekly := Recurrence{Anchor: anchor, Frequency: Weekly()}
	if err := r.SetItemOverride("a", &weekly); err != nil {
		t.Fatalf("set override: %v", err)
	}
	weekly.Frequency = Daily()
	if r.Items[0].Override.Frequency.Kind() != KindWeekly {
		t.Fatal("override must be copied on set")
	}
	if len(r.VisibleItems(day(t, "2025-01-02"))) != 0 {
		t.Fatal("weekly override should hide item on thursday")
	}
	if err := r.SetItemOverride("a", nil); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if len(r.VisibleItems(day(t, "2025-01-02"))) != 1 {
		t.Fatal("cleared override should inherit daily")
	}
	bad := Recurrence{Anchor: anchor, Frequency: Custom(CustomRule{Unit: UnitDay})}
	if err := r.SetItemOverride("a", &bad); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestRoutineValidateAndClone(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "A"},
	)
	if err := r.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := r.AddItem(RoutineItem{ID: "a", Name: "Again"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	c := r.Clone()
	c.ToggleItem("A", day(t, "2025-01-02"))
	c.Items[0].Name = "Changed"
	if r.IsItemCompleted("A", day(t, "2025-01-02")) || r.Items[0].Name != "A" {
		t.Fatal("clone must not share items or ledger")
	}

	r.Name = " "
	if err := r.Validate(); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestRoutineItemNamesAreUnique(t *testing.T) {
	r := newTestRoutine(t,
		Recurrence{Anchor: day(t, "2025-01-01"), Frequency: Daily()},
		RoutineItem{ID: "a", Name: "Floss"},
		RoutineItem{ID: "b", Name: "Tea"},
	)
	if err := r.AddItem(RoutineItem{ID: "c", Name: "floss"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName on add, got %v", err)
	}
	if err := r.RenameItem("b", "FLOSS"); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName on rename, got %v", err)
	}
	if err := r.RenameItem("a", "floss"); err != nil {
		t.Fatalf("recasing an item's own name: %v", err)
	}
	if len(r.Items) != 2 || r.Items[1].Name != "Tea" {
		t.Fatalf("rejected edits must leave items unchanged, got %v", itemNames(r.Items))
	}

	d := day(t, "2025-01-02")
	if done, ok := r.ToggleItem("Tea", d); !done || !ok {
		t.Fatalf("toggle = %v, %v", done, ok)
	}
	if r.IsItemCompleted("floss", d) || !r.Ledger.IsCompleted("b", d) {
		t.Fatal("toggle by name must reach exactly the named item")
	}
}
