package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/commands"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/store"
	"go.uber.org/zap"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, m.paletteHandlers())
	if err != nil {
		m.logger.Debug("Palette command failed", zap.String("command", raw), zap.Error(err))
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.refresh()
		return m
	}
	m.Status = StatusBar{Text: res.Message}
	m.refresh()
	return m
}

// paletteHandlers binds palette commands to the store. New entries start on
// the shown date with a daily rule; edits apply to the selected row.
func (m *Model) paletteHandlers() commands.Handlers {
	return commands.Handlers{
		Habit: func(a commands.NameArgs) (commands.Result, error) {
			h, err := m.store.AddHabit(m.ctx, a.Name, m.defaultRecurrence())
			if err != nil {
				return commands.Result{}, err
			}
			m.focus(Row{Kind: RowHabit, HabitID: h.ID})
			return commands.Result{Message: fmt.Sprintf("added habit: %s", h.Name)}, nil
		},
		Routine: func(a commands.NameArgs) (commands.Result, error) {
			r, err := m.store.AddRoutine(m.ctx, store.RoutineSpec{
				Name:       a.Name,
				Color:      "blue",
				Recurrence: m.defaultRecurrence(),
			})
			if err != nil {
				return commands.Result{}, err
			}
			m.focus(Row{Kind: RowRoutine, RoutineID: r.ID})
			return commands.Result{Message: fmt.Sprintf("added routine: %s", r.Name)}, nil
		},
		Item: func(a commands.NameArgs) (commands.Result, error) {
			row, ok := m.Selected()
			if !ok || row.Kind == RowHabit {
				return commands.Result{}, invalid("select a routine to add items to")
			}
			it, err := m.store.AddItem(m.ctx, row.RoutineID, a.Name, nil)
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added item: %s", it.Name)}, nil
		},
		Rename: func(a commands.NameArgs) (commands.Result, error) {
			row, ok := m.Selected()
			if !ok {
				return commands.Result{}, invalid("nothing selected")
			}
			var err error
			switch row.Kind {
			case RowHabit:
				err = m.store.RenameHabit(m.ctx, row.HabitID, a.Name)
			case RowRoutine:
				err = m.store.RenameRoutine(m.ctx, row.RoutineID, a.Name)
			case RowItem:
				err = m.store.RenameItem(m.ctx, row.RoutineID, row.ItemID, a.Name)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("renamed to %s", a.Name)}, nil
		},
		Freq: func(a commands.FreqArgs) (commands.Result, error) {
			row, ok := m.Selected()
			if !ok {
				return commands.Result{}, invalid("nothing selected")
			}
			if a.Inherit {
				if row.Kind != RowItem {
					return commands.Result{}, invalid("only routine items can inherit")
				}
				if err := m.store.SetItemOverride(m.ctx, row.RoutineID, row.ItemID, nil); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "item now follows its routine"}, nil
			}
			freq, err := a.Frequency()
			if err != nil {
				return commands.Result{}, invalid(err.Error())
			}
			if err := m.editRecurrence(row, func(rec *model.Recurrence) { rec.Frequency = freq }); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("frequency set to %s", freq)}, nil
		},
		Until: func(a commands.UntilArgs) (commands.Result, error) {
			row, ok := m.Selected()
			if !ok {
				return commands.Result{}, invalid("nothing selected")
			}
			end := a.EndRepeat()
			if err := m.editRecurrence(row, func(rec *model.Recurrence) { rec.EndRepeat = end }); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("ends %s", end)}, nil
		},
		Goto: func(a commands.GotoArgs) (commands.Result, error) {
			m.setDate(a.Resolve(m.Date, m.Today))
			return commands.Result{Message: fmt.Sprintf("showing %s", m.Date)}, nil
		},
		Delete: func() (commands.Result, error) {
			row, ok := m.Selected()
			if !ok {
				return commands.Result{}, invalid("nothing selected")
			}
			name := m.selectedName(row)
			var err error
			switch row.Kind {
			case RowHabit:
				err = m.store.DeleteHabit(m.ctx, row.HabitID)
			case RowRoutine:
				err = m.store.DeleteRoutine(m.ctx, row.RoutineID)
			case RowItem:
				err = m.store.RemoveItem(m.ctx, row.RoutineID, row.ItemID)
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("deleted %s", name)}, nil
		},
	}
}

func (m Model) defaultRecurrence() model.Recurrence {
	return model.Recurrence{Anchor: m.Date, Frequency: model.Daily(), EndRepeat: model.EndNever()}
}

// editRecurrence applies fn to the selected row's rule. An inherited item
// gets an override seeded from its routine's rule.
func (m *Model) editRecurrence(row Row, fn func(*model.Recurrence)) error {
	switch row.Kind {
	case RowHabit:
		h, err := m.store.FindHabit(row.HabitID)
		if err != nil {
			return err
		}
		rec := h.Recurrence.Clone()
		fn(&rec)
		return m.store.SetHabitRecurrence(m.ctx, row.HabitID, rec)
	case RowRoutine:
		r, err := m.store.FindRoutine(row.RoutineID)
		if err != nil {
			return err
		}
		rec := r.Recurrence.Clone()
		fn(&rec)
		return m.store.SetRoutineRecurrence(m.ctx, row.RoutineID, rec)
	case RowItem:
		r, err := m.store.FindRoutine(row.RoutineID)
		if err != nil {
			return err
		}
		it, ok := r.Item(row.ItemID)
		if !ok {
			return store.ErrNotFound
		}
		rec := r.EffectiveRecurrence(it)
		fn(&rec)
		return m.store.SetItemOverride(m.ctx, row.RoutineID, row.ItemID, &rec)
	}
	return invalid("nothing selected")
}

// focus puts the cursor on row after the next refresh if it is listed.
func (m *Model) focus(row Row) {
	m.refresh()
	for i, r := range m.Rows {
		if r == row {
			m.Cursor = i
			return
		}
	}
}

func invalid(msg string) error {
	return &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: msg}
}
