package update

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/scheduler"
	"github.com/sandeepkv93/habitd/internal/views"
	"go.uber.org/zap"
)

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// GotoDateMsg moves the agenda to Date.
type GotoDateMsg struct {
	Date model.Date
}

// SchedulerEventMsg carries an event fired by the scheduler engine.
type SchedulerEventMsg struct {
	Event scheduler.Event
}

func (m Model) Init() tea.Cmd {
	if m.Scheduler != nil {
		return waitForEventCmd(m.Scheduler.C())
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			next := m.handlePaletteKey(typed)
			return next, nil
		}
		return m.handleAgendaKey(typed)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case GotoDateMsg:
		m.setDate(typed.Date)
		return m, nil
	case SchedulerEventMsg:
		m = m.handleSchedulerEvent(typed.Event)
		if m.Scheduler != nil {
			return m, waitForEventCmd(m.Scheduler.C())
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleAgendaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	case m.Keys.Palette:
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.Status = StatusBar{Text: "command palette active"}
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		if m.HelpVisible {
			m.Status = StatusBar{Text: "help shown"}
		} else {
			m.Status = StatusBar{Text: "help hidden"}
		}
	case "up", m.Keys.Up:
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", m.Keys.Down:
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
	case "left", m.Keys.Prev:
		m.setDate(m.Date.AddDays(-1))
	case "right", m.Keys.Next:
		m.setDate(m.Date.AddDays(1))
	case m.Keys.Today:
		m.setDate(m.Today)
		m.Status = StatusBar{Text: "back to today"}
	case m.Keys.Preview:
		m.Preview = !m.Preview
	case m.Keys.Toggle, "space", "enter":
		m = m.toggleSelected()
	}
	return m, nil
}

// toggleSelected flips completion of the selected habit or routine item on
// the shown date.
func (m Model) toggleSelected() Model {
	row, ok := m.Selected()
	if !ok {
		m.Status = StatusBar{Text: "nothing to toggle"}
		return m
	}
	var (
		done bool
		err  error
	)
	switch row.Kind {
	case RowHabit:
		done, err = m.store.ToggleHabit(m.ctx, row.HabitID, m.Date)
	case RowItem:
		done, err = m.store.ToggleItem(m.ctx, row.RoutineID, row.ItemID, m.Date)
	default:
		m.Status = StatusBar{Text: "select a habit or routine item to toggle"}
		return m
	}
	if err != nil {
		m.LastError = err
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	state := "open"
	if done {
		state = "done"
	}
	m.Status = StatusBar{Text: fmt.Sprintf("%s marked %s for %s", m.selectedName(row), state, m.Date)}
	m.refresh()
	return m
}

// handleSchedulerEvent moves a session that was showing today onto the new
// day at midnight and queues the next rollover.
func (m Model) handleSchedulerEvent(ev scheduler.Event) Model {
	switch ev.Kind {
	case scheduler.KindRollover:
		now := m.now()
		newToday := model.DateOf(now)
		followToday := m.Date.Equal(m.Today)
		m.Today = newToday
		if followToday {
			m.setDate(newToday)
		} else {
			m.refresh()
		}
		m.logger.Info("Day rolled over", zap.String("today", newToday.String()))
		if m.Scheduler != nil {
			if _, err := m.Scheduler.ScheduleRollover(now); err != nil && !errors.Is(err, scheduler.ErrStopped) {
				m.logger.Warn("Failed to schedule rollover", zap.Error(err))
			}
		}
	}
	return m
}

func (m Model) View() string {
	if m.Quitting {
		return "bye\n"
	}

	right := ""
	if m.Preview {
		right = m.renderPreview()
	}
	notification := views.RenderCommandPalette(m.Palette.Active, m.commandInput.Value())
	if m.HelpVisible {
		notification = m.renderHelpView()
	}
	footer := "[j/k]move [space]toggle [h/l]day [t]today [p]preview [/]command [?]help [q]quit"

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("habitd | %s", m.Date.Time().Format("Mon Jan 2 2006")),
		LeftPane:     m.renderAgenda(),
		RightPane:    right,
		StatusLine:   m.Status.Text,
		StatusError:  m.Status.IsError,
		Notification: notification,
		Footer:       footer,
	})
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SchedulerEventMsg{Event: ev}
	}
}
