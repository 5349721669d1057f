package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/scheduler"
	"github.com/sandeepkv93/habitd/internal/store"
	"go.uber.org/zap"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Up      string
	Down    string
	Toggle  string
	Prev    string
	Next    string
	Today   string
	Preview string
	Palette string
	Help    string
	Quit    string
}

type RowKind int

const (
	RowHabit RowKind = iota
	RowRoutine
	RowItem
)

// Row is one selectable line of the agenda.
type Row struct {
	Kind      RowKind
	HabitID   string
	RoutineID string
	ItemID    string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Options struct {
	Context       context.Context
	Scheduler     *scheduler.Engine
	Logger        *zap.Logger
	Now           func() time.Time
	PreviewCount  int
	MarkdownStyle string
}

type Model struct {
	Date        model.Date
	Today       model.Date
	Agenda      store.Agenda
	Rows        []Row
	Cursor      int
	Preview     bool
	HelpVisible bool
	Palette     CommandPaletteState
	Status      StatusBar
	Keys        GlobalKeyMap
	Scheduler   *scheduler.Engine
	Quitting    bool
	LastError   error

	ctx           context.Context
	store         *store.Store
	logger        *zap.Logger
	now           func() time.Time
	previewCount  int
	markdownStyle string

	commandInput textinput.Model
	helpModel    help.Model
	progressBar  progress.Model
}

func DefaultKeys() GlobalKeyMap {
	return GlobalKeyMap{
		Up:      "k",
		Down:    "j",
		Toggle:  " ",
		Prev:    "h",
		Next:    "l",
		Today:   "t",
		Preview: "p",
		Palette: "/",
		Help:    "?",
		Quit:    "q",
	}
}

func NewModel(st *store.Store, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PreviewCount <= 0 {
		opts.PreviewCount = 5
	}
	today := model.DateOf(opts.Now())
	m := Model{
		Date:          today,
		Today:         today,
		Keys:          DefaultKeys(),
		Scheduler:     opts.Scheduler,
		ctx:           opts.Context,
		store:         st,
		logger:        opts.Logger,
		now:           opts.Now,
		previewCount:  opts.PreviewCount,
		markdownStyle: opts.MarkdownStyle,
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.Placeholder = "habit <name> | routine <name> | item <name> | freq weekly"
	m.commandInput.CharLimit = 120

	m.helpModel = help.New()
	m.helpModel.ShowAll = true

	m.progressBar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(12), progress.WithoutPercentage())
}

// refresh rebuilds the agenda for the shown date and keeps the cursor on the
// same entity when it is still listed.
func (m *Model) refresh() {
	var prev Row
	hadPrev := m.Cursor >= 0 && m.Cursor < len(m.Rows)
	if hadPrev {
		prev = m.Rows[m.Cursor]
	}

	m.Agenda = m.store.Agenda(m.Date)
	m.Rows = make([]Row, 0, len(m.Rows))
	for _, h := range m.Agenda.Habits {
		m.Rows = append(m.Rows, Row{Kind: RowHabit, HabitID: h.ID})
	}
	for _, r := range m.Agenda.Routines {
		m.Rows = append(m.Rows, Row{Kind: RowRoutine, RoutineID: r.ID})
		for _, it := range r.Items {
			m.Rows = append(m.Rows, Row{Kind: RowItem, RoutineID: r.ID, ItemID: it.ID})
		}
	}

	if hadPrev {
		for i, row := range m.Rows {
			if row == prev {
				m.Cursor = i
				return
			}
		}
	}
	if m.Cursor >= len(m.Rows) {
		m.Cursor = len(m.Rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) Selected() (Row, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return Row{}, false
	}
	return m.Rows[m.Cursor], true
}

func (m *Model) setDate(d model.Date) {
	m.Date = d
	m.Cursor = 0
	m.Rows = nil
	m.refresh()
}
