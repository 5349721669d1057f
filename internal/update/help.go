package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/habitd/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var md strings.Builder
	md.WriteString("### Palette commands\n\n")
	for _, kb := range paletteBindings() {
		md.WriteString(fmt.Sprintf("- `%s` %s\n", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: []string{views.RenderMarkdown(md.String(), m.markdownStyle)},
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Down + "/" + m.Keys.Up, Action: "move selection"},
		{Key: "space", Action: "toggle done on the shown day"},
		{Key: m.Keys.Prev + "/" + m.Keys.Next, Action: "previous/next day"},
		{Key: m.Keys.Today, Action: "jump to today"},
		{Key: m.Keys.Preview, Action: "toggle upcoming dates"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func paletteBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "habit <name>", Action: "add a daily habit starting on the shown day"},
		{Key: "routine <name>", Action: "add a daily routine starting on the shown day"},
		{Key: "item <name>", Action: "add an item to the selected routine"},
		{Key: "rename <name>", Action: "rename the selection"},
		{Key: "freq daily|weekly|biweekly|monthly|yearly|never", Action: "change frequency"},
		{Key: "freq every <n> <unit>", Action: "custom interval"},
		{Key: "freq custom on mon,thu", Action: "custom weekdays"},
		{Key: "freq inherit", Action: "drop the item override"},
		{Key: "until <date>|never", Action: "set the end date"},
		{Key: "goto today|+N|-N|<date>", Action: "move the agenda"},
		{Key: "delete", Action: "delete the selection"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
