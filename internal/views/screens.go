package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type HabitRowData struct {
	Name      string
	Frequency string
	Done      bool
	Selected  bool
}

type ItemRowData struct {
	Name      string
	Inherited bool
	Done      bool
	Selected  bool
}

type RoutineRowData struct {
	Name         string
	Icon         string
	Color        string
	Scheduled    bool
	Done         int
	Total        int
	ProgressView string
	Selected     bool
	Items        []ItemRowData
}

type AgendaPanelData struct {
	Date     string
	IsToday  bool
	Habits   []HabitRowData
	Routines []RoutineRowData
}

type PreviewPanelData struct {
	Title      string
	Recurrence string
	Dates      []string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

// routineColors maps stored color names to terminal palette entries.
var routineColors = map[string]string{
	"red":    "9",
	"orange": "208",
	"yellow": "11",
	"green":  "10",
	"blue":   "12",
	"purple": "13",
	"pink":   "212",
	"teal":   "14",
	"gray":   "8",
}

func ColorSwatch(name string) string {
	code, ok := routineColors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		code = routineColors["blue"]
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(code)).Render("●")
}

func RenderAgendaPanel(data AgendaPanelData) string {
	var b strings.Builder
	title := "agenda: " + data.Date
	if data.IsToday {
		title += " (today)"
	}
	b.WriteString(title + "\n")

	b.WriteString("\nhabits:\n")
	if len(data.Habits) == 0 {
		b.WriteString(mutedStyle.Render("  (none due)") + "\n")
	}
	for _, h := range data.Habits {
		line := fmt.Sprintf("%s %s", checkbox(h.Done), h.Name)
		if h.Done {
			line = fmt.Sprintf("%s %s", checkbox(true), doneStyle.Render(h.Name))
		}
		b.WriteString(cursor(h.Selected) + line + " " + mutedStyle.Render(h.Frequency) + "\n")
	}

	b.WriteString("\nroutines:\n")
	if len(data.Routines) == 0 {
		b.WriteString(mutedStyle.Render("  (none due)") + "\n")
	}
	for _, r := range data.Routines {
		head := fmt.Sprintf("%s %s %s %d/%d", ColorSwatch(r.Color), strings.TrimSpace(r.Icon+" "+r.Name), r.ProgressView, r.Done, r.Total)
		if !r.Scheduled {
			head += " " + mutedStyle.Render("(items only)")
		}
		b.WriteString(cursor(r.Selected) + head + "\n")
		for _, it := range r.Items {
			name := it.Name
			if it.Done {
				name = doneStyle.Render(name)
			}
			if !it.Inherited {
				name += " " + mutedStyle.Render("*")
			}
			b.WriteString(cursor(it.Selected) + "    " + checkbox(it.Done) + " " + name + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderPreviewPanel(data PreviewPanelData) string {
	var b strings.Builder
	b.WriteString("upcoming:\n")
	if data.Title == "" {
		b.WriteString("(no selection)")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%s\n%s\n", data.Title, mutedStyle.Render(data.Recurrence)))
	if len(data.Dates) == 0 {
		b.WriteString("(no upcoming dates)")
		return b.String()
	}
	for _, d := range data.Dates {
		b.WriteString("- " + d + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func cursor(selected bool) string {
	if selected {
		return cursorStyle.Render("> ")
	}
	return "  "
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
