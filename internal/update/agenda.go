package update

import (
	"fmt"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/views"
)

func (m Model) renderAgenda() string {
	selected, _ := m.Selected()
	data := views.AgendaPanelData{
		Date:    m.Date.String(),
		IsToday: m.Date.Equal(m.Today),
	}
	for _, h := range m.Agenda.Habits {
		data.Habits = append(data.Habits, views.HabitRowData{
			Name:      h.Name,
			Frequency: h.Frequency,
			Done:      h.Done,
			Selected:  selected.Kind == RowHabit && selected.HabitID == h.ID,
		})
	}
	for _, r := range m.Agenda.Routines {
		rd := views.RoutineRowData{
			Name:         r.Name,
			Icon:         r.Icon,
			Color:        r.Color,
			Scheduled:    r.Scheduled,
			Done:         r.Done,
			Total:        len(r.Items),
			ProgressView: m.progressBar.ViewAs(r.Progress),
			Selected:     selected.Kind == RowRoutine && selected.RoutineID == r.ID,
		}
		for _, it := range r.Items {
			rd.Items = append(rd.Items, views.ItemRowData{
				Name:      it.Name,
				Inherited: it.Inherited,
				Done:      it.Done,
				Selected:  selected.Kind == RowItem && selected.RoutineID == r.ID && selected.ItemID == it.ID,
			})
		}
		data.Routines = append(data.Routines, rd)
	}
	return views.RenderAgendaPanel(data)
}

// selectedRecurrence returns the rule that decides when the selected row is
// due. Items report their effective recurrence.
func (m Model) selectedRecurrence(row Row) (string, model.Recurrence, bool) {
	switch row.Kind {
	case RowHabit:
		h, err := m.store.FindHabit(row.HabitID)
		if err != nil {
			return "", model.Recurrence{}, false
		}
		return h.Name, h.Recurrence, true
	case RowRoutine, RowItem:
		r, err := m.store.FindRoutine(row.RoutineID)
		if err != nil {
			return "", model.Recurrence{}, false
		}
		if row.Kind == RowRoutine {
			return r.Name, r.Recurrence, true
		}
		it, ok := r.Item(row.ItemID)
		if !ok {
			return "", model.Recurrence{}, false
		}
		return fmt.Sprintf("%s / %s", r.Name, it.Name), r.EffectiveRecurrence(it), true
	}
	return "", model.Recurrence{}, false
}

func (m Model) renderPreview() string {
	row, ok := m.Selected()
	if !ok {
		return views.RenderPreviewPanel(views.PreviewPanelData{})
	}
	title, rec, ok := m.selectedRecurrence(row)
	if !ok {
		return views.RenderPreviewPanel(views.PreviewPanelData{})
	}
	data := views.PreviewPanelData{
		Title:      title,
		Recurrence: fmt.Sprintf("%s from %s, until %s", rec.Frequency, rec.Anchor, rec.EndRepeat),
	}
	for _, d := range rec.Upcoming(m.Date, m.previewCount) {
		data.Dates = append(data.Dates, d.Time().Format("Mon 2006-01-02"))
	}
	return views.RenderPreviewPanel(data)
}

func (m Model) selectedName(row Row) string {
	name, _, ok := m.selectedRecurrence(row)
	if !ok {
		return "selection"
	}
	return name
}
