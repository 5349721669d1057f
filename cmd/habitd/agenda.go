package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/store"
	"github.com/sandeepkv93/habitd/internal/views"
	"github.com/spf13/cobra"
)

func (a *app) todayCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print the habits and routine items due on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today := a.today()
			d, err := parseDateFlag(date, today)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(_ context.Context, s *session) error {
				agenda := s.store.Agenda(d)
				fmt.Fprintln(cmd.OutOrStdout(), renderAgenda(agenda, d.Equal(today)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to show YYYY-MM-DD (default: today)")
	return cmd
}

func renderAgenda(agenda store.Agenda, isToday bool) string {
	data := views.AgendaPanelData{Date: agenda.Date.String(), IsToday: isToday}
	for _, h := range agenda.Habits {
		data.Habits = append(data.Habits, views.HabitRowData{Name: h.Name, Frequency: h.Frequency, Done: h.Done})
	}
	for _, r := range agenda.Routines {
		rd := views.RoutineRowData{
			Name:         r.Name,
			Icon:         r.Icon,
			Color:        r.Color,
			Scheduled:    r.Scheduled,
			Done:         r.Done,
			Total:        len(r.Items),
			ProgressView: fmt.Sprintf("%3.0f%%", r.Progress*100),
		}
		for _, it := range r.Items {
			rd.Items = append(rd.Items, views.ItemRowData{Name: it.Name, Inherited: it.Inherited, Done: it.Done})
		}
		data.Routines = append(data.Routines, rd)
	}
	return views.RenderAgendaPanel(data)
}

func (a *app) previewCmd() *cobra.Command {
	var (
		item  string
		from  string
		count int
	)
	cmd := &cobra.Command{
		Use:   "preview <habit-or-routine>",
		Short: "List the next dates a habit, routine or item is due",
		Example: `  habitd preview Run --count 10
  habitd preview "Deep clean" --item Laundry --from 2025-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDateFlag(from, a.today())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = a.cfg.UI.PreviewCount
			}
			if count < 1 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			return a.withSession(cmd, func(_ context.Context, s *session) error {
				title, rec, err := findRecurrence(s.store, args[0], item)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %s\n", title, describeRecurrence(rec))
				dates := rec.Upcoming(start, count)
				if len(dates) == 0 {
					fmt.Fprintln(out, "  no upcoming dates")
					return nil
				}
				for _, d := range dates {
					fmt.Fprintf(out, "  %s %s\n", d, d.Weekday().String()[:3])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&item, "item", "", "preview an item of the routine instead")
	cmd.Flags().StringVar(&from, "from", "", "first day to consider YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&count, "count", 5, "number of dates to list (default: ui.preview_count)")
	return cmd
}

// findRecurrence looks ref up as a habit first, then as a routine.
func findRecurrence(st *store.Store, ref, item string) (string, model.Recurrence, error) {
	if item == "" {
		h, err := st.FindHabit(ref)
		if err == nil {
			return h.Name, h.Recurrence, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", model.Recurrence{}, err
		}
		r, err := st.FindRoutine(ref)
		if err != nil {
			return "", model.Recurrence{}, fmt.Errorf("no habit or routine %q: %w", ref, err)
		}
		return r.Name, r.Recurrence, nil
	}
	r, it, err := st.FindItem(ref, item)
	if err != nil {
		return "", model.Recurrence{}, err
	}
	return r.Name + " / " + it.Name, r.EffectiveRecurrence(it), nil
}
