package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/spf13/cobra"
)

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func (a *app) habitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
		Long: `Add, edit and check off single-step habits.

Habits are referenced by id or by name (case-insensitive).`,
	}
	cmd.AddCommand(a.habitAddCmd())
	cmd.AddCommand(a.habitListCmd())
	cmd.AddCommand(a.habitRenameCmd())
	cmd.AddCommand(a.habitDeleteCmd())
	cmd.AddCommand(a.habitToggleCmd())
	cmd.AddCommand(a.habitFreqCmd())
	return cmd
}

func (a *app) habitAddCmd() *cobra.Command {
	var rf recurrenceFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit",
		Example: `  habitd habit add "Drink water"
  habitd habit add Run --freq custom --on mon,wed,fri
  habitd habit add "Water plants" --every 3 --unit day --start 2025-03-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := rf.build(a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				h, err := s.store.AddHabit(ctx, strings.Join(args, " "), rec)
				if err != nil {
					return fmt.Errorf("failed to add habit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added habit %q (%s), %s from %s\n", h.Name, h.ID, h.Recurrence.Frequency, h.Recurrence.Anchor)
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func (a *app) habitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(_ context.Context, s *session) error {
				habits := s.store.Habits()
				out := cmd.OutOrStdout()
				if len(habits) == 0 {
					fmt.Fprintln(out, "No habits yet. Use 'habitd habit add' to create one.")
					return nil
				}
				today := a.today()
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tableHeaderStyle.Render("ID"),
					tableHeaderStyle.Render("NAME"),
					tableHeaderStyle.Render("FREQUENCY"),
					tableHeaderStyle.Render("START"),
					tableHeaderStyle.Render("UNTIL"),
					tableHeaderStyle.Render("TODAY"))
				for _, h := range habits {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						h.ID, h.Name, h.Recurrence.Frequency, h.Recurrence.Anchor, h.Recurrence.EndRepeat,
						dayState(h.ShouldAppear(today), h.IsCompleted(today)))
				}
				return w.Flush()
			})
		},
	}
}

func (a *app) habitRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <habit> <new name>",
		Short: "Rename a habit",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.RenameHabit(ctx, args[0], name); err != nil {
					return fmt.Errorf("failed to rename habit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed habit to %q\n", name)
				return nil
			})
		},
	}
}

func (a *app) habitDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <habit>",
		Aliases: []string{"rm"},
		Short:   "Delete a habit and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.DeleteHabit(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete habit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted habit %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) habitToggleCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <habit>",
		Short: "Flip a habit's completion for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date, a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				done, err := s.store.ToggleHabit(ctx, args[0], d)
				if err != nil {
					return fmt.Errorf("failed to toggle habit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s for %s\n", args[0], doneWord(done), d)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to toggle YYYY-MM-DD (default: today)")
	return cmd
}

func (a *app) habitFreqCmd() *cobra.Command {
	var rf recurrenceFlags
	cmd := &cobra.Command{
		Use:   "freq <habit>",
		Short: "Change a habit's recurrence",
		Long: `Change a habit's recurrence. Only the flags given are changed; the
completion history is kept.`,
		Example: `  habitd habit freq Run --freq weekly
  habitd habit freq Run --until 2025-12-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rf.anyChanged(cmd) {
				return fmt.Errorf("nothing to change: pass --freq, --every, --on, --start or --until")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				h, err := s.store.FindHabit(args[0])
				if err != nil {
					return fmt.Errorf("failed to find habit: %w", err)
				}
				rec, err := rf.apply(cmd, h.Recurrence)
				if err != nil {
					return err
				}
				if err := s.store.SetHabitRecurrence(ctx, h.ID, rec); err != nil {
					return fmt.Errorf("failed to update habit: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now repeats %s\n", h.Name, describeRecurrence(rec))
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func dayState(due, done bool) string {
	switch {
	case done:
		return "done"
	case due:
		return "due"
	default:
		return "-"
	}
}

func doneWord(done bool) string {
	if done {
		return "done"
	}
	return "not done"
}

func describeRecurrence(r model.Recurrence) string {
	return fmt.Sprintf("%s from %s until %s", r.Frequency, r.Anchor, r.EndRepeat)
}
