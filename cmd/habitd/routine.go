package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sandeepkv93/habitd/internal/migrate"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) routineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Manage routines and their items",
		Long: `Add, edit and check off multi-step routines.

Items follow the routine's recurrence unless they carry an override. Routines
and items are referenced by id or by name (case-insensitive).`,
	}
	cmd.AddCommand(a.routineAddCmd())
	cmd.AddCommand(a.routineListCmd())
	cmd.AddCommand(a.routineRenameCmd())
	cmd.AddCommand(a.routineDeleteCmd())
	cmd.AddCommand(a.routineToggleCmd())
	cmd.AddCommand(a.routineFreqCmd())
	cmd.AddCommand(a.routineStyleCmd())
	cmd.AddCommand(a.itemCmd())
	return cmd
}

func (a *app) routineAddCmd() *cobra.Command {
	var (
		rf    recurrenceFlags
		icon  string
		color string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a routine",
		Example: `  habitd routine add "Morning routine" --icon "☀" --color yellow
  habitd routine add "Deep clean" --freq biweekly --start 2025-03-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := rf.build(a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				r, err := s.store.AddRoutine(ctx, store.RoutineSpec{
					Name:       strings.Join(args, " "),
					Icon:       icon,
					Color:      color,
					Recurrence: rec,
				})
				if err != nil {
					return fmt.Errorf("failed to add routine: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added routine %q (%s), %s from %s\n", r.Name, r.ID, r.Recurrence.Frequency, r.Recurrence.Anchor)
				return nil
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&icon, "icon", "", "icon shown next to the routine")
	cmd.Flags().StringVar(&color, "color", migrate.DefaultColor, "color name")
	return cmd
}

func (a *app) routineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List routines with their items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withSession(cmd, func(_ context.Context, s *session) error {
				routines := s.store.Routines()
				out := cmd.OutOrStdout()
				if len(routines) == 0 {
					fmt.Fprintln(out, "No routines yet. Use 'habitd routine add' to create one.")
					return nil
				}
				today := a.today()
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					tableHeaderStyle.Render("ID"),
					tableHeaderStyle.Render("NAME"),
					tableHeaderStyle.Render("RECURRENCE"),
					tableHeaderStyle.Render("TODAY"))
				for _, r := range routines {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						r.ID, strings.TrimSpace(r.Icon+" "+r.Name), describeRecurrence(r.Recurrence),
						dayState(r.ShouldAppear(today), false))
					for i, it := range r.Items {
						rec := "inherits"
						if it.Override != nil {
							rec = describeRecurrence(*it.Override)
						}
						due := r.EffectiveRecurrence(it).IsDue(today)
						fmt.Fprintf(w, "%s\t  %d. %s\t%s\t%s\n",
							it.ID, i+1, it.Name, rec, dayState(due, r.IsItemIDCompleted(it.ID, today)))
					}
				}
				return w.Flush()
			})
		},
	}
}

func (a *app) routineRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <routine> <new name>",
		Short: "Rename a routine",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.RenameRoutine(ctx, args[0], name); err != nil {
					return fmt.Errorf("failed to rename routine: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed routine to %q\n", name)
				return nil
			})
		},
	}
}

func (a *app) routineDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <routine>",
		Aliases: []string{"rm"},
		Short:   "Delete a routine, its items and its history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.DeleteRoutine(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete routine: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted routine %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) routineToggleCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <routine> <item>",
		Short: "Flip a routine item's completion for a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag(date, a.today())
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				done, err := s.store.ToggleItem(ctx, args[0], args[1], d)
				if err != nil {
					return fmt.Errorf("failed to toggle item: %w", err)
				}
				r, err := s.store.FindRoutine(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %s for %s (%s %.0f%%)\n",
					args[1], doneWord(done), d, r.Name, r.Progress(d)*100)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to toggle YYYY-MM-DD (default: today)")
	return cmd
}

func (a *app) routineFreqCmd() *cobra.Command {
	var rf recurrenceFlags
	cmd := &cobra.Command{
		Use:   "freq <routine>",
		Short: "Change a routine's recurrence",
		Long: `Change a routine's recurrence. Items without an override follow the
new rule; items with an override keep theirs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rf.anyChanged(cmd) {
				return fmt.Errorf("nothing to change: pass --freq, --every, --on, --start or --until")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				r, err := s.store.FindRoutine(args[0])
				if err != nil {
					return fmt.Errorf("failed to find routine: %w", err)
				}
				rec, err := rf.apply(cmd, r.Recurrence)
				if err != nil {
					return err
				}
				if err := s.store.SetRoutineRecurrence(ctx, r.ID, rec); err != nil {
					return fmt.Errorf("failed to update routine: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now repeats %s\n", r.Name, describeRecurrence(rec))
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func (a *app) routineStyleCmd() *cobra.Command {
	var icon, color string
	cmd := &cobra.Command{
		Use:   "style <routine>",
		Short: "Change a routine's icon or color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				r, err := s.store.FindRoutine(args[0])
				if err != nil {
					return fmt.Errorf("failed to find routine: %w", err)
				}
				if cmd.Flags().Changed("icon") {
					r.Icon = icon
				}
				if cmd.Flags().Changed("color") {
					r.Color = color
				}
				if err := s.store.SetRoutineStyle(ctx, r.ID, r.Icon, r.Color); err != nil {
					return fmt.Errorf("failed to update routine: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: icon %q, color %s\n", r.Name, r.Icon, r.Color)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&icon, "icon", "", "icon shown next to the routine")
	cmd.Flags().StringVar(&color, "color", "", "color name")
	return cmd
}

func (a *app) itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a routine",
	}
	cmd.AddCommand(a.itemAddCmd())
	cmd.AddCommand(a.itemRemoveCmd())
	cmd.AddCommand(a.itemRenameCmd())
	cmd.AddCommand(a.itemMoveCmd())
	cmd.AddCommand(a.itemFreqCmd())
	cmd.AddCommand(a.itemInheritCmd())
	return cmd
}

func (a *app) itemAddCmd() *cobra.Command {
	var rf recurrenceFlags
	cmd := &cobra.Command{
		Use:   "add <routine> <name>",
		Short: "Append an item to a routine",
		Long: `Append an item to a routine. Without recurrence flags the item follows
the routine; with any of them it gets its own override.`,
		Example: `  habitd routine item add "Deep clean" Vacuum
  habitd routine item add "Deep clean" Laundry --freq weekly --start 2025-03-01`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				r, err := s.store.FindRoutine(args[0])
				if err != nil {
					return fmt.Errorf("failed to find routine: %w", err)
				}
				var override *model.Recurrence
				if rf.anyChanged(cmd) {
					rec, err := rf.apply(cmd, r.Recurrence)
					if err != nil {
						return err
					}
					override = &rec
				}
				it, err := s.store.AddItem(ctx, r.ID, name, override)
				if err != nil {
					return fmt.Errorf("failed to add item: %w", err)
				}
				follows := "follows the routine"
				if it.Override != nil {
					follows = describeRecurrence(*it.Override)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s (%s), %s\n", it.Name, r.Name, it.ID, follows)
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func (a *app) itemRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <routine> <item>",
		Aliases: []string{"rm"},
		Short:   "Remove an item from a routine",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.RemoveItem(ctx, args[0], args[1]); err != nil {
					return fmt.Errorf("failed to remove item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[0])
				return nil
			})
		},
	}
}

func (a *app) itemRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <routine> <item> <new name>",
		Short: "Rename an item, keeping its history",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[2:], " ")
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.RenameItem(ctx, args[0], args[1], name); err != nil {
					return fmt.Errorf("failed to rename item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[1], name)
				return nil
			})
		},
	}
}

func (a *app) itemMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <routine> <from> <to>",
		Short: "Move an item to another position (1-based)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[2])
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.MoveItem(ctx, args[0], from-1, to-1); err != nil {
					return fmt.Errorf("failed to move item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved item %d to position %d\n", from, to)
				return nil
			})
		},
	}
}

func (a *app) itemFreqCmd() *cobra.Command {
	var rf recurrenceFlags
	cmd := &cobra.Command{
		Use:   "freq <routine> <item>",
		Short: "Give an item its own recurrence",
		Long: `Give an item its own recurrence. The override starts from the item's
current effective rule and only the flags given are changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rf.anyChanged(cmd) {
				return fmt.Errorf("nothing to change: pass --freq, --every, --on, --start or --until")
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				r, it, err := s.store.FindItem(args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to find item: %w", err)
				}
				rec, err := rf.apply(cmd, r.EffectiveRecurrence(it))
				if err != nil {
					return err
				}
				if err := s.store.SetItemOverride(ctx, r.ID, it.ID, &rec); err != nil {
					return fmt.Errorf("failed to update item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now repeats %s\n", it.Name, describeRecurrence(rec))
				return nil
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func (a *app) itemInheritCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inherit <routine> <item>",
		Short: "Drop an item's override so it follows the routine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.SetItemOverride(ctx, args[0], args[1], nil); err != nil {
					return fmt.Errorf("failed to update item: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s now follows %s\n", args[1], args[0])
				return nil
			})
		},
	}
}
