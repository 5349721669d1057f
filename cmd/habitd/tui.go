package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/habitd/internal/logging"
	"github.com/sandeepkv93/habitd/internal/scheduler"
	"github.com/sandeepkv93/habitd/internal/update"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive agenda",
		Args:  cobra.NoArgs,
		RunE:  a.runTUI,
	}
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to the program; log to the configured file only.
	logger, err := logging.ForTUI(a.cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger

	return a.withSession(cmd, func(ctx context.Context, s *session) error {
		engine := scheduler.NewEngine(a.cfg.Scheduler.Buffer)
		engine.Start()
		defer engine.Stop()
		at, err := engine.ScheduleRollover(a.now())
		if err != nil {
			return fmt.Errorf("failed to schedule rollover: %w", err)
		}
		logger.Debug("Rollover scheduled", zap.Time("at", at))

		m := update.NewModel(s.store, update.Options{
			Context:       ctx,
			Scheduler:     engine,
			Logger:        logger,
			Now:           a.now,
			PreviewCount:  a.cfg.UI.PreviewCount,
			MarkdownStyle: a.cfg.UI.MarkdownStyle,
		})
		program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("habitd failed: %w", err)
		}
		return nil
	})
}
