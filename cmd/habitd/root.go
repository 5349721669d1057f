package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sandeepkv93/habitd/internal/config"
	"github.com/sandeepkv93/habitd/internal/logging"
	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/sandeepkv93/habitd/internal/storage"
	"github.com/sandeepkv93/habitd/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries what the commands share. Each root command gets its own.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
	now     func() time.Time
}

func newRootCmd() *cobra.Command {
	return newApp(time.Now).rootCmd()
}

func newApp(now func() time.Time) *app {
	return &app{v: viper.New(), logger: zap.NewNop(), now: now}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "habitd",
		Short: "Habits and routines that know which day they are due",
		Long: `habitd tracks recurring habits and multi-step routines.

Each habit or routine carries a recurrence (daily, weekly, biweekly, monthly,
yearly, never or a custom interval) and a per-day completion ledger. Routine
items follow their routine unless they carry their own override.

Running habitd without a subcommand opens the interactive agenda.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.initConfig,
		PersistentPostRunE: a.syncLogger,
		RunE:               a.runTUI,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.config/habitd/config.yaml)")
	root.PersistentFlags().String("db", "", "database path (default: $HOME/.local/share/habitd/habitd.db)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = a.v.BindPFlag("database.path", root.PersistentFlags().Lookup("db"))
	_ = a.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(a.tuiCmd())
	root.AddCommand(a.todayCmd())
	root.AddCommand(a.habitCmd())
	root.AddCommand(a.routineCmd())
	root.AddCommand(a.previewCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.versionCmd())
	return root
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) syncLogger(_ *cobra.Command, _ []string) error {
	// Sync on stderr fails on some terminals; nothing useful to report.
	_ = a.logger.Sync()
	return nil
}

func (a *app) today() model.Date {
	return model.DateOf(a.now())
}

func (a *app) openRepository() (*storage.SQLiteRepository, error) {
	path := a.cfg.Database.Path
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return storage.OpenSQLite(path, a.logger)
}

// session is an open database with the store loaded from it.
type session struct {
	repo  *storage.SQLiteRepository
	store *store.Store
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	repo, err := a.openRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := storage.MigrateUp(repo.DB()); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c, err := repo.LoadCollection(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	st, err := store.New(c, store.WithPersister(repo), store.WithLogger(a.logger))
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	a.logger.Debug("Session opened",
		zap.String("database", a.cfg.Database.Path),
		zap.Int("habits", len(c.Habits)),
		zap.Int("routines", len(c.Routines)))
	return &session{repo: repo, store: st}, nil
}

func (a *app) closeSession(s *session) {
	if err := s.repo.Close(); err != nil {
		a.logger.Error("failed to close storage", zap.Error(err))
	}
}

// withSession opens the store for the duration of fn.
func (a *app) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer a.closeSession(s)
	return fn(ctx, s)
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "habitd %s\n", version)
		},
	}
}
