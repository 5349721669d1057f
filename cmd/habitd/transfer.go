package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/sandeepkv93/habitd/internal/codec"
	"github.com/sandeepkv93/habitd/internal/migrate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) exportCmd() *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every habit and routine to a JSON or YAML document",
		Example: `  habitd export > habits.json
  habitd export --out habits.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(format, outPath)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(_ context.Context, s *session) error {
				var buf bytes.Buffer
				if err := codec.Encode(&buf, s.store.Snapshot(), f); err != nil {
					return fmt.Errorf("failed to encode: %w", err)
				}
				if outPath == "" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				tmp := outPath + ".tmp"
				if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				if err := os.Rename(tmp, outPath); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				a.logger.Info("Exported collection", zap.String("path", outPath), zap.String("format", string(f)))
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from --out extension, else json)")
	cmd.Flags().StringVar(&outPath, "out", "", "file to write (default: stdout)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all habits and routines with a document",
		Long: `Replace all habits and routines with the contents of a JSON or YAML
document. Documents written by older versions are upgraded on the way in:
routine completions keyed by item name move onto item ids.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer file.Close()

			c, err := codec.Decode(file, f, migrate.NewUpgrader())
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			return a.withSession(cmd, func(ctx context.Context, s *session) error {
				if err := s.store.Replace(ctx, c); err != nil {
					return fmt.Errorf("failed to import %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d habits and %d routines\n", len(c.Habits), len(c.Routines))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default: from the file extension)")
	return cmd
}

func resolveFormat(flag, path string) (codec.Format, error) {
	if flag != "" {
		return codec.ParseFormat(flag)
	}
	return codec.FormatForPath(path), nil
}
