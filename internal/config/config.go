// Package config loads habitd settings from defaults, an optional YAML file
// and HABITD_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "HABITD"

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	UI        UIConfig        `mapstructure:"ui"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File sends logs to a file instead of stderr. The TUI logs nowhere
	// unless it is set.
	File string `mapstructure:"file"`
}

type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"`
	PreviewCount  int    `mapstructure:"preview_count"`
}

type SchedulerConfig struct {
	Buffer int `mapstructure:"buffer"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "$HOME/.local/share/habitd/habitd.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("ui.markdown_style", "dark")
	v.SetDefault("ui.preview_count", 5)
	v.SetDefault("scheduler.buffer", 64)
}

// Load reads cfgFile, or config.yaml from $HOME/.config/habitd and the
// working directory when cfgFile is empty. A missing default file is not an
// error.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "habitd"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Logging.File = ExpandPath(cfg.Logging.File)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("config: database.path is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: invalid log format: %s", c.Logging.Format)
	}
	if c.UI.PreviewCount < 1 {
		return fmt.Errorf("config: ui.preview_count must be positive, got %d", c.UI.PreviewCount)
	}
	if c.Scheduler.Buffer < 1 {
		return fmt.Errorf("config: scheduler.buffer must be positive, got %d", c.Scheduler.Buffer)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}
	return os.ExpandEnv(path)
}
