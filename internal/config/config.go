// Package config loads fundcast settings from a TOML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config holds all fundcast configuration.
type Config struct {
	General    GeneralConfig    `toml:"general" koanf:"general"`
	Forecast   ForecastConfig   `toml:"forecast" koanf:"forecast"`
	Optimizer  OptimizerConfig  `toml:"optimizer" koanf:"optimizer"`
	Reminders  RemindersConfig  `toml:"reminders" koanf:"reminders"`
	Daemon     DaemonConfig     `toml:"daemon" koanf:"daemon"`
	Appearance AppearanceConfig `toml:"appearance" koanf:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DBPath      string `toml:"db_path,omitempty" koanf:"db_path"`
	HorizonDays int    `toml:"horizon_days" koanf:"horizon_days"`
	LogLevel    string `toml:"log_level" koanf:"log_level"`
	Currency    string `toml:"currency" koanf:"currency"`
}

// ForecastConfig holds projection settings.
type ForecastConfig struct {
	WarningThreshold float64 `toml:"warning_threshold" koanf:"warning_threshold"`
}

// OptimizerConfig bounds the card payment search.
type OptimizerConfig struct {
	Step          float64 `toml:"step" koanf:"step"`
	MaxIterations int     `toml:"max_iterations" koanf:"max_iterations"`
	Strategy      string  `toml:"strategy" koanf:"strategy"`
}

// RemindersConfig holds bill reminder settings.
type RemindersConfig struct {
	DefaultDaysBefore int `toml:"default_days_before" koanf:"default_days_before"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr        string `toml:"addr" koanf:"addr"`
	IntervalSec int    `toml:"interval_sec" koanf:"interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" koanf:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			HorizonDays: 30,
			LogLevel:    "info",
			Currency:    "$",
		},
		Forecast: ForecastConfig{
			WarningThreshold: 100,
		},
		Optimizer: OptimizerConfig{
			Step:          5,
			MaxIterations: 1000,
			Strategy:      "round-robin",
		},
		Reminders: RemindersConfig{
			DefaultDaysBefore: 3,
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 60,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fundcast")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fundcast")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultDBPath returns the XDG data location of the database.
func DefaultDBPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fundcast", "fundcast.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "fundcast", "fundcast.db")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies FUNDCAST_* environment overrides.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.General.DBPath == "" {
		cfg.General.DBPath = DefaultDBPath()
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo is Save with an explicit file path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// WarningThreshold returns the low-balance band as money.
func (c Config) WarningThreshold() decimal.Decimal {
	return decimal.NewFromFloat(c.Forecast.WarningThreshold).Round(2)
}

// OptimizerStep returns the per-iteration reduction as money.
func (c Config) OptimizerStep() decimal.Decimal {
	return decimal.NewFromFloat(c.Optimizer.Step).Round(2)
}
