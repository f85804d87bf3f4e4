package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FUNDCAST_"

// envKeys maps environment variables (without the prefix) to config paths.
var envKeys = map[string]string{
	"DB_PATH":             "general.db_path",
	"HORIZON_DAYS":        "general.horizon_days",
	"LOG_LEVEL":           "general.log_level",
	"CURRENCY":            "general.currency",
	"WARNING_THRESHOLD":   "forecast.warning_threshold",
	"OPTIMIZER_STEP":      "optimizer.step",
	"OPTIMIZER_STRATEGY":  "optimizer.strategy",
	"MAX_ITERATIONS":      "optimizer.max_iterations",
	"REMINDER_DAYS":       "reminders.default_days_before",
	"DAEMON_ADDR":         "daemon.addr",
	"DAEMON_INTERVAL_SEC": "daemon.interval_sec",
	"THEME":               "appearance.theme",
}

// applyEnv overlays FUNDCAST_* variables on cfg. Unknown variables are ignored.
func applyEnv(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil)
	if err != nil {
		return fmt.Errorf("loading env overrides: %w", err)
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("applying env overrides: %w", err)
	}
	return nil
}
