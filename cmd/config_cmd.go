// Package cmd implements the fundcast CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database:      %s\n", cfg.General.DBPath)
	fmt.Printf("    Horizon days:  %d\n", cfg.General.HorizonDays)
	fmt.Printf("    Log level:     %s\n", cfg.General.LogLevel)
	fmt.Printf("    Currency:      %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Warning threshold: %s\n", cfg.WarningThreshold().StringFixed(2))
	fmt.Println()

	fmt.Println("  [Optimizer]")
	fmt.Printf("    Step:            %s\n", cfg.OptimizerStep().StringFixed(2))
	fmt.Printf("    Max iterations:  %d\n", cfg.Optimizer.MaxIterations)
	fmt.Printf("    Strategy:        %s\n", cfg.Optimizer.Strategy)
	fmt.Println()

	fmt.Println("  [Reminders]")
	fmt.Printf("    Default days before: %d\n", cfg.Reminders.DefaultDaysBefore)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Printf("  Environment overrides use the %s prefix.\n", config.EnvPrefix)
	fmt.Println("  Run `fundcast setup` to reconfigure.")
	return nil
}
