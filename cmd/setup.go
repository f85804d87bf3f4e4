package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/fundcast/internal/config"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	horizon := strconv.Itoa(cfg.General.HorizonDays)
	threshold := strconv.FormatFloat(cfg.Forecast.WarningThreshold, 'f', 2, 64)
	remind := strconv.Itoa(cfg.Reminders.DefaultDaysBefore)
	currency := cfg.General.Currency
	dbPath := cfg.General.DBPath
	strategy := cfg.Optimizer.Strategy
	themeName := cfg.Appearance.Theme

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fundcast!").
				Description("A few settings, then add accounts with `fundcast account add`."),
			huh.NewInput().
				Title("Database file").
				Value(&dbPath),
			huh.NewInput().
				Title("Currency symbol").
				Value(&currency),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Forecast horizon").
				Options(
					huh.NewOption("14 days", "14"),
					huh.NewOption("30 days", "30"),
					huh.NewOption("60 days", "60"),
					huh.NewOption("90 days", "90"),
				).
				Value(&horizon),
			huh.NewInput().
				Title("Warn when the balance drops below").
				Value(&threshold).
				Validate(validateFloat),
			huh.NewInput().
				Title("Default reminder days before a bill is due").
				Value(&remind).
				Validate(validateInt),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Card payment strategy").
				Options(
					huh.NewOption("Round robin", "round-robin"),
					huh.NewOption("Proportional", "proportional"),
				).
				Value(&strategy),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	cfg.General.DBPath = dbPath
	cfg.General.Currency = currency
	cfg.General.HorizonDays, _ = strconv.Atoi(horizon)
	cfg.Forecast.WarningThreshold, _ = strconv.ParseFloat(threshold, 64)
	cfg.Reminders.DefaultDaysBefore, _ = strconv.Atoi(remind)
	cfg.Optimizer.Strategy = strategy
	cfg.Appearance.Theme = themeName

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `fundcast setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func validateFloat(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}

func validateInt(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a whole number of days")
	}
	return nil
}
