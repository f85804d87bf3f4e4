package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/projection"
	"github.com/theirongolddev/fundcast/internal/tui"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive forecast dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling always produces ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		DBPath:       cfg.General.DBPath,
		HorizonDays:  cfg.General.HorizonDays,
		Currency:     cfg.General.Currency,
		ReminderDays: cfg.Reminders.DefaultDaysBefore,
		Projector:    projection.New(cfg.WarningThreshold()),
	}
	if flagToday != "" {
		if opts.Today, err = resolveToday(); err != nil {
			return err
		}
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
