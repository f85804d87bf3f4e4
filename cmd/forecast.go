package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/projection"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagForecastAccounts []string
	flagForecastAll      bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Day-by-day projected balance",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringSliceVarP(&flagForecastAccounts, "account", "a", nil, "Limit to these accounts (id or name)")
	forecastCmd.Flags().BoolVar(&flagForecastAll, "all", false, "Show every day, not only days with activity")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(flagForecastAccounts))
	for _, ref := range flagForecastAccounts {
		a, err := findAccount(snap, ref)
		if err != nil {
			return err
		}
		ids = append(ids, a.ID)
	}

	days := snap.Forecast(s.projector(), s.today, s.horizon(), ids...)
	if len(days) == 0 {
		fmt.Println("\n  Nothing to forecast.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  Next %dd", s.horizon())))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	balances := make([]decimal.Decimal, 0, len(days))
	for i, d := range days {
		balances = append(balances, d.Balance)
		busy := len(d.IncomeEvents) > 0 || len(d.BillEvents) > 0 || len(d.Transactions) > 0
		if !flagForecastAll && !busy && i != 0 && !d.IsNegative {
			continue
		}
		rows = append(rows, []string{
			cli.FormatDate(d.Date),
			s.money(d.Balance),
			eventsLabel(d.IncomeEvents),
			eventsLabel(d.BillEvents),
			cli.RenderStatus(d.IsNegative, d.IsWarning),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Balance", "Income", "Bills", ""},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Printf("  %s\n", cli.RenderSparkline(balances))

	neg, warn := projection.FirstFlagged(days)
	if neg != nil {
		fmt.Printf("  First negative day: %s (%s)\n", cli.FormatDate(neg.Date), s.money(neg.Balance))
	}
	if warn != nil {
		fmt.Printf("  First day below %s: %s\n", s.money(s.cfg.WarningThreshold()), cli.FormatDate(warn.Date))
	}
	fmt.Println()
	return nil
}

func eventsLabel(events []model.ScheduledEvent) string {
	names := make([]string, 0, len(events))
	for _, ev := range events {
		names = append(names, ev.Name)
	}
	return strings.Join(names, ", ")
}
