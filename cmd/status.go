package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/projection"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Balances, forecast outlook and due bills at a glance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if len(snap.Accounts) == 0 {
		fmt.Println("\n  No accounts yet. Add one with `fundcast account add`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("STATUS  %s", cli.FormatDate(s.today))))
	fmt.Println()

	total := decimal.Zero
	rows := make([][]string, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		total = total.Add(a.CurrentBalance)
		rows = append(rows, []string{a.Name, string(a.Kind), s.money(a.CurrentBalance)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Account", "Kind", "Balance"},
		Rows:    rows,
		Footer:  []string{"Total", "", s.money(total)},
	}))
	fmt.Println()

	days := snap.Forecast(s.projector(), s.today, s.horizon())
	neg, warn := projection.FirstFlagged(days)
	switch {
	case neg != nil:
		fmt.Printf("  %s balance goes negative on %s (%s)\n",
			cli.RenderStatus(true, false), cli.FormatDate(neg.Date), s.money(neg.Balance))
	case warn != nil:
		fmt.Printf("  %s balance drops below %s on %s (%s)\n",
			cli.RenderStatus(false, true), s.money(s.cfg.WarningThreshold()), cli.FormatDate(warn.Date), s.money(warn.Balance))
	default:
		fmt.Printf("  Balance stays healthy for the next %d days\n", s.horizon())
	}
	if low, ok := projection.Lowest(days); ok {
		fmt.Printf("  Lowest projected balance: %s on %s\n", s.money(low.Balance), cli.FormatDate(low.Date))
	}

	due := snap.Reminders(s.today, s.cfg.Reminders.DefaultDaysBefore)
	if len(due) > 0 {
		fmt.Println()
		for _, r := range due {
			fmt.Printf("  Due %s: %s %s on %s\n",
				cli.FormatDaysUntil(r.DaysUntil), r.Bill.Name, s.money(r.Occurrence.Amount), model.FormatDate(r.Occurrence.Date))
		}
	}
	fmt.Println()
	return nil
}
