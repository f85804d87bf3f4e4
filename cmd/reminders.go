package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"

	"github.com/spf13/cobra"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Unpaid bills due inside their reminder window",
	RunE:  runReminders,
}

func init() {
	rootCmd.AddCommand(remindersCmd)
}

func runReminders(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	due := snap.Reminders(s.today, s.cfg.Reminders.DefaultDaysBefore)
	if len(due) == 0 {
		fmt.Println("\n  No bills due soon.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("REMINDERS"))
	fmt.Println()

	rows := make([][]string, 0, len(due))
	for _, r := range due {
		rows = append(rows, []string{
			cli.FormatDate(r.Occurrence.Date),
			cli.FormatDaysUntil(r.DaysUntil),
			r.Bill.Name,
			s.money(r.Occurrence.Amount),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Due", "When", "Bill", "Amount"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
