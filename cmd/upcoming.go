package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var upcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Bill and income occurrences in the horizon",
	RunE:  runUpcoming,
}

func init() {
	rootCmd.AddCommand(upcomingCmd)
}

func runUpcoming(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	bills, incomes := snap.Upcoming(s.today, s.horizon())
	if len(bills) == 0 && len(incomes) == 0 {
		fmt.Println("\n  Nothing scheduled.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("UPCOMING  Next %dd", s.horizon())))
	fmt.Println()

	if len(bills) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Bills",
			Headers: []string{"Date", "Bill", "Amount", "Paid"},
			Rows:    occurrenceRows(s, bills),
		}))
		fmt.Println()
	}
	if len(incomes) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Income",
			Headers: []string{"Date", "Income", "Amount", "Received"},
			Rows:    occurrenceRows(s, incomes),
		}))
		fmt.Println()
	}
	return nil
}

func occurrenceRows(s *session, occs []model.Occurrence) [][]string {
	rows := make([][]string, 0, len(occs))
	for _, o := range occs {
		done := ""
		if o.IsRealized {
			done = "yes"
			if o.RealizedDate != nil && !o.RealizedDate.Equal(o.Date) {
				done = "on " + model.FormatDate(*o.RealizedDate)
			}
		}
		rows = append(rows, []string{cli.FormatDate(o.Date), o.Name, s.money(o.Amount), done})
	}
	return rows
}
