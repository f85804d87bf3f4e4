package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var overrideCmd = &cobra.Command{
	Use:     "override",
	Aliases: []string{"overrides"},
	Short:   "Change one occurrence's amount",
	RunE:    runOverrideList,
}

var overrideSetCmd = &cobra.Command{
	Use:   "set OBLIGATION DATE AMOUNT",
	Short: "Replace the amount of a bill or income on one date",
	Args:  cobra.ExactArgs(3),
	RunE:  runOverrideSet,
}

var overrideClearCmd = &cobra.Command{
	Use:   "clear OBLIGATION DATE",
	Short: "Restore the base amount on one date",
	Args:  cobra.ExactArgs(2),
	RunE:  runOverrideClear,
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List overrides",
	RunE:  runOverrideList,
}

func init() {
	overrideCmd.AddCommand(overrideSetCmd, overrideClearCmd, overrideListCmd)
	rootCmd.AddCommand(overrideCmd)
}

func runOverrideSet(_ *cobra.Command, args []string) error {
	date, err := model.ParseDate(args[1])
	if err != nil {
		return err
	}
	amount, err := parseMoneyArg("amount", args[2])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	id, name, err := findObligation(snap, args[0])
	if err != nil {
		return err
	}
	if err := s.store.SetOverride(s.ctx, model.Override{ObligationID: id, Date: date, Amount: amount}); err != nil {
		return err
	}
	fmt.Printf("  %s on %s is now %s\n", name, model.FormatDate(date), s.money(amount))
	return nil
}

func runOverrideClear(_ *cobra.Command, args []string) error {
	date, err := model.ParseDate(args[1])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	id, name, err := findObligation(snap, args[0])
	if err != nil {
		return err
	}
	if err := s.store.ClearOverride(s.ctx, id, date); err != nil {
		return err
	}
	fmt.Printf("  Cleared override for %s on %s\n", name, model.FormatDate(date))
	return nil
}

func runOverrideList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if len(snap.Overrides) == 0 {
		fmt.Println("\n  No overrides.")
		return nil
	}

	rows := make([][]string, 0, len(snap.Overrides))
	for _, o := range snap.Overrides {
		name := o.ObligationID
		if _, n, err := findObligation(snap, o.ObligationID); err == nil {
			name = n
		}
		rows = append(rows, []string{cli.FormatDate(o.Date), name, s.money(o.Amount)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Obligation", "Amount"},
		Rows:    rows,
	}))
	return nil
}
