package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagReceiveAmount  string
	flagReceiveAccount string
)

var receiveCmd = &cobra.Command{
	Use:   "receive INCOME DATE",
	Short: "Record an income occurrence as received",
	Args:  cobra.ExactArgs(2),
	RunE:  runReceive,
}

func init() {
	receiveCmd.Flags().StringVar(&flagReceiveAmount, "amount", "", "Amount received (default the scheduled amount)")
	receiveCmd.Flags().StringVar(&flagReceiveAccount, "account", "", "Receiving account (default the income's account)")
	rootCmd.AddCommand(receiveCmd)
}

func runReceive(_ *cobra.Command, args []string) error {
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
	income, err := findIncome(snap, args[0])
	if err != nil {
		return err
	}

	amount := model.NewOverrideSet(snap.Overrides).Amount(income.ID, date, income.Amount)
	if flagReceiveAmount != "" {
		if amount, err = parseMoneyArg("--amount", flagReceiveAmount); err != nil {
			return err
		}
	}
	accountID := income.AccountID
	if flagReceiveAccount != "" {
		a, err := findAccount(snap, flagReceiveAccount)
		if err != nil {
			return err
		}
		accountID = a.ID
	}

	t, err := s.ledger.ReceiveIncome(s.ctx, income, date, amount, accountID)
	if err != nil {
		return err
	}
	fmt.Printf("  Received %s for %s: %s\n", income.Name, model.FormatDate(date), s.money(t.Amount))
	return nil
}
