package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/ledger"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/occurrence"

	"github.com/spf13/cobra"
)

var (
	flagPayAmount   string
	flagPayAccount  string
	flagPayOn       string
	flagPayEnvelope string
)

var payCmd = &cobra.Command{
	Use:   "pay BILL DATE",
	Short: "Mark a bill occurrence paid",
	Long:  "Records the payment and its transaction together. DATE is the occurrence's due date.",
	Args:  cobra.ExactArgs(2),
	RunE:  runPay,
}

var unpayCmd = &cobra.Command{
	Use:   "unpay BILL DATE",
	Short: "Undo a bill payment and reverse its transaction",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnpay,
}

func init() {
	payCmd.Flags().StringVar(&flagPayAmount, "amount", "", "Amount paid (default the scheduled amount)")
	payCmd.Flags().StringVar(&flagPayAccount, "account", "", "Paying account (default the bill's account)")
	payCmd.Flags().StringVar(&flagPayOn, "paid-on", "", "Date the money left, if not the due date")
	payCmd.Flags().StringVar(&flagPayEnvelope, "envelope", "", "Envelope to charge (default by rules)")
	rootCmd.AddCommand(payCmd, unpayCmd)
}

func runPay(_ *cobra.Command, args []string) error {
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
	bill, err := findBill(snap, args[0])
	if err != nil {
		return err
	}

	in := ledger.PayBillInput{
		BillID: bill.ID,
		Date:   date,
		Amount: occurrence.BillAmount(bill, model.NewOverrideSet(snap.Overrides), date),
	}
	if flagPayAmount != "" {
		if in.Amount, err = parseMoneyArg("--amount", flagPayAmount); err != nil {
			return err
		}
	}
	if flagPayAccount != "" {
		a, err := findAccount(snap, flagPayAccount)
		if err != nil {
			return err
		}
		in.AccountID = a.ID
	}
	if in.PaidOn, err = parseDateFlag("paid-on", flagPayOn, date); err != nil {
		return err
	}
	if flagPayEnvelope != "" {
		env, err := findEnvelope(snap, flagPayEnvelope)
		if err != nil {
			return err
		}
		in.EnvelopeID = env.ID
	}

	p, err := s.ledger.PayBill(s.ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("  Paid %s for %s: %s\n", bill.Name, model.FormatDate(p.Date), s.money(p.Amount))
	return nil
}

func runUnpay(_ *cobra.Command, args []string) error {
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
	bill, err := findBill(snap, args[0])
	if err != nil {
		return err
	}
	if err := s.ledger.UnpayBill(s.ctx, bill.ID, date); err != nil {
		return err
	}
	fmt.Printf("  %s for %s is unpaid again\n", bill.Name, model.FormatDate(date))
	return nil
}
