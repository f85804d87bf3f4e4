package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/envelope"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagEnvPeriod  string
	flagEnvAccount string
	flagEnvColor   string
	flagEnvIcon    string
	flagEnvCarry   bool
	flagEnvDate    string
	flagEnvIncome  string
	flagEnvDesc    string
)

var envelopeCmd = &cobra.Command{
	Use:     "envelope",
	Aliases: []string{"envelopes", "env"},
	Short:   "Budget envelopes",
	RunE:    runEnvelopeList,
}

var envelopeAddCmd = &cobra.Command{
	Use:   "add NAME BUDGET",
	Short: "Create an envelope",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnvelopeAdd,
}

var envelopeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Envelope balances for the current period",
	RunE:  runEnvelopeList,
}

var envelopeAllocateCmd = &cobra.Command{
	Use:   "allocate ENVELOPE [AMOUNT]",
	Short: "Fund an envelope for the period containing --date",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runEnvelopeAllocate,
}

var envelopeTransferCmd = &cobra.Command{
	Use:   "transfer FROM TO AMOUNT",
	Short: "Move budget between envelopes",
	Args:  cobra.ExactArgs(3),
	RunE:  runEnvelopeTransfer,
}

var envelopeDisableCmd = &cobra.Command{
	Use:   "disable ENVELOPE",
	Short: "Hide an envelope from balances",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnvelopeDisable,
}

func init() {
	envelopeAddCmd.Flags().StringVar(&flagEnvPeriod, "period", "monthly", "weekly, bi-weekly or monthly")
	envelopeAddCmd.Flags().StringVar(&flagEnvAccount, "account", "", "Only count spending from this account")
	envelopeAddCmd.Flags().StringVar(&flagEnvColor, "color", "", "Display color")
	envelopeAddCmd.Flags().StringVar(&flagEnvIcon, "icon", "", "Display icon")
	envelopeAddCmd.Flags().BoolVar(&flagEnvCarry, "carry-over", false, "Roll unspent budget into the next period")

	envelopeAllocateCmd.Flags().StringVar(&flagEnvDate, "date", "", "Any date in the period (default today)")
	envelopeAllocateCmd.Flags().StringVar(&flagEnvIncome, "income", "", "Income funding the allocation")
	envelopeTransferCmd.Flags().StringVar(&flagEnvDate, "date", "", "Transfer date (default today)")
	envelopeTransferCmd.Flags().StringVar(&flagEnvDesc, "desc", "", "Description")

	envelopeCmd.AddCommand(envelopeAddCmd, envelopeListCmd, envelopeAllocateCmd, envelopeTransferCmd, envelopeDisableCmd)
	rootCmd.AddCommand(envelopeCmd)
}

func runEnvelopeAdd(_ *cobra.Command, args []string) error {
	budget, err := parseMoneyArg("budget", args[1])
	if err != nil {
		return err
	}
	period, err := model.ParseRecurrence(flagEnvPeriod)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	var accountID string
	if flagEnvAccount != "" {
		if accountID, err = resolveAccountFlag(s, flagEnvAccount); err != nil {
			return err
		}
	}

	e, err := s.store.InsertEnvelope(s.ctx, model.Envelope{
		Name:             args[0],
		Color:            flagEnvColor,
		Icon:             flagEnvIcon,
		BudgetedAmount:   budget,
		PeriodKind:       period,
		AccountID:        accountID,
		CarryOverEnabled: flagEnvCarry,
		IsActive:         true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added envelope %s (%s): %s per %s\n", e.Name, e.ID, s.money(e.BudgetedAmount), e.PeriodKind)
	return nil
}

func runEnvelopeList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	sums := snap.EnvelopeSummaries(s.today)
	if len(sums) == 0 {
		fmt.Println("\n  No envelopes.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ENVELOPES  %s", cli.FormatDate(s.today))))
	fmt.Println()

	rows := make([][]string, 0, len(sums))
	for _, b := range sums {
		rows = append(rows, []string{
			b.Envelope.Name,
			model.FormatDate(b.PeriodStart) + " .. " + model.FormatDate(b.PeriodEnd),
			s.money(b.Allocated),
			s.money(b.Spent),
			cli.FormatSigned(b.TransfersIn.Sub(b.TransfersOut), s.cfg.General.Currency),
			s.money(b.Remaining),
			cli.RenderBudgetBar(b.Spent, b.Allocated.Add(b.TransfersIn).Sub(b.TransfersOut), 12),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Envelope", "Period", "Allocated", "Spent", "Moved", "Remaining", "Used"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}

func runEnvelopeAllocate(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	env, err := findEnvelope(snap, args[0])
	if err != nil {
		return err
	}

	in := envelope.AllocateInput{EnvelopeID: env.ID, Amount: env.BudgetedAmount}
	if len(args) == 2 {
		if in.Amount, err = parseMoneyArg("amount", args[1]); err != nil {
			return err
		}
	}
	if in.Date, err = parseDateFlag("date", flagEnvDate, s.today); err != nil {
		return err
	}
	if flagEnvIncome != "" {
		income, err := findIncome(snap, flagEnvIncome)
		if err != nil {
			return err
		}
		in.FundingIncomeID = income.ID
	}

	alloc, err := s.envelopes().Allocate(s.ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("  Allocated %s to %s for %s .. %s\n",
		s.money(alloc.Amount), env.Name, model.FormatDate(alloc.PeriodStart), model.FormatDate(alloc.PeriodEnd))
	if carried := alloc.Amount.Sub(in.Amount); carried.IsPositive() {
		fmt.Printf("  Includes %s carried over\n", s.money(carried))
	}
	return nil
}

func runEnvelopeTransfer(_ *cobra.Command, args []string) error {
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
	from, err := findEnvelope(snap, args[0])
	if err != nil {
		return err
	}
	to, err := findEnvelope(snap, args[1])
	if err != nil {
		return err
	}
	date, err := parseDateFlag("date", flagEnvDate, s.today)
	if err != nil {
		return err
	}

	_, err = s.envelopes().Transfer(s.ctx, model.EnvelopeTransfer{
		FromEnvelopeID: from.ID,
		ToEnvelopeID:   to.ID,
		Amount:         amount,
		Date:           date,
		Description:    flagEnvDesc,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Moved %s from %s to %s\n", s.money(amount), from.Name, to.Name)
	return nil
}

func runEnvelopeDisable(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	env, err := findEnvelope(snap, args[0])
	if err != nil {
		return err
	}
	env.IsActive = false
	if err := s.store.UpdateEnvelope(s.ctx, env); err != nil {
		return err
	}
	fmt.Printf("  Envelope %s disabled\n", env.Name)
	return nil
}
