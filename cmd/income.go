package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagIncomeEvery   string
	flagIncomeStart   string
	flagIncomeAccount string
	flagIncomeAll     bool
)

var incomeCmd = &cobra.Command{
	Use:     "income",
	Aliases: []string{"incomes"},
	Short:   "Manage recurring income",
	RunE:    runIncomeList,
}

var incomeAddCmd = &cobra.Command{
	Use:   "add NAME AMOUNT",
	Short: "Add a recurring income",
	Args:  cobra.ExactArgs(2),
	RunE:  runIncomeAdd,
}

var incomeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List incomes",
	RunE:  runIncomeList,
}

var incomeEditCmd = &cobra.Command{
	Use:   "edit INCOME [AMOUNT]",
	Short: "Change an income's amount or schedule",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runIncomeEdit,
}

var incomeDisableCmd = &cobra.Command{
	Use:   "disable INCOME",
	Short: "Stop an income from being scheduled",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setIncomeActive(args[0], false) },
}

var incomeEnableCmd = &cobra.Command{
	Use:   "enable INCOME",
	Short: "Resume scheduling a disabled income",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setIncomeActive(args[0], true) },
}

func init() {
	for _, c := range []*cobra.Command{incomeAddCmd, incomeEditCmd} {
		c.Flags().StringVar(&flagIncomeEvery, "every", "bi-weekly", "weekly, bi-weekly or monthly")
		c.Flags().StringVar(&flagIncomeStart, "start", "", "First pay date YYYY-MM-DD (default today)")
		c.Flags().StringVar(&flagIncomeAccount, "account", "", "Receiving account (id or name)")
	}
	incomeListCmd.Flags().BoolVar(&flagIncomeAll, "all", false, "Include disabled incomes")

	incomeCmd.AddCommand(incomeAddCmd, incomeListCmd, incomeEditCmd, incomeDisableCmd, incomeEnableCmd)
	rootCmd.AddCommand(incomeCmd)
}

func runIncomeAdd(_ *cobra.Command, args []string) error {
	amount, err := parseMoneyArg("amount", args[1])
	if err != nil {
		return err
	}
	every, err := model.ParseRecurrence(flagIncomeEvery)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseDateFlag("start", flagIncomeStart, s.today)
	if err != nil {
		return err
	}
	accountID, err := resolveAccountFlag(s, flagIncomeAccount)
	if err != nil {
		return err
	}

	in, err := s.store.InsertIncome(s.ctx, model.Income{
		Obligation: model.Obligation{
			Name:       args[0],
			Amount:     amount,
			Recurrence: every,
			StartDate:  start,
			IsActive:   true,
		},
		AccountID: accountID,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added income %s (%s): %s %s from %s\n",
		in.Name, in.ID, s.money(in.Amount), in.Recurrence, model.FormatDate(in.StartDate))
	return nil
}

func runIncomeList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	incomes, err := s.store.Incomes(s.ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(incomes))
	for _, in := range incomes {
		if !in.IsActive && !flagIncomeAll {
			continue
		}
		rows = append(rows, []string{
			in.ID, in.Name, s.money(in.Amount), string(in.Recurrence),
			model.FormatDate(in.StartDate), yesNo(in.IsActive),
		})
	}
	if len(rows) == 0 {
		fmt.Println("\n  No incomes.")
		return nil
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Amount", "Every", "Start", "Active"},
		Rows:    rows,
	}))
	return nil
}

func runIncomeEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	in, err := findIncome(snap, args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		if in.Amount, err = parseMoneyArg("amount", args[1]); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("every") {
		if in.Recurrence, err = model.ParseRecurrence(flagIncomeEvery); err != nil {
			return err
		}
	}
	if flags.Changed("start") {
		if in.StartDate, err = parseDateFlag("start", flagIncomeStart, in.StartDate); err != nil {
			return err
		}
	}
	if flags.Changed("account") {
		if in.AccountID, err = resolveAccountFlag(s, flagIncomeAccount); err != nil {
			return err
		}
	}

	if err := s.store.UpdateIncome(s.ctx, in); err != nil {
		return err
	}
	fmt.Printf("  Updated income %s\n", in.Name)
	return nil
}

func setIncomeActive(ref string, active bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	in, err := findIncome(snap, ref)
	if err != nil {
		return err
	}
	in.IsActive = active
	if err := s.store.UpdateIncome(s.ctx, in); err != nil {
		return err
	}
	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("  Income %s %s\n", in.Name, state)
	return nil
}
