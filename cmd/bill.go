package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagBillEvery   string
	flagBillStart   string
	flagBillEnd     string
	flagBillAccount string
	flagBillRemind  int
	flagBillCard    bool
	flagBillAll     bool
)

var billCmd = &cobra.Command{
	Use:     "bill",
	Aliases: []string{"bills"},
	Short:   "Manage recurring bills",
	RunE:    runBillList,
}

var billAddCmd = &cobra.Command{
	Use:   "add NAME AMOUNT",
	Short: "Add a recurring bill",
	Args:  cobra.ExactArgs(2),
	RunE:  runBillAdd,
}

var billListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bills",
	RunE:  runBillList,
}

var billEditCmd = &cobra.Command{
	Use:   "edit BILL [AMOUNT]",
	Short: "Change a bill's amount or schedule",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runBillEdit,
}

var billDisableCmd = &cobra.Command{
	Use:   "disable BILL",
	Short: "Stop a bill from being scheduled",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setBillActive(args[0], false) },
}

var billEnableCmd = &cobra.Command{
	Use:   "enable BILL",
	Short: "Resume scheduling a disabled bill",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setBillActive(args[0], true) },
}

func init() {
	for _, c := range []*cobra.Command{billAddCmd, billEditCmd} {
		c.Flags().StringVar(&flagBillEvery, "every", "monthly", "weekly, bi-weekly or monthly")
		c.Flags().StringVar(&flagBillStart, "start", "", "First due date YYYY-MM-DD (default today)")
		c.Flags().StringVar(&flagBillEnd, "end", "", "Last possible due date YYYY-MM-DD")
		c.Flags().StringVar(&flagBillAccount, "account", "", "Paying account (id or name)")
		c.Flags().IntVar(&flagBillRemind, "remind", 0, "Remind this many days before the due date")
		c.Flags().BoolVar(&flagBillCard, "card", false, "Credit-card bill the optimizer may reduce")
	}
	billListCmd.Flags().BoolVar(&flagBillAll, "all", false, "Include disabled bills")

	billCmd.AddCommand(billAddCmd, billListCmd, billEditCmd, billDisableCmd, billEnableCmd)
	rootCmd.AddCommand(billCmd)
}

func runBillAdd(_ *cobra.Command, args []string) error {
	amount, err := parseMoneyArg("amount", args[1])
	if err != nil {
		return err
	}
	every, err := model.ParseRecurrence(flagBillEvery)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	start, err := parseDateFlag("start", flagBillStart, s.today)
	if err != nil {
		return err
	}
	end, err := optionalDate("end", flagBillEnd)
	if err != nil {
		return err
	}
	accountID, err := resolveAccountFlag(s, flagBillAccount)
	if err != nil {
		return err
	}

	b, err := s.store.InsertBill(s.ctx, model.Bill{
		Obligation: model.Obligation{
			Name:       args[0],
			Amount:     amount,
			Recurrence: every,
			StartDate:  start,
			EndDate:    end,
			IsActive:   true,
		},
		AccountID:          accountID,
		ReminderDaysBefore: flagBillRemind,
		IsCreditCard:       flagBillCard,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added bill %s (%s): %s %s from %s\n",
		b.Name, b.ID, s.money(b.Amount), b.Recurrence, model.FormatDate(b.StartDate))
	return nil
}

func runBillList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	bills, err := s.store.Bills(s.ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(bills))
	for _, b := range bills {
		if !b.IsActive && !flagBillAll {
			continue
		}
		end := ""
		if b.EndDate != nil {
			end = model.FormatDate(*b.EndDate)
		}
		rows = append(rows, []string{
			b.ID, b.Name, s.money(b.Amount), string(b.Recurrence),
			model.FormatDate(b.StartDate), end, strconv.Itoa(b.ReminderDaysBefore),
			yesNo(b.IsCreditCard), yesNo(b.IsActive),
		})
	}
	if len(rows) == 0 {
		fmt.Println("\n  No bills.")
		return nil
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Amount", "Every", "Start", "End", "Remind", "Card", "Active"},
		Rows:    rows,
	}))
	return nil
}

func runBillEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	b, err := findBill(snap, args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		if b.Amount, err = parseMoneyArg("amount", args[1]); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("every") {
		if b.Recurrence, err = model.ParseRecurrence(flagBillEvery); err != nil {
			return err
		}
	}
	if flags.Changed("start") {
		if b.StartDate, err = parseDateFlag("start", flagBillStart, b.StartDate); err != nil {
			return err
		}
	}
	if flags.Changed("end") {
		if b.EndDate, err = optionalDate("end", flagBillEnd); err != nil {
			return err
		}
	}
	if flags.Changed("account") {
		if b.AccountID, err = resolveAccountFlag(s, flagBillAccount); err != nil {
			return err
		}
	}
	if flags.Changed("remind") {
		b.ReminderDaysBefore = flagBillRemind
	}
	if flags.Changed("card") {
		b.IsCreditCard = flagBillCard
	}

	if err := s.store.UpdateBill(s.ctx, b); err != nil {
		return err
	}
	fmt.Printf("  Updated bill %s\n", b.Name)
	return nil
}

func setBillActive(ref string, active bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	b, err := findBill(snap, ref)
	if err != nil {
		return err
	}
	b.IsActive = active
	if err := s.store.UpdateBill(s.ctx, b); err != nil {
		return err
	}
	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("  Bill %s %s\n", b.Name, state)
	return nil
}

func optionalDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDateFlag(name, value, time.Time{})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// resolveAccountFlag maps an --account value to an id. An empty value picks
// the only account when there is exactly one.
func resolveAccountFlag(s *session, ref string) (string, error) {
	accounts, err := s.store.Accounts(s.ctx)
	if err != nil {
		return "", err
	}
	if ref == "" {
		if len(accounts) == 1 {
			return accounts[0].ID, nil
		}
		return "", fmt.Errorf("--account is required when there are %d accounts", len(accounts))
	}
	for _, a := range accounts {
		if a.ID == ref || strings.EqualFold(a.Name, ref) {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("account %q: %w", ref, model.ErrNotFound)
}
