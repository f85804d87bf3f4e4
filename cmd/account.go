package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagAccountKind    string
	flagAccountBalance string

	flagAccountEditName    string
	flagAccountEditKind    string
	flagAccountEditBalance string
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"accounts"},
	Short:   "Manage accounts",
	RunE:    runAccountList,
}

var accountAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts and balances",
	RunE:  runAccountList,
}

var accountEditCmd = &cobra.Command{
	Use:   "edit ACCOUNT",
	Short: "Rename an account or change its starting balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountEdit,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete ACCOUNT",
	Short: "Delete an account and its transactions",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountDelete,
}

func init() {
	accountAddCmd.Flags().StringVar(&flagAccountKind, "kind", "checking", "checking, savings, credit-card or other")
	accountAddCmd.Flags().StringVar(&flagAccountBalance, "balance", "0", "Starting balance")

	accountEditCmd.Flags().StringVar(&flagAccountEditName, "name", "", "New name")
	accountEditCmd.Flags().StringVar(&flagAccountEditKind, "kind", "", "New kind")
	accountEditCmd.Flags().StringVar(&flagAccountEditBalance, "balance", "", "New starting balance")

	accountCmd.AddCommand(accountAddCmd, accountListCmd, accountEditCmd, accountDeleteCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(_ *cobra.Command, args []string) error {
	kind, err := model.ParseAccountKind(flagAccountKind)
	if err != nil {
		return err
	}
	balance, err := parseMoneyArg("--balance", flagAccountBalance)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	a, err := s.store.InsertAccount(s.ctx, model.Account{Name: args[0], Kind: kind, StartingBalance: balance})
	if err != nil {
		return err
	}
	fmt.Printf("  Added account %s (%s) with %s\n", a.Name, a.ID, s.money(a.StartingBalance))
	return nil
}

func runAccountList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	accounts, err := s.store.Accounts(s.ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("\n  No accounts.")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []string{a.ID, a.Name, string(a.Kind), s.money(a.StartingBalance), s.money(a.CurrentBalance)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Kind", "Starting", "Current"},
		Rows:    rows,
	}))
	return nil
}

func runAccountEdit(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	a, err := findAccount(snap, args[0])
	if err != nil {
		return err
	}

	if flagAccountEditName != "" {
		a.Name = flagAccountEditName
	}
	if flagAccountEditKind != "" {
		if a.Kind, err = model.ParseAccountKind(flagAccountEditKind); err != nil {
			return err
		}
	}
	if flagAccountEditBalance != "" {
		if a.StartingBalance, err = parseMoneyArg("--balance", flagAccountEditBalance); err != nil {
			return err
		}
	}

	a, err = s.ledger.UpdateAccount(s.ctx, a)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated %s: current balance %s\n", a.Name, s.money(a.CurrentBalance))
	return nil
}

func runAccountDelete(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	a, err := findAccount(snap, args[0])
	if err != nil {
		return err
	}
	if err := s.ledger.DeleteAccount(s.ctx, a.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted account %s\n", a.Name)
	return nil
}
