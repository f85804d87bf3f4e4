package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagTxnAccount  string
	flagTxnTo       string
	flagTxnDate     string
	flagTxnDesc     string
	flagTxnEnvelope string
	flagTxnAmount   string
	flagTxnFrom     string
	flagTxnUntil    string
)

var txnCmd = &cobra.Command{
	Use:     "txn",
	Aliases: []string{"transaction", "transactions"},
	Short:   "Record and edit realized transactions",
	RunE:    runTxnList,
}

var txnAddCmd = &cobra.Command{
	Use:   "add KIND AMOUNT",
	Short: "Record a transaction (income, bill-payment, credit-card-payment, manual-adjustment, transfer)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTxnAdd,
}

var txnEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a transaction; balances follow",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxnEdit,
}

var txnDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a transaction and reverse its effect",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxnDelete,
}

var txnListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	RunE:  runTxnList,
}

func init() {
	for _, c := range []*cobra.Command{txnAddCmd, txnEditCmd} {
		c.Flags().StringVar(&flagTxnAccount, "account", "", "Account (id or name)")
		c.Flags().StringVar(&flagTxnTo, "to", "", "Destination account for transfers")
		c.Flags().StringVar(&flagTxnDate, "date", "", "Transaction date YYYY-MM-DD (default today)")
		c.Flags().StringVar(&flagTxnDesc, "desc", "", "Description")
		c.Flags().StringVar(&flagTxnEnvelope, "envelope", "", "Envelope (id or name)")
	}
	txnEditCmd.Flags().StringVar(&flagTxnAmount, "amount", "", "New amount")
	txnListCmd.Flags().StringVar(&flagTxnFrom, "from", "", "First date YYYY-MM-DD")
	txnListCmd.Flags().StringVar(&flagTxnUntil, "until", "", "Last date YYYY-MM-DD")

	txnCmd.AddCommand(txnAddCmd, txnEditCmd, txnDeleteCmd, txnListCmd)
	rootCmd.AddCommand(txnCmd)
}

func runTxnAdd(_ *cobra.Command, args []string) error {
	kind, err := model.ParseTransactionKind(args[0])
	if err != nil {
		return err
	}
	amount, err := parseMoneyArg("amount", args[1])
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
	date, err := parseDateFlag("date", flagTxnDate, s.today)
	if err != nil {
		return err
	}
	accountID, err := resolveAccountFlag(s, flagTxnAccount)
	if err != nil {
		return err
	}

	t := model.Transaction{
		AccountID:   accountID,
		Kind:        kind,
		Amount:      amount,
		Date:        date,
		Description: flagTxnDesc,
	}
	if flagTxnTo != "" {
		to, err := findAccount(snap, flagTxnTo)
		if err != nil {
			return err
		}
		t.ToAccountID = to.ID
	}
	if flagTxnEnvelope != "" {
		env, err := findEnvelope(snap, flagTxnEnvelope)
		if err != nil {
			return err
		}
		t.EnvelopeID = env.ID
	}

	t, err = s.ledger.Insert(s.ctx, t)
	if err != nil {
		return err
	}
	fmt.Printf("  Recorded %s %s (%s)\n", t.Kind, s.money(t.Amount), t.ID)
	if t.EnvelopeID != "" && flagTxnEnvelope == "" {
		if env, err := findEnvelope(snap, t.EnvelopeID); err == nil {
			fmt.Printf("  Categorized into %s\n", env.Name)
		}
	}
	return nil
}

func runTxnEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	t, err := s.store.Transaction(s.ctx, args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("amount") {
		if t.Amount, err = parseMoneyArg("--amount", flagTxnAmount); err != nil {
			return err
		}
	}
	if flags.Changed("date") {
		if t.Date, err = parseDateFlag("date", flagTxnDate, t.Date); err != nil {
			return err
		}
	}
	if flags.Changed("desc") {
		t.Description = flagTxnDesc
	}
	if flags.Changed("account") {
		a, err := findAccount(snap, flagTxnAccount)
		if err != nil {
			return err
		}
		t.AccountID = a.ID
	}
	if flags.Changed("to") {
		a, err := findAccount(snap, flagTxnTo)
		if err != nil {
			return err
		}
		t.ToAccountID = a.ID
	}
	if flags.Changed("envelope") {
		t.EnvelopeID = ""
		if flagTxnEnvelope != "" {
			env, err := findEnvelope(snap, flagTxnEnvelope)
			if err != nil {
				return err
			}
			t.EnvelopeID = env.ID
		}
	}

	res, err := s.ledger.Update(s.ctx, t)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated %s: %s %s\n", res.Transaction.ID, res.Transaction.Kind, s.money(res.Transaction.Amount))
	if res.Degraded {
		fmt.Println("  Warning: the previous version was missing; only the new amount was applied.")
	}
	return nil
}

func runTxnDelete(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ledger.Delete(s.ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted transaction %s\n", args[0])
	return nil
}

func runTxnList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	until, err := parseDateFlag("until", flagTxnUntil, s.today)
	if err != nil {
		return err
	}
	from, err := parseDateFlag("from", flagTxnFrom, until.AddDate(0, 0, -s.horizon()))
	if err != nil {
		return err
	}

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	txns, err := s.store.TransactionsBetween(s.ctx, from, until)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("\n  No transactions in range.")
		return nil
	}

	names := make(map[string]string, len(snap.Accounts)+len(snap.Envelopes))
	for _, a := range snap.Accounts {
		names[a.ID] = a.Name
	}
	for _, e := range snap.Envelopes {
		names[e.ID] = e.Name
	}

	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		account := names[t.AccountID]
		if t.ToAccountID != "" {
			account += " -> " + names[t.ToAccountID]
		}
		rows = append(rows, []string{
			t.ID, model.FormatDate(t.Date), string(t.Kind), account, s.money(t.Amount), names[t.EnvelopeID], t.Description,
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Date", "Kind", "Account", "Amount", "Envelope", "Description"},
		Rows:    rows,
	}))
	return nil
}
