package cmd

import (
	"fmt"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"

	"github.com/spf13/cobra"
)

var ruleCmd = &cobra.Command{
	Use:     "rule",
	Aliases: []string{"rules"},
	Short:   "Keyword rules that file bill payments into envelopes",
	RunE:    runRuleList,
}

var ruleAddCmd = &cobra.Command{
	Use:   "add ENVELOPE KEYWORD",
	Short: "File payments whose description contains KEYWORD into ENVELOPE",
	Args:  cobra.ExactArgs(2),
	RunE:  runRuleAdd,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in match order",
	RunE:  runRuleList,
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleDelete,
}

func init() {
	ruleCmd.AddCommand(ruleAddCmd, ruleListCmd, ruleDeleteCmd)
	rootCmd.AddCommand(ruleCmd)
}

func runRuleAdd(_ *cobra.Command, args []string) error {
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
	rule, err := s.store.InsertRule(s.ctx, model.CategorizationRule{
		EnvelopeID: env.ID,
		Keyword:    args[1],
		IsActive:   true,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Added rule %s: %q -> %s\n", rule.ID, rule.Keyword, env.Name)
	return nil
}

func runRuleList(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	if len(snap.Rules) == 0 {
		fmt.Println("\n  No rules.")
		return nil
	}

	rows := make([][]string, 0, len(snap.Rules))
	for _, r := range snap.Rules {
		name := r.EnvelopeID
		if env, err := findEnvelope(snap, r.EnvelopeID); err == nil {
			name = env.Name
		}
		rows = append(rows, []string{r.ID, r.Keyword, name, yesNo(r.IsActive)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Keyword", "Envelope", "Active"},
		Rows:    rows,
	}))
	return nil
}

func runRuleDelete(_ *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.DeleteRule(s.ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Deleted rule %s\n", args[0])
	return nil
}
