package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/optimizer"

	"github.com/spf13/cobra"
)

var flagOptimizeStrategy string

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Suggest credit-card payments that keep every day non-negative",
	RunE:  runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&flagOptimizeStrategy, "strategy", "", "round-robin or proportional (overrides config)")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	name := s.cfg.Optimizer.Strategy
	if flagOptimizeStrategy != "" {
		name = flagOptimizeStrategy
	}
	strategy, err := optimizer.ParseStrategy(name)
	if err != nil {
		return err
	}

	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	cfg := optimizer.Config{
		Step:          s.cfg.OptimizerStep(),
		MaxIterations: s.cfg.Optimizer.MaxIterations,
		Strategy:      strategy,
		Projector:     s.projector(),
	}
	res, err := snap.Optimize(s.ctx, cfg, s.today, s.horizon())
	switch {
	case errors.Is(err, optimizer.ErrNoCards):
		fmt.Println("\n  No active credit-card bills to optimize.")
		return nil
	case errors.Is(err, optimizer.ErrInfeasible):
		fmt.Println()
		fmt.Printf("  No card payment plan keeps the balance positive for %d days.\n", s.horizon())
		fmt.Println("  Reduce expenses or add income, then try again.")
		fmt.Println()
		return nil
	case err != nil:
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CARD PAYMENTS  Next %dd", s.horizon())))
	fmt.Println()

	if res.Iterations == 0 {
		fmt.Println("  Paying every card in full already keeps the balance non-negative.")
		fmt.Println()
	}

	ids := make([]string, 0, len(res.Recommended))
	for id := range res.Recommended {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		name := id
		if b, ok := snap.Bill(id); ok {
			name = b.Name
		}
		rows = append(rows, []string{name, s.money(res.Original[id]), s.money(res.Recommended[id]), s.money(res.Savings(id))})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Card", "Scheduled", "Pay", "Deferred"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %s iterations (%s strategy)\n\n", cli.FormatNumber(int64(res.Iterations)), strategy)
	return nil
}
