package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/config"
	"github.com/theirongolddev/fundcast/internal/envelope"
	"github.com/theirongolddev/fundcast/internal/ledger"
	"github.com/theirongolddev/fundcast/internal/logger"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/pipeline"
	"github.com/theirongolddev/fundcast/internal/projection"
	"github.com/theirongolddev/fundcast/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagDB    string
	flagDays  int
	flagToday string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:           "fundcast",
	Short:         "Household cash-flow forecaster",
	Long:          "Track accounts, bills and income, and see whether your balance stays positive.",
	RunE:          runStatus,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Forecast horizon in days (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagToday, "today", "", "Pretend today is YYYY-MM-DD")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDB != "" {
		cfg.General.DBPath = flagDB
	}
	if flagDays > 0 {
		cfg.General.HorizonDays = flagDays
	}
	return cfg, nil
}

func resolveToday() (time.Time, error) {
	if flagToday == "" {
		return model.Today(), nil
	}
	d, err := model.ParseDate(flagToday)
	if err != nil {
		return time.Time{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

// session bundles what most commands need: config, logger, store and ledger.
type session struct {
	ctx    context.Context
	cfg    config.Config
	log    zerolog.Logger
	store  *store.Store
	ledger *ledger.Ledger
	today  time.Time
}

func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	today, err := resolveToday()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.General.LogLevel)
	st, err := store.Open(cfg.General.DBPath, store.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &session{
		ctx:    logger.WithContext(context.Background(), log),
		cfg:    cfg,
		log:    log,
		store:  st,
		ledger: ledger.New(st, ledger.WithLogger(log)),
		today:  today,
	}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing store")
	}
}

func (s *session) envelopes() *envelope.Engine {
	return envelope.NewEngine(s.store)
}

func (s *session) projector() projection.Projector {
	return projection.New(s.cfg.WarningThreshold())
}

// snapshot loads every record set, reporting progress unless --quiet.
func (s *session) snapshot() (*pipeline.Snapshot, error) {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		fmt.Fprintf(os.Stderr, "\r  Loading [%d/%d]", current, total)
		if current == total {
			fmt.Fprint(os.Stderr, "\r                \r")
		}
	}
	return pipeline.Load(s.ctx, s.store, progressFn)
}

func (s *session) money(d decimal.Decimal) string {
	return cli.FormatMoney(d, s.cfg.General.Currency)
}

func (s *session) horizon() int {
	return s.cfg.General.HorizonDays
}

// findAccount resolves an account by id or case-insensitive name.
func findAccount(snap *pipeline.Snapshot, ref string) (model.Account, error) {
	for _, a := range snap.Accounts {
		if a.ID == ref || strings.EqualFold(a.Name, ref) {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q: %w", ref, model.ErrNotFound)
}

func findBill(snap *pipeline.Snapshot, ref string) (model.Bill, error) {
	for _, b := range snap.Bills {
		if b.ID == ref || strings.EqualFold(b.Name, ref) {
			return b, nil
		}
	}
	return model.Bill{}, fmt.Errorf("bill %q: %w", ref, model.ErrNotFound)
}

func findIncome(snap *pipeline.Snapshot, ref string) (model.Income, error) {
	for _, in := range snap.Incomes {
		if in.ID == ref || strings.EqualFold(in.Name, ref) {
			return in, nil
		}
	}
	return model.Income{}, fmt.Errorf("income %q: %w", ref, model.ErrNotFound)
}

func findEnvelope(snap *pipeline.Snapshot, ref string) (model.Envelope, error) {
	for _, e := range snap.Envelopes {
		if e.ID == ref || strings.EqualFold(e.Name, ref) {
			return e, nil
		}
	}
	return model.Envelope{}, fmt.Errorf("envelope %q: %w", ref, model.ErrNotFound)
}

// findObligation resolves a bill or income reference to its obligation id.
func findObligation(snap *pipeline.Snapshot, ref string) (string, string, error) {
	if b, err := findBill(snap, ref); err == nil {
		return b.ID, b.Name, nil
	}
	if in, err := findIncome(snap, ref); err == nil {
		return in.ID, in.Name, nil
	}
	return "", "", fmt.Errorf("bill or income %q: %w", ref, model.ErrNotFound)
}

func parseDateFlag(name, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func parseMoneyArg(name, value string) (decimal.Decimal, error) {
	d, err := model.ParseMoney(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
