package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/config"
	"github.com/theirongolddev/fundcast/internal/daemon"
	"github.com/theirongolddev/fundcast/internal/logger"
	"github.com/theirongolddev/fundcast/internal/projection"
	"github.com/theirongolddev/fundcast/internal/store"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonStateFile    string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
	flagDaemonEventsLimit  int
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background forecast and reminder daemon with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

var daemonEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recent forecast events from the running daemon",
	RunE:  runDaemonEvents,
}

func init() {
	dataDir := filepath.Dir(config.DefaultDBPath())

	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	pf.StringVar(&flagDaemonStateFile, "state-file", filepath.Join(dataDir, "fundcastd.json"), "Daemon state file (pid, address)")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(dataDir, "fundcastd.log"), "Log file path for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonEventsCmd.Flags().IntVar(&flagDaemonEventsLimit, "limit", 20, "Number of most recent events to show")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd, daemonEventsCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonState is what a running daemon records about itself.
type daemonState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

func (s daemonState) alive() bool {
	if s.PID <= 0 {
		return false
	}
	proc, err := os.FindProcess(s.PID)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func loadDaemonState(path string) (daemonState, error) {
	var st daemonState
	data, err := os.ReadFile(path) //nolint:gosec // state path is configured by the local user
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parsing %s: %w", path, err)
	}
	return st, nil
}

func saveDaemonState(path string, st daemonState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// runningDaemon returns the recorded daemon if its process is alive.
// A stale state file is removed.
func runningDaemon(path string) (daemonState, bool) {
	st, err := loadDaemonState(path)
	if err != nil {
		return st, false
	}
	if !st.alive() {
		_ = os.Remove(path)
		return st, false
	}
	return st, true
}

// applyDaemonDefaults fills unset daemon flags from the config file.
func applyDaemonDefaults(cfg config.Config) {
	if flagDaemonAddr == "" {
		flagDaemonAddr = cfg.Daemon.Addr
	}
	if flagDaemonInterval == 0 {
		flagDaemonInterval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyDaemonDefaults(cfg)

	if st, ok := runningDaemon(flagDaemonStateFile); ok {
		return fmt.Errorf("daemon already running (pid %d on %s)", st.PID, st.Addr)
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground(cfg)
}

// startDaemonDetached re-executes the current binary as a child with output
// redirected to the log file.
func startDaemonDetached() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := make([]string, 0, len(os.Args))
	for _, a := range os.Args[1:] {
		if a != "--detach" && a != "--detach=true" {
			args = append(args, a)
		}
	}
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // log path is configured by the local user
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // re-executes the current binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  API: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground(cfg config.Config) error {
	state := daemonState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		DBPath:    cfg.General.DBPath,
	}
	if err := saveDaemonState(flagDaemonStateFile, state); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonStateFile) }()

	log := logger.New(cfg.General.LogLevel)
	st, err := store.Open(cfg.General.DBPath, store.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	svc := daemon.New(daemon.Config{
		Interval:     flagDaemonInterval,
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
		HorizonDays:  cfg.General.HorizonDays,
		ReminderDays: cfg.Reminders.DefaultDaysBefore,
		Projector:    projection.New(cfg.WarningThreshold()),
		Log:          log,
	}, st)

	fmt.Printf("  fundcast daemon listening on http://%s\n", flagDaemonAddr)
	fmt.Printf("  Polling %s every %s\n", cfg.General.DBPath, flagDaemonInterval)
	fmt.Println("  Stop with: fundcast daemon stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(logger.WithContext(ctx, log)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// daemonGet decodes a JSON endpoint of the running daemon into out.
func daemonGet(addr, path string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, ok := runningDaemon(flagDaemonStateFile)
	if !ok {
		fmt.Println("  Daemon: not running")
		return nil
	}

	var status daemon.Status
	if err := daemonGet(st.Addr, "/v1/status", &status); err != nil {
		fmt.Printf("  Daemon pid %d on http://%s\n", st.PID, st.Addr)
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	money := func(d decimal.Decimal) string { return cli.FormatMoney(d, cfg.General.Currency) }
	lastPoll := "pending"
	if !status.LastPollAt.IsZero() {
		lastPoll = status.LastPollAt.Local().Format(time.RFC3339)
	}
	firstNeg := status.Summary.FirstNegative
	if firstNeg == "" {
		firstNeg = "none"
	}

	rows := [][]string{
		{"PID", strconv.Itoa(st.PID)},
		{"Address", "http://" + st.Addr},
		{"Database", st.DBPath},
		{"Up since", st.StartedAt.Local().Format(time.RFC3339)},
		{"Last poll", lastPoll},
		{"Polls", strconv.FormatInt(status.PollCount, 10)},
		{"Balance", money(status.Summary.Balance)},
		{"Lowest", money(status.Summary.Lowest) + " on " + status.Summary.LowestDate},
		{"First negative", firstNeg},
		{"Reminders", strconv.Itoa(status.Summary.Reminders)},
		{"Subscribers", strconv.Itoa(status.SubscriberCount)},
	}
	if status.LastError != "" {
		rows = append(rows, []string{"Last error", status.LastError})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Daemon", Headers: []string{"Field", "Value"}, Rows: rows}))
	return nil
}

func runDaemonEvents(_ *cobra.Command, _ []string) error {
	st, ok := runningDaemon(flagDaemonStateFile)
	if !ok {
		return errors.New("daemon is not running")
	}

	var events []daemon.Event
	if err := daemonGet(st.Addr, "/v1/events", &events); err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("  No events yet.")
		return nil
	}
	if flagDaemonEventsLimit > 0 && len(events) > flagDaemonEventsLimit {
		events = events[len(events)-flagDaemonEventsLimit:]
	}

	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		change := ""
		if !ev.Delta.EndBalance.IsZero() {
			change = cli.FormatSigned(ev.Delta.EndBalance, "")
		}
		rows = append(rows, []string{
			strconv.FormatInt(ev.ID, 10),
			ev.Timestamp.Local().Format("01-02 15:04:05"),
			ev.Type,
			ev.Snapshot.FirstNegative,
			strconv.Itoa(ev.Snapshot.Reminders),
			change,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Daemon events",
		Headers: []string{"ID", "Time", "Type", "First negative", "Reminders", "End change"},
		Rows:    rows,
	}))
	return nil
}

var errStillRunning = errors.New("still running")

func runDaemonStop(_ *cobra.Command, _ []string) error {
	st, ok := runningDaemon(flagDaemonStateFile)
	if !ok {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(st.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	err = retry.Do(
		func() error {
			if st.alive() {
				return errStillRunning
			}
			return nil
		},
		retry.Attempts(50),
		retry.Delay(150*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("daemon (pid %d) did not exit in time", st.PID)
	}

	_ = os.Remove(flagDaemonStateFile)
	fmt.Printf("  Stopped daemon (pid %d)\n", st.PID)
	return nil
}
