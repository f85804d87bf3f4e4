// Package daemon provides the long-running forecast and reminder service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/occurrence"
	"github.com/theirongolddev/fundcast/internal/pipeline"
	"github.com/theirongolddev/fundcast/internal/projection"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	HorizonDays  int
	ReminderDays int
	Projector    projection.Projector
	Now          func() time.Time
	Log          zerolog.Logger
}

// Snapshot is a compact forecast state for status and event payloads.
type Snapshot struct {
	At            time.Time       `json:"at"`
	Today         string          `json:"today"`
	HorizonDays   int             `json:"horizon_days"`
	Balance       decimal.Decimal `json:"balance"`
	EndBalance    decimal.Decimal `json:"end_balance"`
	Lowest        decimal.Decimal `json:"lowest"`
	LowestDate    string          `json:"lowest_date"`
	FirstNegative string          `json:"first_negative,omitempty"`
	FirstWarning  string          `json:"first_warning,omitempty"`
	Reminders     int             `json:"reminders"`

	reminderKeys []string
}

// Delta captures what changed between polls.
type Delta struct {
	Balance          decimal.Decimal `json:"balance"`
	EndBalance       decimal.Decimal `json:"end_balance"`
	NegativeChanged  bool            `json:"negative_changed"`
	WarningChanged   bool            `json:"warning_changed"`
	RemindersChanged bool            `json:"reminders_changed"`
}

func (d Delta) isZero() bool {
	return d.Balance.IsZero() &&
		d.EndBalance.IsZero() &&
		!d.NegativeChanged &&
		!d.WarningChanged &&
		!d.RemindersChanged
}

// alerting reports whether the change is worth a notification.
func (d Delta) alerting() bool {
	return d.NegativeChanged || d.WarningChanged || d.RemindersChanged
}

// Event is emitted whenever the forecast snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Day is one projected day as served at /v1/forecast.
type Day struct {
	Date       string          `json:"date"`
	Balance    decimal.Decimal `json:"balance"`
	IsNegative bool            `json:"is_negative"`
	IsWarning  bool            `json:"is_warning"`
	Income     decimal.Decimal `json:"income"`
	Bills      decimal.Decimal `json:"bills"`
}

// Reminder is one due bill as served at /v1/reminders.
type Reminder struct {
	BillID    string          `json:"bill_id"`
	Name      string          `json:"name"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	DaysUntil int             `json:"days_until"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	HorizonDays     int       `json:"horizon_days"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	src pipeline.Source

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	days        []Day
	reminders   []Reminder
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service reading records from src.
func New(cfg Config, src pipeline.Source) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.HorizonDays < 1 {
		cfg.HorizonDays = 30
	}
	if cfg.ReminderDays < 0 {
		cfg.ReminderDays = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/forecast", s.handleForecast)
	mux.HandleFunc("/v1/reminders", s.handleReminders)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	snapData, err := pipeline.Load(ctx, s.src, nil)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.cfg.Log.Error().Err(err).Msg("daemon poll failed")
		return
	}

	now := s.cfg.Now()
	today := model.Day(now)
	forecast := snapData.Forecast(s.cfg.Projector, today, s.cfg.HorizonDays)
	due := snapData.Reminders(today, s.cfg.ReminderDays)
	snap := buildSnapshot(now, s.cfg.HorizonDays, snapData.Accounts, forecast, due)

	var events []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.days = toDays(forecast)
	s.reminders = toReminders(due)
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		events = append(events, Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap})
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		typ := "forecast_delta"
		if delta.alerting() {
			typ = "forecast_alert"
		}
		s.nextEventID++
		events = append(events, Event{ID: s.nextEventID, Type: typ, Timestamp: now, Snapshot: snap, Delta: delta})
	}
	s.mu.Unlock()

	for _, ev := range events {
		if ev.Type == "forecast_alert" {
			s.cfg.Log.Info().
				Str("first_negative", ev.Snapshot.FirstNegative).
				Str("first_warning", ev.Snapshot.FirstWarning).
				Int("reminders", ev.Snapshot.Reminders).
				Msg("forecast alert")
		}
		s.publishEvent(ev)
	}
}

func buildSnapshot(at time.Time, horizon int, accounts []model.Account, days []model.DaySummary, due []occurrence.Reminder) Snapshot {
	snap := Snapshot{
		At:          at,
		Today:       model.FormatDate(model.Day(at)),
		HorizonDays: horizon,
		Balance:     decimal.Zero,
		EndBalance:  decimal.Zero,
		Lowest:      decimal.Zero,
		Reminders:   len(due),
	}
	for _, a := range accounts {
		snap.Balance = snap.Balance.Add(a.CurrentBalance)
	}
	snap.Balance = model.RoundMoney(snap.Balance)

	if len(days) > 0 {
		snap.EndBalance = days[len(days)-1].Balance
	}
	if low, ok := projection.Lowest(days); ok {
		snap.Lowest = low.Balance
		snap.LowestDate = model.FormatDate(low.Date)
	}
	neg, warn := projection.FirstFlagged(days)
	if neg != nil {
		snap.FirstNegative = model.FormatDate(neg.Date)
	}
	if warn != nil {
		snap.FirstWarning = model.FormatDate(warn.Date)
	}

	for _, r := range due {
		snap.reminderKeys = append(snap.reminderKeys, r.Bill.ID+"@"+model.FormatDate(r.Occurrence.Date))
	}
	sort.Strings(snap.reminderKeys)
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Balance:          curr.Balance.Sub(prev.Balance),
		EndBalance:       curr.EndBalance.Sub(prev.EndBalance),
		NegativeChanged:  curr.FirstNegative != prev.FirstNegative,
		WarningChanged:   curr.FirstWarning != prev.FirstWarning,
		RemindersChanged: strings.Join(curr.reminderKeys, ",") != strings.Join(prev.reminderKeys, ","),
	}
}

func toDays(days []model.DaySummary) []Day {
	out := make([]Day, 0, len(days))
	for _, d := range days {
		day := Day{
			Date:       model.FormatDate(d.Date),
			Balance:    d.Balance,
			IsNegative: d.IsNegative,
			IsWarning:  d.IsWarning,
			Income:     decimal.Zero,
			Bills:      decimal.Zero,
		}
		for _, ev := range d.IncomeEvents {
			day.Income = day.Income.Add(ev.Amount)
		}
		for _, ev := range d.BillEvents {
			day.Bills = day.Bills.Add(ev.Amount)
		}
		out = append(out, day)
	}
	return out
}

func toReminders(due []occurrence.Reminder) []Reminder {
	out := make([]Reminder, 0, len(due))
	for _, r := range due {
		out = append(out, Reminder{
			BillID:    r.Bill.ID,
			Name:      r.Bill.Name,
			Date:      model.FormatDate(r.Occurrence.Date),
			Amount:    r.Occurrence.Amount,
			DaysUntil: r.DaysUntil,
		})
	}
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		HorizonDays:     s.cfg.HorizonDays,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleForecast(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	days := make([]Day, len(s.days))
	copy(days, s.days)
	s.mu.RUnlock()
	writeJSON(w, days)
}

func (s *Service) handleReminders(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	reminders := make([]Reminder, len(s.reminders))
	copy(reminders, s.reminders)
	s.mu.RUnlock()
	writeJSON(w, reminders)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()
	writeJSON(w, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
