package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

type memSource struct {
	mu       sync.Mutex
	accounts []model.Account
	bills    []model.Bill
	payments []model.Payment
}

func (m *memSource) Accounts(context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Account(nil), m.accounts...), nil
}

func (m *memSource) Bills(context.Context) ([]model.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Bill(nil), m.bills...), nil
}

func (m *memSource) Payments(context.Context) ([]model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Payment(nil), m.payments...), nil
}

func (m *memSource) Incomes(context.Context) ([]model.Income, error) { return nil, nil }
func (m *memSource) Overrides(context.Context) ([]model.Override, error) { return nil, nil }
func (m *memSource) Transactions(context.Context) ([]model.Transaction, error) { return nil, nil }
func (m *memSource) Envelopes(context.Context) ([]model.Envelope, error) { return nil, nil }
func (m *memSource) Allocations(context.Context) ([]model.EnvelopeAllocation, error) {
	return nil, nil
}
func (m *memSource) EnvelopeTransfers(context.Context) ([]model.EnvelopeTransfer, error) {
	return nil, nil
}
func (m *memSource) Rules(context.Context) ([]model.CategorizationRule, error) { return nil, nil }

func shortfall() *memSource {
	return &memSource{
		accounts: []model.Account{{ID: "chk", Name: "Checking", CurrentBalance: model.MustMoney("150")}},
		bills: []model.Bill{{
			Obligation: model.Obligation{
				ID: "rent", Name: "Rent", Amount: model.MustMoney("200"),
				Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 3), IsActive: true,
			},
			AccountID:          "chk",
			ReminderDaysBefore: 3,
		}},
	}
}

func testService(src *memSource) *Service {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	return New(Config{
		Interval:     10 * time.Second,
		HorizonDays:  5,
		ReminderDays: 3,
		Now:          func() time.Time { return now },
	}, src)
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Balance:       decimal.NewFromInt(1000),
		EndBalance:    decimal.NewFromInt(400),
		FirstNegative: "",
		reminderKeys:  []string{"rent@2024-02-03"},
	}
	curr := Snapshot{
		Balance:       decimal.NewFromInt(900),
		EndBalance:    decimal.NewFromInt(-50),
		FirstNegative: "2024-02-03",
		reminderKeys:  []string{"rent@2024-02-03"},
	}

	delta := diffSnapshots(prev, curr)
	if !delta.Balance.Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("Balance delta = %s, want -100", delta.Balance)
	}
	if !delta.EndBalance.Equal(decimal.NewFromInt(-450)) {
		t.Fatalf("EndBalance delta = %s, want -450", delta.EndBalance)
	}
	if !delta.NegativeChanged {
		t.Fatal("NegativeChanged = false, want true")
	}
	if delta.WarningChanged || delta.RemindersChanged {
		t.Fatalf("delta = %+v, want only the negative day to change", delta)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	}, &memSource{})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceAlertsOnChange(t *testing.T) {
	src := shortfall()
	s := testService(src)
	ctx := context.Background()

	s.pollOnce(ctx)
	st := s.snapshotStatus()
	if st.Summary.FirstNegative != "2024-02-03" {
		t.Fatalf("FirstNegative = %q, want 2024-02-03", st.Summary.FirstNegative)
	}
	if st.Summary.Reminders != 1 {
		t.Fatalf("Reminders = %d, want 1", st.Summary.Reminders)
	}
	if !st.Summary.Lowest.Equal(model.MustMoney("-50")) {
		t.Fatalf("Lowest = %s, want -50", st.Summary.Lowest)
	}
	if st.EventCount != 1 {
		t.Fatalf("events after first poll = %d, want 1", st.EventCount)
	}

	// Unchanged data publishes nothing new.
	s.pollOnce(ctx)
	if got := s.snapshotStatus().EventCount; got != 1 {
		t.Fatalf("events after idle poll = %d, want 1", got)
	}

	src.mu.Lock()
	src.payments = []model.Payment{{ID: "p", BillID: "rent", AccountID: "chk", Date: model.Date(2024, 2, 3), Amount: model.MustMoney("200")}}
	src.mu.Unlock()

	s.pollOnce(ctx)
	s.mu.RLock()
	last := s.events[len(s.events)-1]
	s.mu.RUnlock()
	if last.Type != "forecast_alert" {
		t.Fatalf("event type = %q, want forecast_alert", last.Type)
	}
	if !last.Delta.NegativeChanged || !last.Delta.RemindersChanged {
		t.Fatalf("delta = %+v, want negative and reminder changes", last.Delta)
	}
	if last.Snapshot.FirstNegative != "" || last.Snapshot.Reminders != 0 {
		t.Fatalf("snapshot = %+v, want a clear forecast", last.Snapshot)
	}
}

func TestHandlers(t *testing.T) {
	s := testService(shortfall())
	s.pollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/reminders")
	if err != nil {
		t.Fatalf("GET reminders: %v", err)
	}
	defer resp.Body.Close()
	var reminders []Reminder
	if err := json.NewDecoder(resp.Body).Decode(&reminders); err != nil {
		t.Fatalf("decode reminders: %v", err)
	}
	if len(reminders) != 1 || reminders[0].BillID != "rent" || reminders[0].DaysUntil != 2 {
		t.Fatalf("reminders = %+v", reminders)
	}

	resp2, err := http.Get(srv.URL + "/v1/forecast")
	if err != nil {
		t.Fatalf("GET forecast: %v", err)
	}
	defer resp2.Body.Close()
	var days []Day
	if err := json.NewDecoder(resp2.Body).Decode(&days); err != nil {
		t.Fatalf("decode forecast: %v", err)
	}
	if len(days) != 6 {
		t.Fatalf("forecast days = %d, want 6", len(days))
	}
	if !days[2].IsNegative || !days[2].Bills.Equal(model.MustMoney("200")) {
		t.Fatalf("day 3 = %+v, want the rent shortfall", days[2])
	}
}
