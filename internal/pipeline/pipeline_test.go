package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/optimizer"
	"github.com/theirongolddev/fundcast/internal/projection"
)

type fakeSource struct {
	snap Snapshot
	fail error
}

func (f fakeSource) Accounts(context.Context) ([]model.Account, error) { return f.snap.Accounts, f.fail }
func (f fakeSource) Incomes(context.Context) ([]model.Income, error) { return f.snap.Incomes, nil }
func (f fakeSource) Bills(context.Context) ([]model.Bill, error) { return f.snap.Bills, nil }
func (f fakeSource) Overrides(context.Context) ([]model.Override, error) {
	return f.snap.Overrides, nil
}
func (f fakeSource) Payments(context.Context) ([]model.Payment, error) { return f.snap.Payments, nil }
func (f fakeSource) Transactions(context.Context) ([]model.Transaction, error) {
	return f.snap.Transactions, nil
}
func (f fakeSource) Envelopes(context.Context) ([]model.Envelope, error) { return f.snap.Envelopes, nil }
func (f fakeSource) Allocations(context.Context) ([]model.EnvelopeAllocation, error) {
	return f.snap.Allocations, nil
}
func (f fakeSource) EnvelopeTransfers(context.Context) ([]model.EnvelopeTransfer, error) {
	return f.snap.Transfers, nil
}
func (f fakeSource) Rules(context.Context) ([]model.CategorizationRule, error) { return f.snap.Rules, nil }

func money(s string) decimal.Decimal { return model.MustMoney(s) }

func household() Snapshot {
	return Snapshot{
		Accounts: []model.Account{
			{ID: "chk", Name: "Checking", CurrentBalance: money("1000")},
			{ID: "sav", Name: "Savings", CurrentBalance: money("5000")},
		},
		Incomes: []model.Income{{
			Obligation: model.Obligation{ID: "pay", Name: "Paycheck", Amount: money("300"), Recurrence: model.Weekly, StartDate: model.Date(2024, 1, 1), IsActive: true},
			AccountID:  "chk",
		}},
		Bills: []model.Bill{
			{Obligation: model.Obligation{ID: "rent", Name: "Rent", Amount: money("200"), Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 5), IsActive: true}, AccountID: "chk", ReminderDaysBefore: 5},
			{Obligation: model.Obligation{ID: "visa", Name: "Visa", Amount: money("1500"), Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 3), IsActive: true}, AccountID: "chk", IsCreditCard: true},
		},
		Envelopes: []model.Envelope{{ID: "food", Name: "Food", PeriodKind: model.Monthly, IsActive: true}},
		Allocations: []model.EnvelopeAllocation{{
			ID: "a1", EnvelopeID: "food", Amount: money("300"), PeriodStart: model.Date(2024, 1, 1), PeriodEnd: model.Date(2024, 1, 31),
		}},
	}
}

func TestLoad(t *testing.T) {
	src := fakeSource{snap: household()}
	var calls atomic.Int64
	snap, err := Load(context.Background(), src, func(current, total int) {
		calls.Add(1)
		if total != 10 {
			t.Errorf("total = %d, want 10", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls.Load() != 10 {
		t.Fatalf("progress calls = %d, want 10", calls.Load())
	}
	if len(snap.Accounts) != 2 || len(snap.Bills) != 2 || snap.LoadedAt.IsZero() {
		t.Fatalf("snapshot = %+v", snap)
	}

	src.fail = errors.New("disk gone")
	if _, err := Load(context.Background(), src, nil); err == nil {
		t.Fatal("Load succeeded with a failing source")
	}
}

// pinnedSource fails every direct read so Load must go through its view.
type pinnedSource struct {
	fakeSource
	view  fakeSource
	views *atomic.Int64
}

func (p pinnedSource) ReadView(_ context.Context, fn func(view Source) error) error {
	p.views.Add(1)
	return fn(p.view)
}

func TestLoadUsesPinnedView(t *testing.T) {
	var views atomic.Int64
	src := pinnedSource{
		fakeSource: fakeSource{fail: errors.New("read outside the view")},
		view:       fakeSource{snap: household()},
		views:      &views,
	}
	snap, err := Load(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if views.Load() != 1 {
		t.Fatalf("views opened = %d, want 1", views.Load())
	}
	if len(snap.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2 from the view", len(snap.Accounts))
	}
}

func TestForecastScopesAccounts(t *testing.T) {
	snap := household()
	from := model.Date(2024, 1, 1)

	all := snap.Forecast(projection.Projector{}, from, 4)
	if len(all) != 5 {
		t.Fatalf("days = %d, want 5", len(all))
	}
	if !all[0].Balance.Equal(money("6300")) {
		t.Fatalf("all accounts day 1 = %s, want 6300", all[0].Balance)
	}

	chk := snap.Forecast(projection.Projector{}, from, 4, "chk")
	if !chk[0].Balance.Equal(money("1300")) {
		t.Fatalf("checking day 1 = %s, want 1300", chk[0].Balance)
	}
}

func TestUpcomingAndReminders(t *testing.T) {
	snap := household()
	snap.Payments = []model.Payment{{ID: "p", BillID: "rent", AccountID: "chk", Date: model.Date(2024, 1, 5), Amount: money("200")}}

	bills, incomes := snap.Upcoming(model.Date(2024, 1, 1), 6)
	if len(bills) != 2 || bills[0].IsRealized || !bills[1].IsRealized {
		t.Fatalf("bills = %+v", bills)
	}
	if len(incomes) != 1 {
		t.Fatalf("incomes = %+v", incomes)
	}

	rem := snap.Reminders(model.Date(2024, 2, 1), 3)
	if len(rem) != 2 {
		t.Fatalf("reminders = %+v, want rent (5-day window) and visa (default 3)", rem)
	}
	if rem[0].Bill.ID != "visa" || rem[0].DaysUntil != 2 || rem[1].Bill.ID != "rent" || rem[1].DaysUntil != 4 {
		t.Fatalf("reminders = %+v", rem)
	}
}

func TestEnvelopeSummaries(t *testing.T) {
	snap := household()
	snap.Transactions = []model.Transaction{
		{ID: "t", AccountID: "chk", Kind: model.KindBillPayment, Amount: money("45.25"), Date: model.Date(2024, 1, 9), EnvelopeID: "food"},
	}
	got := snap.EnvelopeSummaries(model.Date(2024, 1, 20))
	if len(got) != 1 || !got[0].Remaining.Equal(money("254.75")) {
		t.Fatalf("summaries = %+v", got)
	}
}

func TestSnapshotOptimize(t *testing.T) {
	snap := household()
	if ids := snap.CardBillIDs(); len(ids) != 1 || ids[0] != "visa" {
		t.Fatalf("CardBillIDs = %v", ids)
	}
	// 6000 across both accounts covers the 1500 card bill without any reduction.
	res, err := snap.Optimize(context.Background(), optimizer.DefaultConfig(), model.Date(2024, 2, 1), 10)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Iterations != 0 {
		t.Fatalf("iterations = %d, want 0", res.Iterations)
	}
}
