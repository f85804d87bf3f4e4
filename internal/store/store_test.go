package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/envelope"
	"github.com/theirongolddev/fundcast/internal/ledger"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/pipeline"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "fundcast.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func money(s string) decimal.Decimal { return model.MustMoney(s) }

func mustAccount(t *testing.T, s *Store, id, balance string) model.Account {
	t.Helper()
	a, err := s.InsertAccount(context.Background(), model.Account{ID: id, Name: id, Kind: model.Checking, StartingBalance: money(balance)})
	if err != nil {
		t.Fatalf("InsertAccount(%s): %v", id, err)
	}
	return a
}

func balanceOf(t *testing.T, s *Store, id string) decimal.Decimal {
	t.Helper()
	a, err := s.Account(context.Background(), id)
	if err != nil {
		t.Fatalf("Account(%s): %v", id, err)
	}
	return a.CurrentBalance
}

func TestLedgerRoundTripPersists(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "1000")
	l := ledger.New(s)

	txn, err := l.Insert(ctx, model.Transaction{AccountID: "chk", Kind: model.KindIncome, Amount: money("500"), Date: model.Date(2024, 1, 1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("1500")) {
		t.Fatalf("after insert = %s, want 1500", got)
	}

	txn.Kind = model.KindBillPayment
	txn.Amount = money("200")
	if _, err := l.Update(ctx, txn); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("800")) {
		t.Fatalf("after update = %s, want 800", got)
	}

	stored, err := s.Transaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if stored.Kind != model.KindBillPayment || !stored.Amount.Equal(money("200")) {
		t.Fatalf("stored = %+v", stored)
	}
	if !stored.Date.Equal(model.Date(2024, 1, 1)) {
		t.Fatalf("stored date = %s", stored.Date)
	}

	if err := l.Delete(ctx, txn.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("1000")) {
		t.Fatalf("after delete = %s, want 1000", got)
	}
	if _, err := s.Transaction(ctx, txn.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted transaction lookup = %v, want ErrNotFound", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "100")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx ledger.Tx) error {
		if err := tx.SetCurrentBalance(ctx, "chk", money("5")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("100")) {
		t.Fatalf("balance = %s, want 100 after rollback", got)
	}
}

func TestPayBillUniqueness(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "1000")
	bill, err := s.InsertBill(ctx, model.Bill{
		Obligation: model.Obligation{Name: "Rent", Amount: money("700"), Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 1), IsActive: true},
		AccountID:  "chk",
	})
	if err != nil {
		t.Fatalf("InsertBill: %v", err)
	}

	l := ledger.New(s)
	due := model.Date(2024, 2, 1)
	p, err := l.PayBill(ctx, ledger.PayBillInput{BillID: bill.ID, Date: due, Amount: money("700")})
	if err != nil {
		t.Fatalf("PayBill: %v", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("300")) {
		t.Fatalf("balance = %s, want 300", got)
	}

	if _, err := l.PayBill(ctx, ledger.PayBillInput{BillID: bill.ID, Date: due, Amount: money("700")}); !errors.Is(err, ledger.ErrAlreadyPaid) {
		t.Fatalf("second PayBill = %v, want ErrAlreadyPaid", err)
	}
	dup := p
	dup.ID = "other"
	if err := s.InsertPayment(ctx, dup); !errors.Is(err, model.ErrDuplicate) {
		t.Fatalf("duplicate InsertPayment = %v, want ErrDuplicate", err)
	}

	payments, err := s.Payments(ctx)
	if err != nil {
		t.Fatalf("Payments: %v", err)
	}
	if len(payments) != 1 || payments[0].TransactionID == "" {
		t.Fatalf("payments = %+v, want one linked payment", payments)
	}

	if err := l.UnpayBill(ctx, bill.ID, due); err != nil {
		t.Fatalf("UnpayBill: %v", err)
	}
	if got := balanceOf(t, s, "chk"); !got.Equal(money("1000")) {
		t.Fatalf("balance after unpay = %s, want 1000", got)
	}
}

func TestOverridesUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	day := model.Date(2024, 3, 5)

	for _, amt := range []string{"120", "95.5"} {
		if err := s.SetOverride(ctx, model.Override{ObligationID: "rent", Date: day, Amount: money(amt)}); err != nil {
			t.Fatalf("SetOverride: %v", err)
		}
	}
	got, err := s.Overrides(ctx)
	if err != nil {
		t.Fatalf("Overrides: %v", err)
	}
	if len(got) != 1 || !got[0].Amount.Equal(money("95.50")) {
		t.Fatalf("overrides = %+v, want one override of 95.50", got)
	}

	if err := s.ClearOverride(ctx, "rent", day); err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if err := s.ClearOverride(ctx, "rent", day); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second ClearOverride = %v, want ErrNotFound", err)
	}
}

func TestObligationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "0")

	end := model.Date(2024, 12, 31)
	b, err := s.InsertBill(ctx, model.Bill{
		Obligation:         model.Obligation{Name: "Visa", Amount: money("250"), Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 20), EndDate: &end, IsActive: true},
		AccountID:          "chk",
		ReminderDaysBefore: 4,
		IsCreditCard:       true,
	})
	if err != nil {
		t.Fatalf("InsertBill: %v", err)
	}
	got, err := s.Bill(ctx, b.ID)
	if err != nil {
		t.Fatalf("Bill: %v", err)
	}
	if !got.IsCreditCard || got.ReminderDaysBefore != 4 || got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Fatalf("bill = %+v", got)
	}

	got.IsActive = false
	if err := s.UpdateBill(ctx, got); err != nil {
		t.Fatalf("UpdateBill: %v", err)
	}
	bills, err := s.Bills(ctx)
	if err != nil {
		t.Fatalf("Bills: %v", err)
	}
	if len(bills) != 1 || bills[0].IsActive {
		t.Fatalf("bills = %+v, want one inactive bill", bills)
	}

	in, err := s.InsertIncome(ctx, model.Income{
		Obligation: model.Obligation{Name: "Pay", Amount: money("1500"), Recurrence: model.BiWeekly, StartDate: model.Date(2024, 1, 5), IsActive: true},
		AccountID:  "chk",
	})
	if err != nil {
		t.Fatalf("InsertIncome: %v", err)
	}
	if _, err := s.InsertIncome(ctx, in); !errors.Is(err, model.ErrDuplicate) {
		t.Fatalf("duplicate InsertIncome = %v, want ErrDuplicate", err)
	}
	if _, err := s.Income(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Income(missing) = %v, want ErrNotFound", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "1000")
	mustAccount(t, s, "sav", "0")
	mustAccount(t, s, "card", "0")
	l := ledger.New(s)

	for _, txn := range []model.Transaction{
		{AccountID: "chk", ToAccountID: "sav", Kind: model.KindTransfer, Amount: money("250"), Date: model.Date(2024, 1, 2)},
		{AccountID: "card", ToAccountID: "sav", Kind: model.KindTransfer, Amount: money("30"), Date: model.Date(2024, 1, 3)},
		{AccountID: "sav", Kind: model.KindIncome, Amount: money("10"), Date: model.Date(2024, 1, 4)},
	} {
		if _, err := l.Insert(ctx, txn); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	// chk sent money out; sav must lose that credit.
	if err := l.DeleteAccount(ctx, "chk"); err != nil {
		t.Fatalf("DeleteAccount(chk): %v", err)
	}
	assertLedgerConsistent(t, s)
	if got := balanceOf(t, s, "sav"); !got.Equal(money("40")) {
		t.Fatalf("sav = %s, want 40 after the transfer source was deleted", got)
	}

	// sav received money; card must get it back.
	if err := l.DeleteAccount(ctx, "sav"); err != nil {
		t.Fatalf("DeleteAccount(sav): %v", err)
	}
	assertLedgerConsistent(t, s)
	if got := balanceOf(t, s, "card"); !got.Equal(money("0")) {
		t.Fatalf("card = %s, want 0 after the transfer target was deleted", got)
	}
	txns, err := s.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("transactions = %+v, want none", txns)
	}
	if err := l.DeleteAccount(ctx, "sav"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("second DeleteAccount = %v, want ErrAccountNotFound", err)
	}
}

// assertLedgerConsistent checks every account's current balance against its
// starting balance plus the effects of the stored transactions.
func assertLedgerConsistent(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	accounts, err := s.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	txns, err := s.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	want := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		want[a.ID] = a.StartingBalance
	}
	for _, txn := range txns {
		for id, d := range ledger.EffectOf(txn).Deltas() {
			want[id] = want[id].Add(d)
		}
	}
	for _, a := range accounts {
		if !a.CurrentBalance.Equal(want[a.ID]) {
			t.Fatalf("%s current = %s, starting plus transactions = %s", a.ID, a.CurrentBalance, want[a.ID])
		}
	}
}

func TestReadViewIgnoresLaterCommits(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "1000")
	l := ledger.New(s)

	err := s.ReadView(ctx, func(view pipeline.Source) error {
		accounts, err := view.Accounts(ctx)
		if err != nil {
			return err
		}
		if _, err := l.Insert(ctx, model.Transaction{AccountID: "chk", Kind: model.KindIncome, Amount: money("50"), Date: model.Date(2024, 1, 2)}); err != nil {
			return err
		}
		txns, err := view.Transactions(ctx)
		if err != nil {
			return err
		}
		if !accounts[0].CurrentBalance.Equal(money("1000")) || len(txns) != 0 {
			t.Errorf("view saw balance %s with %d transactions, want 1000 and none", accounts[0].CurrentBalance, len(txns))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ReadView: %v", err)
	}

	snap, err := pipeline.Load(ctx, s, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !snap.Accounts[0].CurrentBalance.Equal(money("1050")) || len(snap.Transactions) != 1 {
		t.Fatalf("snapshot balance %s with %d transactions, want 1050 and 1", snap.Accounts[0].CurrentBalance, len(snap.Transactions))
	}
}

func TestUpdateAccountShiftsBalance(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	a := mustAccount(t, s, "chk", "1000")
	l := ledger.New(s)
	if _, err := l.Insert(ctx, model.Transaction{AccountID: "chk", Kind: model.KindBillPayment, Amount: money("100"), Date: model.Date(2024, 1, 2)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	a.StartingBalance = money("1200")
	got, err := l.UpdateAccount(ctx, a)
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if !got.CurrentBalance.Equal(money("1100")) {
		t.Fatalf("current = %s, want 1100", got.CurrentBalance)
	}
	assertLedgerConsistent(t, s)
}

func TestEnvelopeEngineOverStore(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	mustAccount(t, s, "chk", "2000")
	env, err := s.InsertEnvelope(ctx, model.Envelope{
		Name: "Groceries", BudgetedAmount: money("400"), PeriodKind: model.Monthly, CarryOverEnabled: true, IsActive: true,
	})
	if err != nil {
		t.Fatalf("InsertEnvelope: %v", err)
	}
	if _, err := s.InsertRule(ctx, model.CategorizationRule{EnvelopeID: env.ID, Keyword: "market", IsActive: true}); err != nil {
		t.Fatalf("InsertRule: %v", err)
	}

	eng := envelope.NewEngine(s)
	if _, err := eng.Allocate(ctx, envelope.AllocateInput{EnvelopeID: env.ID, Date: model.Date(2024, 3, 10), Amount: money("400")}); err != nil {
		t.Fatalf("Allocate March: %v", err)
	}
	if _, err := eng.Allocate(ctx, envelope.AllocateInput{EnvelopeID: env.ID, Date: model.Date(2024, 3, 20), Amount: money("50")}); !errors.Is(err, envelope.ErrDuplicateAllocation) {
		t.Fatalf("second March allocation = %v, want ErrDuplicateAllocation", err)
	}

	spend, err := ledger.New(s).Insert(ctx, model.Transaction{
		AccountID: "chk", Kind: model.KindBillPayment, Amount: money("150"), Date: model.Date(2024, 3, 15), Description: "Corner Market",
	})
	if err != nil {
		t.Fatalf("Insert spend: %v", err)
	}
	if spend.EnvelopeID != env.ID {
		t.Fatalf("spend envelope = %q, want %q", spend.EnvelopeID, env.ID)
	}

	april, err := eng.Allocate(ctx, envelope.AllocateInput{EnvelopeID: env.ID, Date: model.Date(2024, 4, 1), Amount: money("400")})
	if err != nil {
		t.Fatalf("Allocate April: %v", err)
	}
	if !april.Amount.Equal(money("650")) {
		t.Fatalf("April allocation = %s, want 650 (400 + 250 carried)", april.Amount)
	}
	if !april.PeriodEnd.Equal(model.Date(2024, 4, 30)) {
		t.Fatalf("April period end = %s", april.PeriodEnd)
	}

	allocs, err := s.Allocations(ctx)
	if err != nil {
		t.Fatalf("Allocations: %v", err)
	}
	if len(allocs) != 2 {
		t.Fatalf("allocations = %d, want 2", len(allocs))
	}
}

func TestEnvelopeTransfersAndRules(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	a, _ := s.InsertEnvelope(ctx, model.Envelope{Name: "Fun", BudgetedAmount: money("100"), PeriodKind: model.Monthly, IsActive: true})
	b, _ := s.InsertEnvelope(ctx, model.Envelope{Name: "Gas", BudgetedAmount: money("100"), PeriodKind: model.Monthly, IsActive: true})

	eng := envelope.NewEngine(s)
	if _, err := eng.Transfer(ctx, model.EnvelopeTransfer{FromEnvelopeID: a.ID, ToEnvelopeID: b.ID, Amount: money("25"), Date: model.Date(2024, 5, 2)}); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	transfers, err := s.EnvelopeTransfers(ctx)
	if err != nil {
		t.Fatalf("EnvelopeTransfers: %v", err)
	}
	if len(transfers) != 1 || !transfers[0].Amount.Equal(money("25")) {
		t.Fatalf("transfers = %+v", transfers)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inactive, _ := s.InsertRule(ctx, model.CategorizationRule{EnvelopeID: a.ID, Keyword: "shell", CreatedAt: base})
	if _, err := s.InsertRule(ctx, model.CategorizationRule{EnvelopeID: b.ID, Keyword: "shell", IsActive: true, CreatedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("InsertRule: %v", err)
	}
	active, err := s.ActiveRules(ctx)
	if err != nil {
		t.Fatalf("ActiveRules: %v", err)
	}
	if len(active) != 1 || active[0].EnvelopeID != b.ID {
		t.Fatalf("active rules = %+v", active)
	}
	if err := s.DeleteRule(ctx, inactive.ID); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	all, _ := s.Rules(ctx)
	if len(all) != 1 {
		t.Fatalf("rules after delete = %d, want 1", len(all))
	}
}
