package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

// memStore is an in-memory Store. WithTx works on a copy and swaps it in on
// success, so a failing fn leaves no partial writes behind.
type memStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	accounts map[string]model.Account
	txns     map[string]model.Transaction
	bills    map[string]model.Bill
	payments map[string]model.Payment
	rules    []model.CategorizationRule
}

func (s memState) clone() memState {
	c := memState{
		accounts: make(map[string]model.Account, len(s.accounts)),
		txns:     make(map[string]model.Transaction, len(s.txns)),
		bills:    make(map[string]model.Bill, len(s.bills)),
		payments: make(map[string]model.Payment, len(s.payments)),
		rules:    append([]model.CategorizationRule(nil), s.rules...),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.txns {
		c.txns[k] = v
	}
	for k, v := range s.bills {
		c.bills[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	return c
}

func newMemStore(accounts ...model.Account) *memStore {
	s := &memStore{state: memState{}.clone()}
	for _, a := range accounts {
		s.state.accounts[a.ID] = a
	}
	return s
}

func (s *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := &memTx{state: s.state.clone()}
	if err := fn(work); err != nil {
		return err
	}
	s.state = work.state
	return nil
}

func (s *memStore) balance(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.accounts[id].CurrentBalance
}

type memTx struct{ state memState }

func (t *memTx) Account(_ context.Context, id string) (model.Account, error) {
	a, ok := t.state.accounts[id]
	if !ok {
		return a, ErrNotFound
	}
	return a, nil
}

func (t *memTx) SetCurrentBalance(_ context.Context, id string, b decimal.Decimal) error {
	a := t.state.accounts[id]
	a.CurrentBalance = b
	t.state.accounts[id] = a
	return nil
}

func (t *memTx) UpdateAccountDetails(_ context.Context, a model.Account) error {
	prev := t.state.accounts[a.ID]
	prev.Name, prev.Kind, prev.StartingBalance = a.Name, a.Kind, a.StartingBalance
	t.state.accounts[a.ID] = prev
	return nil
}

func (t *memTx) DeleteAccount(_ context.Context, id string) error {
	if _, ok := t.state.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(t.state.accounts, id)
	for k, x := range t.state.txns {
		if x.AccountID == id || x.ToAccountID == id {
			delete(t.state.txns, k)
		}
	}
	return nil
}

func (t *memTx) AccountTransactions(_ context.Context, id string) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, x := range t.state.txns {
		if x.AccountID == id || x.ToAccountID == id {
			out = append(out, x)
		}
	}
	return out, nil
}

func (t *memTx) Transaction(_ context.Context, id string) (model.Transaction, error) {
	x, ok := t.state.txns[id]
	if !ok {
		return x, ErrNotFound
	}
	return x, nil
}

func (t *memTx) InsertTransaction(_ context.Context, x model.Transaction) error {
	if _, ok := t.state.txns[x.ID]; ok {
		return fmt.Errorf("duplicate transaction %s", x.ID)
	}
	t.state.txns[x.ID] = x
	return nil
}

func (t *memTx) UpdateTransaction(_ context.Context, x model.Transaction) error {
	t.state.txns[x.ID] = x
	return nil
}

func (t *memTx) DeleteTransaction(_ context.Context, id string) error {
	delete(t.state.txns, id)
	return nil
}

func (t *memTx) Bill(_ context.Context, id string) (model.Bill, error) {
	b, ok := t.state.bills[id]
	if !ok {
		return b, ErrNotFound
	}
	return b, nil
}

func (t *memTx) PaymentFor(_ context.Context, billID string, date time.Time) (model.Payment, error) {
	for _, p := range t.state.payments {
		if p.BillID == billID && p.Date.Equal(date) {
			return p, nil
		}
	}
	return model.Payment{}, ErrNotFound
}

func (t *memTx) InsertPayment(_ context.Context, p model.Payment) error {
	t.state.payments[p.ID] = p
	return nil
}

func (t *memTx) DeletePayment(_ context.Context, id string) error {
	delete(t.state.payments, id)
	return nil
}

func (t *memTx) ActiveRules(context.Context) ([]model.CategorizationRule, error) {
	var out []model.CategorizationRule
	for _, r := range t.state.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func money(s string) decimal.Decimal { return model.MustMoney(s) }

func checking(id, balance string) model.Account {
	b := money(balance)
	return model.Account{ID: id, Name: id, Kind: model.Checking, StartingBalance: b, CurrentBalance: b}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func assertBalance(t *testing.T, s *memStore, id, want string) {
	t.Helper()
	if got := s.balance(id); !got.Equal(money(want)) {
		t.Fatalf("balance(%s) = %s, want %s", id, got, want)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"))
	l := New(s, WithIDs(sequentialIDs()))

	txn, err := l.Insert(ctx, model.Transaction{
		AccountID: "chk",
		Kind:      model.KindIncome,
		Amount:    money("500"),
		Date:      model.Date(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	assertBalance(t, s, "chk", "1500")

	txn.Kind = model.KindBillPayment
	txn.Amount = money("200")
	res, err := l.Update(ctx, txn)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Degraded {
		t.Fatal("Update reported degraded for an existing transaction")
	}
	assertBalance(t, s, "chk", "800")

	if err := l.Delete(ctx, txn.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	assertBalance(t, s, "chk", "1000")
}

func TestLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"), checking("sav", "50"))
	l := New(s)

	txn, err := l.Insert(ctx, model.Transaction{
		AccountID:   "chk",
		ToAccountID: "sav",
		Kind:        model.KindTransfer,
		Amount:      money("250.25"),
		Date:        model.Date(2024, 1, 2),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	assertBalance(t, s, "chk", "749.75")
	assertBalance(t, s, "sav", "300.25")

	// Turning the transfer into an adjustment must undo both legs.
	txn.Kind = model.KindManualAdjustment
	txn.Amount = money("-10")
	if _, err := l.Update(ctx, txn); err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertBalance(t, s, "chk", "990")
	assertBalance(t, s, "sav", "50")
}

func TestLedgerUpdateMovesAccounts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("a", "100"), checking("b", "100"))
	l := New(s)

	txn, err := l.Insert(ctx, model.Transaction{AccountID: "a", Kind: model.KindBillPayment, Amount: money("40"), Date: model.Date(2024, 1, 1)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	txn.AccountID = "b"
	if _, err := l.Update(ctx, txn); err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertBalance(t, s, "a", "100")
	assertBalance(t, s, "b", "60")
}

func TestLedgerUpdateMissingPriorDegrades(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"))
	l := New(s)

	res, err := l.Update(ctx, model.Transaction{
		ID:        "ghost",
		AccountID: "chk",
		Kind:      model.KindIncome,
		Amount:    money("25"),
		Date:      model.Date(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !res.Degraded {
		t.Fatal("Update of a missing transaction should be degraded")
	}
	assertBalance(t, s, "chk", "1025")
}

func TestLedgerUnknownAccountIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"))
	l := New(s)

	_, err := l.Insert(ctx, model.Transaction{
		AccountID:   "chk",
		ToAccountID: "nope",
		Kind:        model.KindTransfer,
		Amount:      money("100"),
		Date:        model.Date(2024, 1, 1),
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("Insert error = %v, want ErrAccountNotFound", err)
	}
	assertBalance(t, s, "chk", "1000")
	if len(s.state.txns) != 0 {
		t.Fatalf("stored %d transactions after failed insert, want 0", len(s.state.txns))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		txn  model.Transaction
		ok   bool
	}{
		{"negative bill", model.Transaction{AccountID: "a", Kind: model.KindBillPayment, Amount: money("-1")}, false},
		{"negative adjustment", model.Transaction{AccountID: "a", Kind: model.KindManualAdjustment, Amount: money("-1")}, true},
		{"self transfer", model.Transaction{AccountID: "a", ToAccountID: "a", Kind: model.KindTransfer, Amount: money("1")}, false},
		{"unknown kind", model.Transaction{AccountID: "a", Kind: "REFUND", Amount: money("1")}, false},
		{"no account", model.Transaction{Kind: model.KindIncome, Amount: money("1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.txn)
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestInsertAutoCategorizes(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "100"))
	s.state.rules = []model.CategorizationRule{
		{ID: "r1", EnvelopeID: "groceries", Keyword: "market", IsActive: true},
	}
	l := New(s)

	txn, err := l.Insert(ctx, model.Transaction{
		AccountID:   "chk",
		Kind:        model.KindBillPayment,
		Amount:      money("12"),
		Date:        model.Date(2024, 1, 1),
		Description: "Corner MARKET #12",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if txn.EnvelopeID != "groceries" {
		t.Fatalf("EnvelopeID = %q, want groceries", txn.EnvelopeID)
	}
}

func TestPayAndUnpayBill(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"))
	s.state.bills["card"] = model.Bill{
		Obligation:   model.Obligation{ID: "card", Name: "Visa", Amount: money("120"), Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 5), IsActive: true},
		AccountID:    "chk",
		IsCreditCard: true,
	}
	l := New(s, WithIDs(sequentialIDs()))
	due := model.Date(2024, 2, 5)

	p, err := l.PayBill(ctx, PayBillInput{BillID: "card", Date: due, Amount: money("120")})
	if err != nil {
		t.Fatalf("PayBill: %v", err)
	}
	assertBalance(t, s, "chk", "880")
	if got := s.state.txns[p.TransactionID].Kind; got != model.KindCreditCardPayment {
		t.Fatalf("payment transaction kind = %s, want CREDIT_CARD_PAYMENT", got)
	}

	if _, err := l.PayBill(ctx, PayBillInput{BillID: "card", Date: due, Amount: money("120")}); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("second PayBill error = %v, want ErrAlreadyPaid", err)
	}
	assertBalance(t, s, "chk", "880")

	if err := l.UnpayBill(ctx, "card", due); err != nil {
		t.Fatalf("UnpayBill: %v", err)
	}
	assertBalance(t, s, "chk", "1000")
	if len(s.state.payments) != 0 || len(s.state.txns) != 0 {
		t.Fatalf("UnpayBill left %d payments and %d transactions", len(s.state.payments), len(s.state.txns))
	}
}

func TestReceiveIncome(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "0"))
	l := New(s)
	income := model.Income{
		Obligation: model.Obligation{ID: "pay", Name: "Salary", Amount: money("300")},
		AccountID:  "chk",
	}

	txn, err := l.ReceiveIncome(ctx, income, model.Date(2024, 1, 1), money("310"), "")
	if err != nil {
		t.Fatalf("ReceiveIncome: %v", err)
	}
	if txn.RelatedIncomeID != "pay" || txn.Kind != model.KindIncome {
		t.Fatalf("ReceiveIncome stored %+v", txn)
	}
	assertBalance(t, s, "chk", "310")
}

func TestConcurrentInsertsKeepBalance(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "0"))
	l := New(s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Insert(ctx, model.Transaction{AccountID: "chk", Kind: model.KindIncome, Amount: money("1.10"), Date: model.Date(2024, 1, 1)})
			if err != nil {
				t.Errorf("Insert: %v", err)
			}
		}()
	}
	wg.Wait()
	assertBalance(t, s, "chk", "55")
}

func TestDeleteAccountReversesTransferPartners(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"), checking("sav", "0"), checking("card", "0"))
	l := New(s)

	for _, txn := range []model.Transaction{
		{AccountID: "chk", ToAccountID: "sav", Kind: model.KindTransfer, Amount: money("250"), Date: model.Date(2024, 1, 2)},
		{AccountID: "card", ToAccountID: "chk", Kind: model.KindTransfer, Amount: money("40"), Date: model.Date(2024, 1, 3)},
		{AccountID: "sav", Kind: model.KindIncome, Amount: money("10"), Date: model.Date(2024, 1, 4)},
	} {
		if _, err := l.Insert(ctx, txn); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if err := l.DeleteAccount(ctx, "chk"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	assertBalance(t, s, "sav", "10")
	assertBalance(t, s, "card", "0")
	if _, ok := s.state.accounts["chk"]; ok {
		t.Fatal("chk still stored")
	}
	if len(s.state.txns) != 1 {
		t.Fatalf("transactions left = %d, want only the sav income", len(s.state.txns))
	}

	if err := l.DeleteAccount(ctx, "chk"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("second DeleteAccount = %v, want ErrAccountNotFound", err)
	}
}

func TestUpdateAccountShiftsCurrentBalance(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(checking("chk", "1000"))
	l := New(s)

	if _, err := l.Insert(ctx, model.Transaction{AccountID: "chk", Kind: model.KindBillPayment, Amount: money("100"), Date: model.Date(2024, 1, 2)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := l.UpdateAccount(ctx, model.Account{ID: "chk", Name: "Main", StartingBalance: money("1200.004")})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if got.Name != "Main" || got.Kind != model.Checking {
		t.Fatalf("UpdateAccount stored %+v, want renamed checking account", got)
	}
	if !got.StartingBalance.Equal(money("1200")) || !got.CurrentBalance.Equal(money("1100")) {
		t.Fatalf("starting = %s current = %s, want 1200 and 1100", got.StartingBalance, got.CurrentBalance)
	}

	if _, err := l.UpdateAccount(ctx, model.Account{ID: "nope"}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("UpdateAccount(nope) = %v, want ErrAccountNotFound", err)
	}
}
