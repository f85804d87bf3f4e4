package occurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

func money(s string) decimal.Decimal { return model.MustMoney(s) }

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func rent(t *testing.T) model.Bill {
	return model.Bill{
		Obligation: model.Obligation{
			ID: "rent", Name: "Rent", Amount: money("1200"),
			Recurrence: model.Monthly, StartDate: mustDate(t, "2024-01-01"), IsActive: true,
		},
		AccountID:          "chk",
		ReminderDaysBefore: 3,
	}
}

func TestExpand_OverridesAndRealization(t *testing.T) {
	b := rent(t)
	overrides := model.NewOverrideSet([]model.Override{
		{ObligationID: "rent", Date: mustDate(t, "2024-02-01"), Amount: money("1250")},
	})
	payments := []model.Payment{
		{BillID: "rent", AccountID: "chk", Date: mustDate(t, "2024-01-01"), Amount: money("1200")},
	}

	got := Expand(b.Obligation, overrides, NewPaymentIndex(payments), mustDate(t, "2024-01-01"), mustDate(t, "2024-03-31"))
	if len(got) != 3 {
		t.Fatalf("Expand returned %d occurrences, want 3", len(got))
	}
	if !got[0].IsRealized || got[0].RealizedAccountID != "chk" {
		t.Fatalf("January occurrence = %+v, want realized from chk", got[0])
	}
	if !got[1].Amount.Equal(money("1250")) || got[1].IsRealized {
		t.Fatalf("February occurrence = %+v, want 1250 unrealized", got[1])
	}
	if !got[2].Amount.Equal(money("1200")) {
		t.Fatalf("March amount = %s, want base 1200", got[2].Amount)
	}
}

func TestIncomes_RealizedByTransaction(t *testing.T) {
	pay := model.Income{Obligation: model.Obligation{
		ID: "pay", Name: "Salary", Amount: money("300"),
		Recurrence: model.Weekly, StartDate: mustDate(t, "2024-01-01"), IsActive: true,
	}}
	txns := []model.Transaction{
		{Kind: model.KindIncome, RelatedIncomeID: "pay", Date: mustDate(t, "2024-01-08"), AccountID: "chk"},
		// Same income/date but not an INCOME transaction: does not realize it.
		{Kind: model.KindManualAdjustment, RelatedIncomeID: "pay", Date: mustDate(t, "2024-01-15")},
	}

	got := Incomes([]model.Income{pay}, nil, txns, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-15"))
	if len(got) != 3 {
		t.Fatalf("Incomes returned %d occurrences, want 3", len(got))
	}
	realized := []bool{false, true, false}
	for i, occ := range got {
		if occ.IsRealized != realized[i] {
			t.Fatalf("occurrence %s realized = %v, want %v", model.FormatDate(occ.Date), occ.IsRealized, realized[i])
		}
	}
}

func TestBills_ClampsNegativeOverrideAndSkipsInactive(t *testing.T) {
	b := rent(t)
	off := rent(t)
	off.ID = "gym"
	off.IsActive = false

	overrides := model.NewOverrideSet([]model.Override{
		{ObligationID: "rent", Date: mustDate(t, "2024-01-01"), Amount: money("-50")},
	})
	got := Bills([]model.Bill{b, off}, overrides, nil, mustDate(t, "2024-01-01"), mustDate(t, "2024-01-31"))
	if len(got) != 1 {
		t.Fatalf("Bills returned %d occurrences, want 1", len(got))
	}
	if !got[0].Amount.IsZero() {
		t.Fatalf("negative override amount = %s, want 0", got[0].Amount)
	}
}

func TestReminders(t *testing.T) {
	b := rent(t)
	card := model.Bill{
		Obligation: model.Obligation{
			ID: "card", Name: "Visa", Amount: money("80"),
			Recurrence: model.Monthly, StartDate: mustDate(t, "2024-01-29"), IsActive: true,
		},
	}
	payments := []model.Payment{{BillID: "card", Date: mustDate(t, "2024-01-29")}}

	got := Reminders([]model.Bill{b, card}, nil, payments, mustDate(t, "2024-01-29"), 2)
	if len(got) != 1 {
		t.Fatalf("Reminders returned %d, want 1 (paid card skipped)", len(got))
	}
	if got[0].Bill.ID != "rent" || got[0].DaysUntil != 3 {
		t.Fatalf("reminder = %s in %d days, want rent in 3", got[0].Bill.ID, got[0].DaysUntil)
	}
	if len(Reminders([]model.Bill{b}, nil, nil, mustDate(t, "2024-01-27"), 2)) != 0 {
		t.Fatal("rent five days out should be outside its 3-day window")
	}
}
