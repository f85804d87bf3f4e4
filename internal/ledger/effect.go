package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Effect is the signed balance change one transaction applies. ToAccountID is
// empty for every kind but TRANSFER.
type Effect struct {
	AccountID      string
	AccountDelta   decimal.Decimal
	ToAccountID    string
	ToAccountDelta decimal.Decimal
}

// EffectOf maps a transaction to its balance effect. This table is the only
// place a transaction's sign is decided:
//
//	INCOME               +amount on account
//	BILL_PAYMENT         -amount on account
//	CREDIT_CARD_PAYMENT  -amount on account
//	MANUAL_ADJUSTMENT    +amount on account (amount may be negative)
//	TRANSFER             -amount on account, +amount on to-account
//
// Unknown kinds have no effect; Validate rejects them before they reach storage.
func EffectOf(t model.Transaction) Effect {
	amt := model.RoundMoney(t.Amount)
	e := Effect{AccountID: t.AccountID}

	switch t.Kind {
	case model.KindIncome, model.KindManualAdjustment:
		e.AccountDelta = amt
	case model.KindBillPayment, model.KindCreditCardPayment:
		e.AccountDelta = amt.Neg()
	case model.KindTransfer:
		e.AccountDelta = amt.Neg()
		e.ToAccountID = t.ToAccountID
		e.ToAccountDelta = amt
	default:
		e.AccountDelta = decimal.Zero
	}
	return e
}

// Reverse returns the effect that undoes e.
func (e Effect) Reverse() Effect {
	return Effect{
		AccountID:      e.AccountID,
		AccountDelta:   e.AccountDelta.Neg(),
		ToAccountID:    e.ToAccountID,
		ToAccountDelta: e.ToAccountDelta.Neg(),
	}
}

// Deltas returns the per-account changes, merging both legs when they name
// the same account.
func (e Effect) Deltas() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, 2)
	if e.AccountID != "" {
		out[e.AccountID] = e.AccountDelta
	}
	if e.ToAccountID != "" {
		out[e.ToAccountID] = out[e.ToAccountID].Add(e.ToAccountDelta)
	}
	return out
}

// Within returns the net change the effect has on the combined balance of the
// given accounts. Legs touching accounts outside the set are ignored, so a
// transfer between two tracked accounts nets to zero.
func (e Effect) Within(accounts map[string]struct{}) decimal.Decimal {
	total := decimal.Zero
	for id, d := range e.Deltas() {
		if _, ok := accounts[id]; ok {
			total = total.Add(d)
		}
	}
	return total
}
