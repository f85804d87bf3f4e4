package occurrence

import (
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
)

// Realization describes the record that realized an occurrence.
type Realization struct {
	Date      time.Time
	AccountID string
}

// Lookup reports whether an obligation's occurrence on date has been realized.
type Lookup interface {
	Realized(obligationID string, date time.Time) (Realization, bool)
}

type key struct {
	id   string
	date string
}

// PaymentIndex realizes bill occurrences from Payment rows.
type PaymentIndex map[key]Realization

// NewPaymentIndex indexes payments by (bill, occurrence date).
func NewPaymentIndex(payments []model.Payment) PaymentIndex {
	idx := make(PaymentIndex, len(payments))
	for _, p := range payments {
		idx[key{p.BillID, model.FormatDate(p.Date)}] = Realization{Date: model.Day(p.Date), AccountID: p.AccountID}
	}
	return idx
}

// Realized implements Lookup.
func (idx PaymentIndex) Realized(billID string, date time.Time) (Realization, bool) {
	r, ok := idx[key{billID, model.FormatDate(date)}]
	return r, ok
}

// IncomeIndex realizes income occurrences from INCOME transactions carrying
// the income's id and the occurrence date. Unlike bills there is no join
// table: any INCOME transaction with a matching RelatedIncomeID and Date
// counts, so a mislabelled transaction silently realizes the wrong income.
type IncomeIndex map[key]Realization

// NewIncomeIndex indexes INCOME transactions by (income, date).
func NewIncomeIndex(txns []model.Transaction) IncomeIndex {
	idx := make(IncomeIndex)
	for _, t := range txns {
		if t.Kind != model.KindIncome || t.RelatedIncomeID == "" {
			continue
		}
		idx[key{t.RelatedIncomeID, model.FormatDate(t.Date)}] = Realization{Date: model.Day(t.Date), AccountID: t.AccountID}
	}
	return idx
}

// Realized implements Lookup.
func (idx IncomeIndex) Realized(incomeID string, date time.Time) (Realization, bool) {
	r, ok := idx[key{incomeID, model.FormatDate(date)}]
	return r, ok
}
