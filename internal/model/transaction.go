package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind decides how a transaction's amount moves balances.
type TransactionKind string

const (
	KindIncome            TransactionKind = "INCOME"
	KindBillPayment       TransactionKind = "BILL_PAYMENT"
	KindCreditCardPayment TransactionKind = "CREDIT_CARD_PAYMENT"
	KindManualAdjustment  TransactionKind = "MANUAL_ADJUSTMENT"
	KindTransfer          TransactionKind = "TRANSFER"
)

// TransactionKinds lists every kind in display order.
var TransactionKinds = []TransactionKind{
	KindIncome, KindBillPayment, KindCreditCardPayment, KindManualAdjustment, KindTransfer,
}

// ParseTransactionKind accepts kind names case-insensitively.
func ParseTransactionKind(s string) (TransactionKind, error) {
	norm := TransactionKind(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
	for _, k := range TransactionKinds {
		if k == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown transaction kind %q", s)
}

// IsSpend reports whether transactions of this kind count against an envelope.
func (k TransactionKind) IsSpend() bool {
	return k == KindBillPayment || k == KindCreditCardPayment
}

// Transaction is a realized money movement. Amount is a non-negative
// magnitude for every kind except MANUAL_ADJUSTMENT; the sign is derived from
// Kind when the ledger applies it. Empty optional ids mean "not set".
type Transaction struct {
	ID              string
	AccountID       string
	ToAccountID     string
	Kind            TransactionKind
	Amount          decimal.Decimal
	Date            time.Time
	Timestamp       time.Time
	Description     string
	RelatedBillID   string
	RelatedIncomeID string
	EnvelopeID      string
}
