// Package model defines the records exchanged between the fundcast engine,
// its storage layer and its front ends.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountKind classifies an account. It is informational only; the engine
// treats every account's balance the same way.
type AccountKind string

const (
	Checking   AccountKind = "checking"
	Savings    AccountKind = "savings"
	CreditCard AccountKind = "credit-card"
	OtherKind  AccountKind = "other"
)

// ParseAccountKind maps user input to an AccountKind.
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(s) {
	case "checking":
		return Checking, nil
	case "savings":
		return Savings, nil
	case "credit-card", "credit_card", "creditcard", "card":
		return CreditCard, nil
	case "other", "":
		return OtherKind, nil
	default:
		return "", fmt.Errorf("unknown account kind %q", s)
	}
}

// Account holds a balance. CurrentBalance is a cache of StartingBalance plus
// the signed effect of every transaction touching the account, and is only
// written by the ledger.
type Account struct {
	ID              string
	Name            string
	Kind            AccountKind
	StartingBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
}
