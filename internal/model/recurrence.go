package model

import (
	"fmt"
	"strings"
)

// Recurrence is the repetition rule of an obligation or the period kind of an envelope.
type Recurrence string

const (
	Weekly   Recurrence = "WEEKLY"
	BiWeekly Recurrence = "BI_WEEKLY"
	Monthly  Recurrence = "MONTHLY"
	// Custom is reserved for a future rule language; it never fires.
	Custom Recurrence = "CUSTOM"
)

// ParseRecurrence accepts the enum names case-insensitively, plus "biweekly".
func ParseRecurrence(s string) (Recurrence, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "WEEKLY":
		return Weekly, nil
	case "BI_WEEKLY", "BIWEEKLY":
		return BiWeekly, nil
	case "MONTHLY":
		return Monthly, nil
	case "CUSTOM":
		return Custom, nil
	default:
		return "", fmt.Errorf("unknown recurrence %q", s)
	}
}
