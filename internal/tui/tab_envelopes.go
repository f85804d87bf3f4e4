package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/tui/components"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func (a App) renderEnvelopesTab(cw int) string {
	t := theme.Active

	if len(a.envelopes) == 0 {
		return components.ContentCard("Envelopes",
			"No envelopes yet. Create one with `fundcast envelope add`.", cw)
	}

	var allocated, spent, remaining decimal.Decimal
	overspent := 0
	for _, e := range a.envelopes {
		allocated = allocated.Add(e.Allocated)
		spent = spent.Add(e.Spent)
		remaining = remaining.Add(e.Remaining)
		if e.Remaining.IsNegative() {
			overspent++
		}
	}

	overColor := t.Income
	if overspent > 0 {
		overColor = t.Negative
	}
	metrics := []components.Metric{
		{Label: "Allocated", Value: a.money(allocated), Note: "this period"},
		{Label: "Spent", Value: a.money(spent), Color: t.Bill},
		{Label: "Remaining", Value: a.money(remaining), Color: t.BalanceColor(remaining.IsNegative(), false)},
		{Label: "Overspent", Value: fmt.Sprintf("%d", overspent), Note: "envelopes", Color: overColor},
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Budgets", a.envelopeList(components.CardInnerWidth(cw)), cw))
	return b.String()
}

// envelopeList renders one line per envelope with a budget bar.
func (a App) envelopeList(innerW int) string {
	t := theme.Active
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	const nameW, periodW, amountW = 18, 24, 13
	barW := innerW - nameW - periodW - 2*amountW - 10
	if barW < 10 {
		barW = 10
	}

	lines := make([]string, 0, len(a.envelopes))
	for _, e := range a.envelopes {
		remStyle := lipgloss.NewStyle().
			Foreground(t.BalanceColor(e.Remaining.IsNegative(), false)).
			Background(t.Surface)

		name := e.Envelope.Name
		if e.Envelope.Icon != "" {
			name = e.Envelope.Icon + " " + name
		}

		lines = append(lines,
			nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(name, nameW)))+
				spaceStyle.Render(" ")+
				mutedStyle.Render(fmt.Sprintf("%-*s", periodW, periodLabel(e)))+
				spaceStyle.Render(" ")+
				mutedStyle.Render(fmt.Sprintf("%*s", amountW, a.money(e.Allocated)))+
				spaceStyle.Render(" ")+
				remStyle.Render(fmt.Sprintf("%*s", amountW, a.money(e.Remaining)))+
				spaceStyle.Render("  ")+
				components.BudgetBar(e.Spent, available(e), barW))
	}
	return strings.Join(lines, "\n")
}

// available is the budget an envelope can spend this period.
func available(e model.EnvelopeBalance) decimal.Decimal {
	return e.Allocated.Add(e.TransfersIn).Sub(e.TransfersOut)
}

func periodLabel(e model.EnvelopeBalance) string {
	return e.PeriodStart.Format("Jan 2") + " .. " + e.PeriodEnd.Format("Jan 2") +
		" " + strings.ToLower(string(e.Envelope.PeriodKind))
}
