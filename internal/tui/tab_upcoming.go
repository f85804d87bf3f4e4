package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/tui/components"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderUpcomingTab(cw int) string {
	widths := components.LayoutRow(cw, 2)

	billsCard := components.ContentCard(
		fmt.Sprintf("Bills · next %d days", a.horizon),
		a.occurrenceList(a.bills, theme.Active.Bill, "paid", components.CardInnerWidth(widths[0])),
		widths[0])
	incomeCard := components.ContentCard(
		fmt.Sprintf("Income · next %d days", a.horizon),
		a.occurrenceList(a.incomes, theme.Active.Income, "received", components.CardInnerWidth(widths[1])),
		widths[1])

	var b strings.Builder
	b.WriteString(components.CardRow([]string{billsCard, incomeCard}))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Reminders", a.reminderList(components.CardInnerWidth(cw)), cw))
	return b.String()
}

// occurrenceList renders one line per occurrence: date, name, amount and
// realized marker.
func (a App) occurrenceList(occs []model.Occurrence, amountColor lipgloss.Color, doneLabel string, innerW int) string {
	t := theme.Active
	dateStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(amountColor).Background(t.Surface)
	doneStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	if len(occs) == 0 {
		return doneStyle.Render("Nothing scheduled")
	}

	const dateW, amountW, doneW = 14, 13, 9
	nameW := innerW - dateW - amountW - doneW - 3
	if nameW < 6 {
		nameW = 6
	}

	lines := make([]string, 0, len(occs))
	for _, o := range occs {
		done := ""
		if o.IsRealized {
			done = doneLabel
		}
		ns := nameStyle
		if o.IsRealized {
			ns = doneStyle
		}
		lines = append(lines,
			dateStyle.Render(fmt.Sprintf("%-*s", dateW, cli.FormatDate(o.Date)))+
				spaceStyle.Render(" ")+
				ns.Render(fmt.Sprintf("%-*s", nameW, truncStr(o.Name, nameW)))+
				spaceStyle.Render(" ")+
				amountStyle.Render(fmt.Sprintf("%*s", amountW, a.money(o.Amount)))+
				spaceStyle.Render(" ")+
				doneStyle.Render(fmt.Sprintf("%-*s", doneW, done)))
	}
	return strings.Join(lines, "\n")
}

func (a App) reminderList(innerW int) string {
	t := theme.Active
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	whenStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.Bill).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	if len(a.reminders) == 0 {
		return dimStyle.Render("No bills inside their reminder window")
	}

	const whenW, amountW = 14, 13
	nameW := innerW - whenW - amountW - 16
	if nameW < 6 {
		nameW = 6
	}

	lines := make([]string, 0, len(a.reminders))
	for _, r := range a.reminders {
		lines = append(lines,
			whenStyle.Render(fmt.Sprintf("%-*s", whenW, cli.FormatDaysUntil(r.DaysUntil)))+
				spaceStyle.Render(" ")+
				nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(r.Bill.Name, nameW)))+
				spaceStyle.Render(" ")+
				amountStyle.Render(fmt.Sprintf("%*s", amountW, a.money(r.Occurrence.Amount)))+
				spaceStyle.Render(" ")+
				dimStyle.Render(cli.FormatDate(r.Occurrence.Date)))
	}
	return strings.Join(lines, "\n")
}
