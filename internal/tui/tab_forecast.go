package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/projection"
	"github.com/theirongolddev/fundcast/internal/tui/components"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

func newDayTable() table.Model {
	t := theme.Active

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "Date", Width: 15},
			{Title: "Income", Width: 12},
			{Title: "Bills", Width: 12},
			{Title: "Balance", Width: 14},
			{Title: "", Width: 5},
			{Title: "Events", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.TextMuted).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(false)
	tbl.SetStyles(s)
	return tbl
}

// dayRows renders one table row per projected day.
func (a App) dayRows() []table.Row {
	rows := make([]table.Row, 0, len(a.days))
	for _, d := range a.days {
		income, bills := eventTotals(d)
		flag := ""
		switch {
		case d.IsNegative:
			flag = "NEG"
		case d.IsWarning:
			flag = "LOW"
		}
		rows = append(rows, table.Row{
			cli.FormatDate(d.Date),
			a.blankZero(income),
			a.blankZero(bills),
			a.money(d.Balance),
			flag,
			eventNames(d),
		})
	}
	return rows
}

func (a App) renderForecastTab(cw int) string {
	t := theme.Active

	if len(a.days) == 0 {
		return components.ContentCard("Forecast", "No accounts yet. Add one with `fundcast account add`.", cw)
	}

	start := a.days[0]
	end := a.days[len(a.days)-1]
	lowest, _ := projection.Lowest(a.days)
	firstNeg, firstWarn := projection.FirstFlagged(a.days)

	negMetric := components.Metric{Label: "First negative", Value: "none", Color: t.Income}
	if firstNeg != nil {
		negMetric.Value = cli.FormatDate(firstNeg.Date)
		negMetric.Note = fmt.Sprintf("in %d days", model.DaysBetween(start.Date, firstNeg.Date))
		negMetric.Color = t.Negative
	} else if firstWarn != nil {
		negMetric.Note = "low on " + cli.FormatDate(firstWarn.Date)
		negMetric.Color = t.Warning
	}

	metrics := []components.Metric{
		{
			Label: "Balance today",
			Value: a.money(start.Balance),
			Color: t.BalanceColor(start.IsNegative, start.IsWarning),
		},
		{
			Label: fmt.Sprintf("In %d days", a.horizon),
			Value: a.money(end.Balance),
			Note:  cli.FormatSigned(end.Balance.Sub(start.Balance), a.opts.Currency),
			Color: t.BalanceColor(end.IsNegative, end.IsWarning),
		},
		{
			Label: "Lowest",
			Value: a.money(lowest.Balance),
			Note:  cli.FormatDate(lowest.Date),
			Color: t.BalanceColor(lowest.IsNegative, lowest.IsWarning),
		},
		negMetric,
		{
			Label: "Reminders",
			Value: fmt.Sprintf("%d", len(a.reminders)),
			Note:  "bills due soon",
			Color: reminderColor(len(a.reminders)),
		},
	}

	values := make([]float64, len(a.days))
	negative := make([]bool, len(a.days))
	warning := make([]bool, len(a.days))
	for i, d := range a.days {
		values[i], _ = d.Balance.Float64()
		negative[i] = d.IsNegative
		warning[i] = d.IsWarning
	}
	chart := components.BalanceChart(sampleFloats(values, components.CardInnerWidth(cw)),
		sampleBools(negative, components.CardInnerWidth(cw)),
		sampleBools(warning, components.CardInnerWidth(cw)),
		chartHeight)

	chartTitle := fmt.Sprintf("Balance %s .. %s", cli.FormatDate(start.Date), cli.FormatDate(end.Date))

	var b strings.Builder
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard(chartTitle, chart, cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Days", a.dayTable.View(), cw))
	return b.String()
}

func reminderColor(n int) lipgloss.Color {
	if n > 0 {
		return theme.Active.Warning
	}
	return theme.Active.TextPrimary
}

func eventTotals(d model.DaySummary) (income, bills decimal.Decimal) {
	for _, e := range d.IncomeEvents {
		income = income.Add(e.Amount)
	}
	for _, e := range d.BillEvents {
		bills = bills.Add(e.Amount)
	}
	return income, bills
}

func eventNames(d model.DaySummary) string {
	var names []string
	for _, e := range d.IncomeEvents {
		names = append(names, "+"+e.Name)
	}
	for _, e := range d.BillEvents {
		names = append(names, "-"+e.Name)
	}
	for _, tx := range d.Transactions {
		if tx.Description != "" {
			names = append(names, tx.Description)
		}
	}
	return truncStr(strings.Join(names, ", "), 40)
}

func (a App) blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return a.money(d)
}

// sampleFloats shrinks values to at most n points by taking evenly spaced
// samples, keeping the first and last.
func sampleFloats(values []float64, n int) []float64 {
	if len(values) <= n || n < 2 {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}

func sampleBools(values []bool, n int) []bool {
	if len(values) <= n || n < 2 {
		return values
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}
