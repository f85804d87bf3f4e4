package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ProgressBar renders a loading progress bar with percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForPct returns the budget color for a spent fraction.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Negative
	case pct >= 0.8:
		return t.Warning
	default:
		return t.Income
	}
}

// SpentFraction returns spent / available, or 0 when nothing is available
// and nothing was spent. Overspending an empty envelope counts as 2 (over).
func SpentFraction(spent, available decimal.Decimal) float64 {
	if !available.IsPositive() {
		if spent.IsPositive() {
			return 2
		}
		return 0
	}
	f, _ := spent.Div(available).Float64()
	if f < 0 {
		return 0
	}
	return f
}

// BudgetBar renders how much of an envelope's available budget is spent.
func BudgetBar(spent, available decimal.Decimal, width int) string {
	t := theme.Active
	pct := SpentFraction(spent, available)
	color := ColorForPct(pct)
	shown := pct
	if shown > 1 {
		shown = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	label := fmt.Sprintf("%3.0f%%", pct*100)
	if pct > 1 && !available.IsPositive() {
		label = "over"
	}
	return bar.ViewAs(shown) + spaceStyle.Render(" ") + pctStyle.Render(label)
}
