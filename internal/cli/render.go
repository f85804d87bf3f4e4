package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	okStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	negStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output. The first column
// is left-aligned, the rest right-aligned. Footer, when set, is rendered bold
// below the rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	rows := t.Rows
	footerRow := -1
	if len(t.Footer) > 0 {
		footerRow = len(rows)
		rows = append(rows[:len(rows):len(rows)], t.Footer)
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(t.Headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := valueStyle
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row == footerRow:
				style = valueStyle.Bold(true)
			}
			style = style.Padding(0, 1)
			if col > 0 && row != table.HeaderRow {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	return b.String()
}

// RenderBudgetBar renders how much of an allocation has been spent.
func RenderBudgetBar(spent, allocated decimal.Decimal, width int) string {
	if !allocated.IsPositive() {
		return mutedStyle.Render(strings.Repeat("░", width))
	}

	pct, _ := spent.Div(allocated).Float64()
	if pct < 0 {
		pct = 0
	}
	style := okStyle
	if pct > 1 {
		pct = 1
		style = negStyle
	} else if pct > 0.8 {
		style = warnStyle
	}

	filled := int(pct * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %.0f%%", style.Render(bar), pct*100)
}

// RenderSparkline generates a unicode block sparkline from a series of
// balances. The lowest balance maps to the lowest block.
func RenderSparkline(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = decimal.Min(lo, v)
		hi = decimal.Max(hi, v)
	}
	span := hi.Sub(lo)
	if span.IsZero() {
		span = decimal.NewFromInt(1)
	}

	var b strings.Builder
	for _, v := range values {
		f, _ := v.Sub(lo).Div(span).Float64()
		idx := int(f * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderStatus labels a projected day: NEG below zero, LOW inside the
// warning band, blank otherwise.
func RenderStatus(isNegative, isWarning bool) string {
	switch {
	case isNegative:
		return negStyle.Render("NEG")
	case isWarning:
		return warnStyle.Render("LOW")
	default:
		return ""
	}
}

// Muted renders s in the muted text color.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
