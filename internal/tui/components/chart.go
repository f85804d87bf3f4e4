package components

import (
	"strings"

	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline from values. The lowest value maps
// to the lowest block, so negative series render too.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := bounds(values)
	span := hi - lo
	if span == 0 {
		span = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3) // UTF-8 block chars are 3 bytes
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkBlocks)-1))
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(sparkBlocks[idx])
	}

	return style.Render(buf.String())
}

// BalanceChart renders one column per value, height rows tall. Columns are
// filled from the zero line (or the lowest value, if all are positive)
// towards the value, and colored by the flags in negative and warning.
func BalanceChart(values []float64, negative, warning []bool, height int) string {
	if len(values) == 0 || height < 2 {
		return ""
	}
	t := theme.Active

	lo, hi := bounds(values)
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	rowOf := func(v float64) int {
		r := int((v - lo) / span * float64(height-1))
		if r < 0 {
			return 0
		}
		if r > height-1 {
			return height - 1
		}
		return r
	}
	zero := rowOf(0)

	bg := lipgloss.NewStyle().Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	rows := make([]string, height)
	for r := height - 1; r >= 0; r-- {
		var b strings.Builder
		for i, v := range values {
			top := rowOf(v)
			filled := (r >= zero && r <= top) || (r <= zero && r >= top)
			switch {
			case filled && v != 0:
				color := t.Income
				if i < len(negative) && negative[i] {
					color = t.Negative
				} else if i < len(warning) && warning[i] {
					color = t.Warning
				}
				b.WriteString(lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render("█"))
			case r == zero:
				b.WriteString(axis.Render("─"))
			default:
				b.WriteString(bg.Render(" "))
			}
		}
		rows[height-1-r] = b.String()
	}
	return strings.Join(rows, "\n")
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
