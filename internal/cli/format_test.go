package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"1234.5", "$1,234.50"},
		{"-1234.567", "-$1,234.57"},
		{"1000000", "$1,000,000.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(decimal.RequireFromString(tt.in), "$"); got != tt.want {
			t.Fatalf("FormatMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatSigned(decimal.NewFromInt(300), "€"); got != "+€300.00" {
		t.Fatalf("FormatSigned = %q", got)
	}
}

func TestFormatDaysUntil(t *testing.T) {
	for days, want := range map[int]string{0: "today", 1: "tomorrow", 4: "in 4 days", -2: "2 days ago"} {
		if got := FormatDaysUntil(days); got != want {
			t.Fatalf("FormatDaysUntil(%d) = %q, want %q", days, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); got != "Mon 2024-01-01" {
		t.Fatalf("FormatDate = %q", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	vals := []decimal.Decimal{decimal.NewFromInt(-50), decimal.NewFromInt(0), decimal.NewFromInt(50)}
	got := []rune(RenderSparkline(vals))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Fatalf("RenderSparkline = %q", string(got))
	}
	if RenderSparkline(nil) != "" {
		t.Fatal("empty sparkline should be empty")
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Date", "Balance"},
		Rows:    [][]string{{"2024-01-01", "$1,300.00"}, {"2024-01-02", "$1,300.00"}},
		Footer:  []string{"Lowest", "$1,300.00"},
	})
	if !strings.Contains(out, "$1,300.00") || strings.Count(out, "\n") != 7 {
		t.Fatalf("RenderTable output:\n%s", out)
	}
}
