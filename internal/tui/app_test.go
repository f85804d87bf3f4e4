package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/pipeline"
	"github.com/theirongolddev/fundcast/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func fixtureSnapshot() *pipeline.Snapshot {
	return &pipeline.Snapshot{
		Accounts: []model.Account{{ID: "chk", Name: "Checking", CurrentBalance: model.MustMoney("150")}},
		Bills: []model.Bill{{
			Obligation: model.Obligation{
				ID: "rent", Name: "Rent", Amount: model.MustMoney("200"),
				Recurrence: model.Monthly, StartDate: model.Date(2024, 1, 3), IsActive: true,
			},
			AccountID:          "chk",
			ReminderDaysBefore: 3,
		}},
		Envelopes: []model.Envelope{{
			ID: "groc", Name: "Groceries", BudgetedAmount: model.MustMoney("300"),
			PeriodKind: model.Monthly, IsActive: true,
		}},
	}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	a := NewApp(Options{HorizonDays: 7, Today: model.Date(2024, 2, 1), Currency: "$", ReminderDays: 3})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(DataLoadedMsg{Snapshot: fixtureSnapshot(), LoadTime: time.Millisecond})
	return m.(App)
}

func TestRecomputeFromSnapshot(t *testing.T) {
	a := loadedApp(t)

	if len(a.days) != 8 {
		t.Fatalf("days = %d, want 8", len(a.days))
	}
	if !a.days[2].IsNegative {
		t.Fatalf("day %s should be negative, balance %s", model.FormatDate(a.days[2].Date), a.days[2].Balance)
	}
	if len(a.bills) != 1 || a.bills[0].ObligationID != "rent" {
		t.Fatalf("bills = %+v, want the rent occurrence", a.bills)
	}
	if len(a.reminders) != 1 || a.reminders[0].DaysUntil != 2 {
		t.Fatalf("reminders = %+v, want rent due in 2 days", a.reminders)
	}
	if len(a.envelopes) != 1 {
		t.Fatalf("envelopes = %d, want 1", len(a.envelopes))
	}
	if got := len(a.dayTable.Rows()); got != len(a.days) {
		t.Fatalf("table rows = %d, want %d", got, len(a.days))
	}
}

func TestHorizonKeysRecompute(t *testing.T) {
	a := loadedApp(t)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRight})
	a = m.(App)
	if a.horizon != 14 || len(a.days) != 15 {
		t.Fatalf("horizon = %d days = %d, want 14 and 15", a.horizon, len(a.days))
	}

	// Already at the minimum.
	for i := 0; i < 3; i++ {
		m, _ = a.Update(tea.KeyMsg{Type: tea.KeyLeft})
		a = m.(App)
	}
	if a.horizon != minHorizon {
		t.Fatalf("horizon = %d, want %d", a.horizon, minHorizon)
	}
}

func TestTabSwitching(t *testing.T) {
	a := loadedApp(t)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	a = m.(App)
	if a.activeTab != 2 {
		t.Fatalf("activeTab = %d, want 2", a.activeTab)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = m.(App)
	if a.activeTab != 0 {
		t.Fatalf("activeTab after tab = %d, want 0 (wraps)", a.activeTab)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	a = m.(App)
	if a.activeTab != 2 {
		t.Fatalf("activeTab after shift+tab = %d, want 2", a.activeTab)
	}
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	a := loadedApp(t)

	m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	a = m.(App)
	if !a.showHelp {
		t.Fatal("? should open help")
	}
	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'u'}})
	a = m.(App)
	if a.showHelp || a.activeTab != 0 {
		t.Fatalf("showHelp = %v activeTab = %d, want help closed without switching", a.showHelp, a.activeTab)
	}
}

func TestTabAtX(t *testing.T) {
	a := App{}

	if got := a.tabAtX(0); got != 0 {
		t.Fatalf("tabAtX(0) = %d, want 0", got)
	}
	first := components.TabVisualWidth(components.Tabs[0], true)
	if got := a.tabAtX(first); got != -1 {
		t.Fatalf("tabAtX(separator) = %d, want -1", got)
	}
	if got := a.tabAtX(first + 1); got != 1 {
		t.Fatalf("tabAtX(first+1) = %d, want 1", got)
	}
	if got := a.tabAtX(1000); got != -1 {
		t.Fatalf("tabAtX(1000) = %d, want -1", got)
	}
}

func TestLoadErrorIsShown(t *testing.T) {
	a := NewApp(Options{})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(DataLoadedMsg{Err: errTest("database is locked")})
	if view := m.View(); !strings.Contains(view, "database is locked") {
		t.Fatal("view should show the load error")
	}
}

func TestSampleFloatsKeepsEnds(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	got := sampleFloats(values, 10)
	if len(got) != 10 || got[0] != 0 || got[9] != 99 {
		t.Fatalf("sampleFloats = %v, want 10 points from 0 to 99", got)
	}
	if short := sampleFloats(values[:5], 10); len(short) != 5 {
		t.Fatalf("short series resampled to %d points", len(short))
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
