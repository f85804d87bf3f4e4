// Package tui provides the interactive Bubble Tea dashboard for fundcast.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fundcast/internal/cli"
	"github.com/theirongolddev/fundcast/internal/model"
	"github.com/theirongolddev/fundcast/internal/occurrence"
	"github.com/theirongolddev/fundcast/internal/pipeline"
	"github.com/theirongolddev/fundcast/internal/projection"
	"github.com/theirongolddev/fundcast/internal/store"
	"github.com/theirongolddev/fundcast/internal/tui/components"
	"github.com/theirongolddev/fundcast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// DataLoadedMsg is sent when the snapshot load finishes.
type DataLoadedMsg struct {
	Snapshot *pipeline.Snapshot
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports record-set loading progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// Options configures the dashboard.
type Options struct {
	DBPath       string
	HorizonDays  int
	Today        time.Time // zero means the real current day
	Currency     string
	ReminderDays int
	Projector    projection.Projector
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	snap       *pipeline.Snapshot
	loaded     bool
	loadErr    error
	loadTime   time.Duration
	refreshing bool

	// Derived from snap for the current horizon
	days      []model.DaySummary
	bills     []model.Occurrence
	incomes   []model.Occurrence
	reminders []occurrence.Reminder
	envelopes []model.EnvelopeBalance

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	horizon   int
	dayTable  table.Model

	// Loading, channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 180
	minContentHeight = 5

	minHorizon  = 7
	maxHorizon  = 365
	horizonStep = 7

	metricRowHeight = 5
	chartHeight     = 8
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:     opts,
		horizon:  clampHorizon(opts.HorizonDays),
		dayTable: newDayTable(),
		spinner:  sp,
		loadSub:  make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.DBPath, a.loadSub),
		a.spinner.Tick,
	)
}

func (a App) today() time.Time {
	if a.opts.Today.IsZero() {
		return model.Today()
	}
	return model.Day(a.opts.Today)
}

// recompute derives every tab's data from the snapshot and the horizon.
func (a *App) recompute() {
	if a.snap == nil {
		return
	}
	today := a.today()
	a.days = a.snap.Forecast(a.opts.Projector, today, a.horizon)
	a.bills, a.incomes = a.snap.Upcoming(today, a.horizon)
	a.reminders = a.snap.Reminders(today, a.opts.ReminderDays)
	a.envelopes = a.snap.EnvelopeSummaries(today)

	a.dayTable.SetRows(a.dayRows())
	if a.dayTable.Cursor() >= len(a.days) {
		a.dayTable.SetCursor(len(a.days) - 1)
	}
	if a.dayTable.Cursor() < 0 {
		a.dayTable.SetCursor(0)
	}
}

func (a *App) setHorizon(days int) {
	days = clampHorizon(days)
	if days == a.horizon {
		return
	}
	a.horizon = days
	a.recompute()
}

func clampHorizon(days int) int {
	if days < minHorizon {
		return minHorizon
	}
	if days > maxHorizon {
		return maxHorizon
	}
	return days
}

// layout sizes the forecast table to the space left under the cards.
func (a *App) layout() {
	a.dayTable.SetWidth(components.CardInnerWidth(a.contentWidth()))
	h := a.contentHeight() - metricRowHeight - (chartHeight + 3) - 3
	if h < 3 {
		h = 3
	}
	a.dayTable.SetHeight(h)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if idx := a.tabAtX(msg.X); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "?":
			a.showHelp = true
			return a, nil
		case "r":
			if a.loaded && !a.refreshing {
				a.refreshing = true
				return a, refreshDataCmd(a.opts.DBPath)
			}
			return a, nil
		case "left":
			a.setHorizon(a.horizon - horizonStep)
			return a, nil
		case "right":
			a.setHorizon(a.horizon + horizonStep)
			return a, nil
		case "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		case "shift+tab":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		}

		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
				return a, nil
			}
		}

		if a.activeTab == 0 {
			var cmd tea.Cmd
			a.dayTable, cmd = a.dayTable.Update(msg)
			return a, cmd
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.snap = msg.Snapshot
			a.recompute()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// contentHeight is the height between the tab bar and the status bar.
func (a App) contentHeight() int {
	h := a.height - 2
	if h < minContentHeight {
		h = minContentHeight
	}
	return h
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fundcast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	countStyle := lipgloss.NewStyle().
		Foreground(t.TextPrimary).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fundcast"))
	b.WriteString(subtitleStyle.Render(" · Cash-flow forecast"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 0 {
		barW := 40
		if barW > w-30 {
			barW = w - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(subtitleStyle.Render(" Loading records\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progress)))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progressMax)))
	} else {
		b.WriteString(subtitleStyle.Render(" Opening database..."))
	}

	card := cardStyle.Render(b.String())

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Income).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"f u e", "Jump to tab"},
		{"tab", "Next tab"},
		{"← →", "Shorten / extend horizon by a week"},
		{"↑ ↓", "Move through forecast days"},
		{"r", "Reload records"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
			descStyle.Render(bind.desc))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := fmt.Sprintf("%dd from %s · loaded in %.2fs",
		a.horizon, cli.FormatDate(a.today()), a.loadTime.Seconds())
	statusBar := components.RenderStatusBar(w, info, a.refreshing)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error",
			lipgloss.NewStyle().Foreground(t.Negative).Background(t.Surface).Render(a.loadErr.Error()), cw)
	case a.activeTab == 0:
		content = a.renderForecastTab(cw)
	case a.activeTab == 1:
		content = a.renderUpcomingTab(cw)
	case a.activeTab == 2:
		content = a.renderEnvelopesTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) money(d decimal.Decimal) string {
	return cli.FormatMoney(d, a.opts.Currency)
}

// loadDataCmd starts the snapshot load in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(dbPath string, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			// Non-blocking send so loaders aren't stalled; a later update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			sub <- loadSnapshot(dbPath, progressFn)
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads the snapshot without progress reporting.
func refreshDataCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		return loadSnapshot(dbPath, nil)
	}
}

func loadSnapshot(dbPath string, progressFn pipeline.ProgressFunc) DataLoadedMsg {
	start := time.Now()
	st, err := store.Open(dbPath)
	if err != nil {
		return DataLoadedMsg{Err: err, LoadTime: time.Since(start)}
	}
	defer func() { _ = st.Close() }()

	snap, err := pipeline.Load(context.Background(), st, progressFn)
	return DataLoadedMsg{Snapshot: snap, Err: err, LoadTime: time.Since(start)}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // one-column separator
	}
	return -1
}
