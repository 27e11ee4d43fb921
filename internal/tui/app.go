// Package tui provides the interactive Bubble Tea dashboard for canasta.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/canasta/internal/config"
	"github.com/theirongolddev/canasta/internal/pipeline"
	"github.com/theirongolddev/canasta/internal/tui/components"
	"github.com/theirongolddev/canasta/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Loader fetches and aggregates every configured month. progressFn may be
// called from worker goroutines.
type Loader func(ctx context.Context, cfg config.Config, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, error)

// DataLoadedMsg is sent when the data pipeline finishes.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Analysis *pipeline.Analysis
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports month fetch progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	result   *pipeline.LoadResult
	analysis *pipeline.Analysis
	loadErr  error // fatal; no-data outcomes are kept in analysis
	noData   bool
	loaded   bool
	loadTime time.Duration
	loadedAt time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	basketCursor int
	basketOffset int

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool
	setupErr  error

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	refreshing  bool
	loadSub     chan tea.Msg

	cfg    config.Config
	load   Loader
	ctx    context.Context
	source string
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates a new TUI app model. When needSetup is set the setup
// wizard runs before the first load.
func NewApp(ctx context.Context, cfg config.Config, load Loader, source string, needSetup bool) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cfg:       cfg,
		load:      load,
		ctx:       ctx,
		source:    source,
		needSetup: needSetup,
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
	if needSetup {
		a.setupVals = SetupValuesFrom(cfg)
		a.setupForm = NewSetupForm(&a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, loadDataCmd(a.ctx, a.cfg, a.load, a.loadSub))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveBasketCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveBasketCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		// Setup wizard intercepts all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if key == "q" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if key == "r" && !a.refreshing {
			a.refreshing = true
			a.progress, a.progressMax = 0, 0
			return a, loadDataCmd(a.ctx, a.cfg, a.load, a.loadSub)
		}

		if a.activeTab == tabBasket {
			switch key {
			case "j", "down":
				a.moveBasketCursor(1)
				return a, nil
			case "k", "up":
				a.moveBasketCursor(-1)
				return a, nil
			case "g":
				a.basketCursor = 0
				return a, nil
			case "G":
				a.moveBasketCursor(len(a.basketRows()))
				return a, nil
			}
		}

		switch key {
		case "left", "shift+tab":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if r := []rune(key); len(r) == 1 {
				if idx := components.TabIdxByKey(r[0]); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.applyLoad(msg)
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

// applyLoad stores a finished load. A failed refresh keeps the previous data.
func (a *App) applyLoad(msg DataLoadedMsg) {
	a.refreshing = false
	if msg.Err != nil && !pipeline.IsNoData(msg.Err) {
		a.loadErr = msg.Err
		if a.result == nil {
			a.loaded = true
		}
		return
	}

	a.loaded = true
	a.loadErr = nil
	a.result = msg.Result
	a.analysis = msg.Analysis
	a.noData = msg.Err != nil
	a.loadTime = msg.LoadTime
	a.loadedAt = time.Now()

	if a.basketCursor >= len(a.basketRows()) {
		a.basketCursor = 0
		a.basketOffset = 0
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		return a, loadDataCmd(a.ctx, a.cfg, a.load, a.loadSub)
	case huh.StateAborted:
		// Continue with whatever configuration was loaded.
		a.needSetup = false
		a.setupForm = nil
		return a, loadDataCmd(a.ctx, a.cfg, a.load, a.loadSub)
	}

	return a, cmd
}

func (a *App) saveSetupConfig() error {
	cfg := a.cfg
	if err := a.setupVals.Apply(&cfg); err != nil {
		return err
	}
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	return config.Save(cfg)
}

func (a *App) moveBasketCursor(delta int) {
	n := len(a.basketRows())
	a.basketCursor = min(max(a.basketCursor+delta, 0), max(n-1, 0))
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// tabAtX maps a column of the tab bar to a tab index, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i := range components.Tabs {
		w := components.TabWidth(i, a.activeTab)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.loadErr != nil && a.result == nil {
		return a.viewError()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  canasta needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, a.height), a.height)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ canasta"))
	b.WriteString(subtitleStyle.Render(" · canasta básica"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.progressMax > 0 {
		b.WriteString(subtitleStyle.Render(" Fetching months from " + a.source))
		b.WriteString("\n\n")
		b.WriteString(components.LoadBar(a.progress, a.progressMax, 36))
	} else {
		b.WriteString(subtitleStyle.Render(" Connecting to " + a.source + "..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3).
		Width(min(a.width-4, 72))
	titleStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	body := titleStyle.Render("Could not load data") + "\n\n" +
		textStyle.Render(a.loadErr.Error()) + "\n\n" +
		dimStyle.Render("r to retry · q to quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"s b m", "Series / Basket / Months"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move in basket list"},
		{"g G", "Top / bottom of basket"},
		{"r", "Reload months"},
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

	header := components.RenderTabBar(a.activeTab, w)

	age := ""
	if !a.loadedAt.IsZero() {
		age = fmt.Sprintf("loaded in %.1fs", a.loadTime.Seconds())
	}
	statusBar := components.RenderStatusBar(w, a.source, age, a.refreshing)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabSeries:
		content = a.renderSeriesTab(cw)
	case tabBasket:
		content = a.renderBasketTab(cw, contentH)
	case tabMonths:
		content = a.renderMonthsTab(cw)
	}
	if a.loadErr != nil {
		content = components.ContentCard("Refresh failed", a.loadErr.Error(), cw) + "\n" + content
	}
	if a.setupErr != nil {
		content = components.ContentCard("Setup not saved", a.setupErr.Error(), cw) + "\n" + content
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// loadDataCmd runs the loader in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(ctx context.Context, cfg config.Config, load Loader, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			result, err := load(ctx, cfg, progressFn)
			if err != nil {
				sub <- DataLoadedMsg{Err: err, LoadTime: time.Since(start)}
				return
			}
			analysis, err := pipeline.Analyze(result.Aggregates())
			sub <- DataLoadedMsg{
				Result:   result,
				Analysis: analysis,
				Err:      err,
				LoadTime: time.Since(start),
			}
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

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= h {
		return s
	}
	return s + strings.Repeat("\n", h-lines)
}
