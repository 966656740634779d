// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for shunkan.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen
//
// Every study action goes through study.Service on the Update goroutine.
// Commands only ever produce messages, they never touch the service.

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/shunkan/internal/countdown"
	"github.com/kingrea/shunkan/internal/logbook"
	"github.com/kingrea/shunkan/internal/srs"
	"github.com/kingrea/shunkan/internal/study"
)

// appState represents which "screen" we're on
type appState int

const (
	stateStudy        appState = iota // Card view, the default
	stateMenu                         // Deck menu: import, export, reset
	statePathPrompt                   // Text input for an import/export path
	stateConfirmReset                 // Waiting for y/n before wiping data
)

const defaultTickInterval = time.Second

type menuAction string

const (
	actionImport menuAction = "import"
	actionExport menuAction = "export"
	actionReset  menuAction = "reset"
	actionBack   menuAction = "back"
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithContext sets the context passed to every service call.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithJournal shows the tail of the review journal under the card.
func WithJournal(journal *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = journal
	}
}

// WithTickInterval overrides the countdown refresh cadence.
func WithTickInterval(d time.Duration) AppOption {
	return func(a *App) {
		if d > 0 {
			a.tickInterval = d
		}
	}
}

// countdownTickMsg carries the handle it was scheduled for so ticks from a
// cancelled countdown can be recognised and dropped.
type countdownTickMsg struct {
	handle countdown.Handle
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	action menuAction
	title  string
	desc   string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	ctx          context.Context
	state        appState
	service      *study.Service
	logbook      *logbook.Logbook
	tickInterval time.Duration

	card study.Card

	// UI components
	menu       list.Model      // Deck menu
	pathInput  textinput.Model // Import/export path entry
	pathAction menuAction      // What the path prompt is for
	keys       studyKeys
	help       help.Model
	statusMsg  string // Status message to display
	err        error  // Any error to display

	width  int
	height int
}

// NewApp creates a new App around a loaded study service.
func NewApp(service *study.Service, opts ...AppOption) *App {
	menu := list.New(buildMenu(), list.NewDefaultDelegate(), 0, 0)
	menu.Title = "瞬 DECK"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)

	input := textinput.New()
	input.Placeholder = "deck.csv"
	input.CharLimit = 512
	input.Width = 48

	app := &App{
		ctx:          context.Background(),
		state:        stateStudy,
		service:      service,
		tickInterval: defaultTickInterval,
		menu:         menu,
		pathInput:    input,
		keys:         newStudyKeys(),
		help:         help.New(),
		statusMsg:    "Press space to reveal, 1-4 to grade.",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.apply(app.service.Refresh, "")
	return app
}

func buildMenu() []list.Item {
	return []list.Item{
		menuItem{action: actionImport, title: "Import deck", desc: "Replace the deck from a CSV, XLSX or YAML file"},
		menuItem{action: actionExport, title: "Export deck", desc: "Write the deck to a CSV or YAML file"},
		menuItem{action: actionReset, title: "Reset", desc: "Forget all progress and restore the sample deck"},
		menuItem{action: actionBack, title: "Back to study", desc: "Return to the card"},
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.scheduleCountdown()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.menu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.help.Width = msg.Width
		return a, nil

	case countdownTickMsg:
		return a, a.handleTick(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.service.CancelCountdown()
			return a, tea.Quit
		}
		switch a.state {
		case stateStudy:
			return a.handleStudyKey(msg)
		case stateMenu:
			return a.handleMenuKey(msg)
		case statePathPrompt:
			return a.handlePathKey(msg)
		case stateConfirmReset:
			return a.handleConfirmKey(msg)
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateMenu:
		a.menu, cmd = a.menu.Update(msg)
	case statePathPrompt:
		a.pathInput, cmd = a.pathInput.Update(msg)
	}
	return a, cmd
}

func (a *App) handleStudyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.service.CancelCountdown()
		return a, tea.Quit
	case key.Matches(msg, a.keys.Flip):
		return a, a.apply(a.service.Flip, "")
	case key.Matches(msg, a.keys.Next):
		return a, a.apply(a.service.Next, "")
	case key.Matches(msg, a.keys.Prev):
		return a, a.apply(a.service.Prev, "")
	case key.Matches(msg, a.keys.Again):
		return a, a.grade(srs.Again)
	case key.Matches(msg, a.keys.Hard):
		return a, a.grade(srs.Hard)
	case key.Matches(msg, a.keys.Good):
		return a, a.grade(srs.Good)
	case key.Matches(msg, a.keys.Easy):
		return a, a.grade(srs.Easy)
	case key.Matches(msg, a.keys.Shuffle):
		return a, a.apply(a.service.Shuffle, "Deck shuffled.")
	case key.Matches(msg, a.keys.Favorite):
		cmd := a.apply(a.service.ToggleFavorite, "")
		if !a.card.Empty {
			a.flagStatus("Favorite", a.card.Favorite)
		}
		return a, cmd
	case key.Matches(msg, a.keys.FavoritesOnly):
		cmd := a.apply(a.service.ToggleFavoritesOnly, "")
		a.flagStatus("Favorites only", a.card.FavoritesOnly)
		return a, cmd
	case key.Matches(msg, a.keys.DueOnly):
		cmd := a.apply(a.service.ToggleDueOnly, "")
		a.flagStatus("Due only", a.card.DueOnly)
		return a, cmd
	case key.Matches(msg, a.keys.Timer):
		cmd := a.apply(a.service.ToggleTimer, "")
		a.flagStatus("Auto-reveal", a.card.TimerOn)
		return a, cmd
	case key.Matches(msg, a.keys.Level):
		cmd := a.apply(a.service.ToggleLevel, "")
		if a.err == nil {
			a.statusMsg = fmt.Sprintf("Level %d.", a.card.Level)
		}
		return a, cmd
	case key.Matches(msg, a.keys.Direction):
		cmd := a.apply(a.service.ToggleDirection, "")
		if a.err == nil {
			a.statusMsg = "Showing " + directionLabel(a.card.Direction) + "."
		}
		return a, cmd
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	case key.Matches(msg, a.keys.Menu):
		a.service.CancelCountdown()
		a.state = stateMenu
		a.statusMsg = "Deck menu. Esc to return."
		return a, nil
	}
	return a, nil
}

func (a *App) grade(g srs.Grade) tea.Cmd {
	return a.apply(func(ctx context.Context) (study.Card, error) {
		return a.service.Grade(ctx, g)
	}, fmt.Sprintf("Graded %s.", g))
}

func (a *App) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "tab":
		return a, a.returnToStudy("")
	case "enter":
		item, ok := a.menu.SelectedItem().(menuItem)
		if !ok {
			return a, nil
		}
		return a.selectMenuAction(item.action)
	}
	var cmd tea.Cmd
	a.menu, cmd = a.menu.Update(msg)
	return a, cmd
}

func (a *App) selectMenuAction(action menuAction) (tea.Model, tea.Cmd) {
	switch action {
	case actionImport, actionExport:
		a.pathAction = action
		a.pathInput.SetValue("")
		a.state = statePathPrompt
		a.statusMsg = fmt.Sprintf("Enter a file to %s. Enter confirms, esc cancels.", action)
		return a, a.pathInput.Focus()
	case actionReset:
		a.state = stateConfirmReset
		a.statusMsg = "Reset deletes all progress. Press y to confirm."
		return a, nil
	default:
		return a, a.returnToStudy("")
	}
}

func (a *App) handlePathKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.pathInput.Blur()
		a.state = stateMenu
		a.statusMsg = "Cancelled."
		return a, nil
	case "enter":
		path := strings.TrimSpace(a.pathInput.Value())
		if path == "" {
			a.statusMsg = "A file path is required."
			return a, nil
		}
		a.pathInput.Blur()
		if a.pathAction == actionExport {
			return a, a.export(path)
		}
		return a, a.importFile(path)
	}
	var cmd tea.Cmd
	a.pathInput, cmd = a.pathInput.Update(msg)
	return a, cmd
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "y" {
		a.state = stateMenu
		a.statusMsg = "Reset cancelled."
		return a, nil
	}
	a.state = stateStudy
	return a, a.apply(a.service.Reset, "All progress cleared. Sample deck restored.")
}

func (a *App) importFile(path string) tea.Cmd {
	res, err := a.service.ImportFile(a.ctx, path)
	if err != nil {
		a.err = err
		a.state = stateMenu
		a.statusMsg = fmt.Sprintf("Import failed: %v", err)
		return nil
	}
	msg := fmt.Sprintf("Imported %d cards (%d kept, %d new, %d dropped).", res.Records, res.Kept, res.Added, res.Pruned)
	return a.returnToStudy(msg)
}

func (a *App) export(path string) tea.Cmd {
	n, err := a.service.Export(path)
	if err != nil {
		a.err = err
		a.state = stateMenu
		a.statusMsg = fmt.Sprintf("Export failed: %v", err)
		return nil
	}
	return a.returnToStudy(fmt.Sprintf("Exported %d cards to %s.", n, path))
}

func (a *App) returnToStudy(status string) tea.Cmd {
	a.state = stateStudy
	return a.apply(a.service.Refresh, status)
}

// apply runs one service action, keeps the resulting card and schedules the
// countdown it armed. An empty status leaves the footer alone on success.
func (a *App) apply(action func(context.Context) (study.Card, error), status string) tea.Cmd {
	card, err := action(a.ctx)
	if err != nil {
		a.err = err
		if errors.Is(err, study.ErrNotLoaded) {
			a.statusMsg = "No deck loaded."
			return nil
		}
		a.statusMsg = fmt.Sprintf("Error: %v", err)
	} else {
		a.err = nil
		if status != "" {
			a.statusMsg = status
		}
	}
	a.card = card
	return a.scheduleCountdown()
}

func (a *App) flagStatus(label string, on bool) {
	if a.err == nil {
		a.statusMsg = onOff(label, on)
	}
}

func (a *App) scheduleCountdown() tea.Cmd {
	if a.card.Countdown == 0 {
		return nil
	}
	return tickAfter(a.tickInterval, a.card.Countdown)
}

func tickAfter(d time.Duration, h countdown.Handle) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return countdownTickMsg{handle: h}
	})
}

func (a *App) handleTick(msg countdownTickMsg) tea.Cmd {
	card, outcome, err := a.service.Tick(a.ctx, msg.handle)
	switch outcome {
	case countdown.Stale:
		return nil
	case countdown.Expired:
		a.card = card
		if err != nil {
			a.err = err
			a.statusMsg = fmt.Sprintf("Error: %v", err)
		}
		return nil
	default:
		a.card = card
		return tickAfter(a.tickInterval, msg.handle)
	}
}

func onOff(label string, on bool) string {
	if on {
		return label + " on."
	}
	return label + " off."
}
