package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/session"
	"github.com/mmcdole/scout/internal/tui/styles"
)

// Session is the part of the orchestrator the UI drives
type Session interface {
	Submit(q domain.Query) error
	Wait(ctx context.Context) (session.Snapshot, error)
	Peek() session.Snapshot
	Cancel() bool
}

// Options configures the search screen
type Options struct {
	History      domain.HistoryStore // optional
	PageSize     int
	Debounce     time.Duration
	InitialQuery string
	Logger       *slog.Logger
}

// Model is the bubbletea model for the search screen
type Model struct {
	session Session
	history domain.HistoryStore
	logger  *slog.Logger
	keys    KeyMap

	input   textinput.Model
	spinner spinner.Model

	pageSize int
	debounce time.Duration
	editSeq  int
	lastText string

	snap        session.Snapshot
	suggestions []domain.HistoryEntry
	cursor      int
	status      string

	width  int
	height int
}

// NewModel creates the search screen around a session
func NewModel(s Session, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.CharLimit = 200
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.PlaceholderStyle = styles.DimStyle
	ti.SetValue(opts.InitialQuery)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	return Model{
		session:  s,
		history:  opts.History,
		logger:   logger,
		keys:     DefaultKeyMap(),
		input:    ti,
		spinner:  sp,
		pageSize: pageSize,
		debounce: opts.Debounce,
		lastText: opts.InitialQuery,
		snap:     s.Peek(),
		width:    80,
		height:   24,
	}
}

// Init starts the cursor blink, the spinner and any initial query
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, SuggestCmd(m.history, m.input.Value())}
	if m.input.Value() != "" {
		cmds = append(cmds, func() tea.Msg { return debounceMsg{seq: 0} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case debounceMsg:
		if msg.seq != m.editSeq {
			return m, nil
		}
		return m.submit(domain.NewQuery(m.input.Value(), 0, m.pageSize))

	case SnapshotMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.applySnapshot(msg.Snapshot)
		return m, nil

	case SuggestionsMsg:
		if msg.Text == m.input.Value() {
			m.suggestions = msg.Entries
		}
		return m, nil

	case HistoryClearedMsg:
		if msg.Err != nil {
			m.status = "failed to clear history: " + msg.Err.Error()
		} else {
			m.suggestions = nil
			m.status = "history cleared"
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Escape):
		if m.session.Cancel() {
			m.snap = m.session.Peek()
			m.status = "search canceled"
			return m, nil
		}
		if m.input.Value() != "" {
			m.input.SetValue("")
			return m.edited()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		m.editSeq++
		return m.submit(domain.NewQuery(m.input.Value(), 0, m.pageSize))

	case key.Matches(msg, m.keys.Complete):
		if len(m.suggestions) == 0 {
			return m, nil
		}
		m.input.SetValue(m.suggestions[0].Text)
		m.input.CursorEnd()
		m.lastText = m.input.Value()
		m.editSeq++
		return m.submit(domain.NewQuery(m.input.Value(), 0, m.pageSize))

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.snap.Result != nil && m.cursor < len(m.snap.Result.Items)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.snap.State == session.StateReady && m.snap.Result.HasNextPage() {
			return m.submit(m.snap.Query.WithPage(m.snap.Query.Page + 1))
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.snap.State == session.StateReady && m.snap.Query.Page > 0 {
			return m.submit(m.snap.Query.WithPage(m.snap.Query.Page - 1))
		}
		return m, nil

	case key.Matches(msg, m.keys.ClearHistory):
		return m, ClearHistoryCmd(m.history)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == m.lastText {
		return m, cmd
	}
	next, editCmd := m.edited()
	return next, tea.Batch(cmd, editCmd)
}

// edited starts a new debounce window for the current input
func (m Model) edited() (Model, tea.Cmd) {
	m.lastText = m.input.Value()
	m.editSeq++
	m.status = ""
	return m, tea.Batch(debounceCmd(m.debounce, m.editSeq), SuggestCmd(m.history, m.lastText))
}

// submit hands q to the session and waits for it unless it settled at once
func (m Model) submit(q domain.Query) (tea.Model, tea.Cmd) {
	if err := m.session.Submit(q); err != nil {
		m.logger.Error("submit failed", "error", err)
		m.status = err.Error()
		return m, nil
	}

	snap := m.session.Peek()
	m.applySnapshot(snap)
	if snap.Settled() {
		return m, nil
	}
	return m, WaitCmd(m.session)
}

// applySnapshot shows snap unless an equal or newer generation is shown
func (m *Model) applySnapshot(snap session.Snapshot) {
	if snap.Generation < m.snap.Generation {
		return
	}
	if snap.Generation != m.snap.Generation || snap.State != m.snap.State {
		m.cursor = 0
	}
	m.snap = snap
}

// Snapshot returns the snapshot currently on screen
func (m Model) Snapshot() session.Snapshot {
	return m.snap
}
