package tui

import (
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/tree"
)

// popupKind represents which popup overlay is active.
type popupKind int

const (
	popupNone          popupKind = iota // main screen
	popupAdd                            // text input, stays open for the next entry
	popupRename                         // text input prefilled with the current title
	popupConfirmDelete                  // y/n
	popupImportPath                     // text input for the file to import
	popupConfirmImport                  // y/n before replacing everything
)

// Options configures the TUI.
type Options struct {
	// ExportDir is where E writes subtasks-YYYY-MM-DD.json. Empty means the working directory.
	ExportDir string
	Logger    *slog.Logger
	// Clipboard and Paste default to the system clipboard.
	Clipboard func(string) error
	Paste     func() (string, error)
}

// Model is the top-level bubbletea model.
type Model struct {
	engine *engine.Engine
	opts   Options
	log    *slog.Logger
	width  int
	height int

	// focus is the column the keyboard acts on; cursor is the highlighted
	// row per column. Both are view state only, the engine owns selection.
	focus  int
	cursor [tree.Levels]int

	popup       popupKind
	input       textinput.Model
	inputLevel  int
	inputIndex  int
	pendingFile string
	pending     []tree.Task

	keys     keyMap
	help     help.Model
	showHelp bool

	// Status message at the bottom.
	statusMsg  string
	statusErr  bool
	statusTime time.Time
	statusSeq  int
	quitting   bool
}

// New creates a new TUI model over an open engine.
func New(e *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50

	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Paste == nil {
		opts.Paste = clipboard.ReadAll
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return Model{
		engine: e,
		opts:   opts,
		log:    log,
		input:  ti,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

type statusClearMsg struct{ seq int }

// flash shows msg in the footer and schedules its removal.
func (m Model) flash(msg string) (tea.Model, tea.Cmd) {
	return m.report(msg, false)
}

func (m Model) fail(msg string) (tea.Model, tea.Cmd) {
	return m.report(msg, true)
}

func (m Model) report(msg string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusTime = time.Now()
	m.statusSeq++
	seq := m.statusSeq
	return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}

// rows returns the entries of column level for the current selection.
func (m Model) rows(level int) []tree.Row {
	return m.engine.Column(level)
}

// clampCursor keeps focus on a column that has a parent and every cursor
// inside its column.
func (m *Model) clampCursor() {
	for m.focus > 0 && !m.engine.CanAdd(m.focus) {
		m.focus--
	}
	for level := range m.cursor {
		n := len(m.rows(level))
		if m.cursor[level] >= n {
			m.cursor[level] = n - 1
		}
		if m.cursor[level] < 0 {
			m.cursor[level] = 0
		}
	}
}

// current returns the row under the cursor in the focused column.
func (m Model) current() (tree.Row, bool) {
	rows := m.rows(m.focus)
	i := m.cursor[m.focus]
	if i < 0 || i >= len(rows) {
		return tree.Row{}, false
	}
	return rows[i], true
}
