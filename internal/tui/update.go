package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/transfer"
	"github.com/imkarma/subtask/internal/tree"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// If popup is active, handle popup keys first.
		if m.popup != popupNone {
			return m.handlePopupKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		w := m.columnWidth() - 8
		if w < 20 {
			w = 20
		}
		m.input.Width = w
		return m, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	// Navigation.
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.focus] > 0 {
			m.cursor[m.focus]--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.focus] < len(m.rows(m.focus))-1 {
			m.cursor[m.focus]++
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if m.focus > 0 {
			m.focus--
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if m.focus < tree.Levels-1 && m.engine.CanAdd(m.focus+1) {
			m.focus++
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.selectCurrent()

	case key.Matches(msg, m.keys.Clear):
		if err := m.engine.Dispatch(engine.ClearCommand{}); err != nil {
			return m.fail(err.Error())
		}
		m.focus = 0
		m.clampCursor()
		return m, nil

	// Editing.
	case key.Matches(msg, m.keys.Add):
		if !m.engine.CanAdd(m.focus) {
			return m.flash(fmt.Sprintf("Select a %s first", tree.LevelName(m.focus-1)))
		}
		if len(m.rows(m.focus)) >= m.engine.MaxItems() {
			return m.fail(capacityMessage(m.focus, m.engine.MaxItems()))
		}
		return m.openInput(popupAdd, "", fmt.Sprintf("New %s...", tree.LevelName(m.focus)))

	case key.Matches(msg, m.keys.Rename):
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		m.inputIndex = m.cursor[m.focus]
		return m.openInput(popupRename, row.Title, "Empty title deletes")

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.current(); !ok {
			return m, nil
		}
		m.inputLevel = m.focus
		m.inputIndex = m.cursor[m.focus]
		m.popup = popupConfirmDelete
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m.toggleCurrent()

	// Transfer.
	case key.Matches(msg, m.keys.Copy):
		return m.copyColumn()

	case key.Matches(msg, m.keys.Paste):
		return m.pasteColumn()

	case key.Matches(msg, m.keys.Export):
		return m.export()

	case key.Matches(msg, m.keys.Import):
		return m.openInput(popupImportPath, "", "path/to/subtasks.json")
	}

	return m, nil
}

// openInput shows a text input popup for the focused column.
func (m Model) openInput(kind popupKind, value, placeholder string) (tea.Model, tea.Cmd) {
	m.popup = kind
	m.inputLevel = m.focus
	m.input.Reset()
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) closePopup() Model {
	m.popup = popupNone
	m.input.Blur()
	m.input.Reset()
	m.pending = nil
	m.pendingFile = ""
	return m
}

func (m Model) selectCurrent() (tea.Model, tea.Cmd) {
	if _, ok := m.current(); !ok {
		return m, nil
	}
	level := m.focus
	if err := m.engine.Dispatch(engine.SelectCommand{Level: level, Index: m.cursor[level]}); err != nil {
		return m.fail(err.Error())
	}
	if _, selected := m.engine.Selection().At(level); selected && level < tree.Levels-1 {
		m.focus = level + 1
		m.cursor[m.focus] = 0
	}
	m.clampCursor()
	return m, nil
}

func (m Model) toggleCurrent() (tea.Model, tea.Cmd) {
	if m.focus != tree.Levels-1 {
		return m.flash("Only items can be checked off")
	}
	if _, ok := m.current(); !ok {
		return m, nil
	}
	if err := m.engine.Dispatch(engine.ToggleCommand{Index: m.cursor[m.focus]}); err != nil {
		return m.failWith(err)
	}
	return m, nil
}

func (m Model) copyColumn() (tea.Model, tea.Cmd) {
	text, ok := m.engine.ColumnText(m.focus)
	if !ok {
		return m.flash("Nothing to copy")
	}
	if err := m.opts.Clipboard(text); err != nil {
		m.log.Warn("clipboard write failed", "error", err)
		return m.fail("Copy failed: " + err.Error())
	}
	n := len(m.rows(m.focus))
	return m.flash(fmt.Sprintf("Copied %d %ss", n, tree.LevelName(m.focus)))
}

// pasteColumn adds one entry per clipboard list line to the focused column.
func (m Model) pasteColumn() (tea.Model, tea.Cmd) {
	if !m.engine.CanAdd(m.focus) {
		return m.flash(fmt.Sprintf("Select a %s first", tree.LevelName(m.focus-1)))
	}
	text, err := m.opts.Paste()
	if err != nil {
		m.log.Warn("clipboard read failed", "error", err)
		return m.fail("Paste failed: " + err.Error())
	}
	entries := transfer.ParseList(text)
	if len(entries) == 0 {
		return m.flash("Nothing to paste")
	}

	added := 0
	for _, entry := range entries {
		if err := m.engine.Dispatch(engine.AddCommand{Level: m.focus, Title: entry.Title}); err != nil {
			m.clampCursor()
			return m.failWith(err)
		}
		added++
		if entry.Done && m.focus == tree.Levels-1 {
			if err := m.engine.Dispatch(engine.ToggleCommand{Index: len(m.rows(m.focus)) - 1}); err != nil {
				return m.failWith(err)
			}
		}
	}
	m.cursor[m.focus] = len(m.rows(m.focus)) - 1
	m.clampCursor()
	return m.flash(fmt.Sprintf("Pasted %d %ss", added, tree.LevelName(m.focus)))
}

func (m Model) export() (tea.Model, tea.Cmd) {
	tasks := m.engine.Export()
	data, err := transfer.Marshal(tasks)
	if err != nil {
		return m.fail("Export failed: " + err.Error())
	}
	name := filepath.Join(m.opts.ExportDir, transfer.FileName(m.engine.Today()))
	if m.opts.ExportDir != "" {
		if err := os.MkdirAll(m.opts.ExportDir, 0755); err != nil {
			return m.fail("Export failed: " + err.Error())
		}
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		m.log.Error("export failed", "file", name, "error", err)
		return m.fail("Export failed: " + err.Error())
	}
	m.log.Info("exported tasks", "file", name, "count", len(tasks))
	return m.flash("Exported to " + name)
}

// failWith turns an engine error into a footer message.
func (m Model) failWith(err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, engine.ErrCapacityExceeded):
		return m.fail(capacityMessage(m.focus, m.engine.MaxItems()))
	case errors.Is(err, engine.ErrStorageUnavailable):
		return m.fail("Changes could not be saved: " + err.Error())
	}
	return m.fail(err.Error())
}

func capacityMessage(level, limit int) string {
	return fmt.Sprintf("Limit of %d %ss reached", limit, tree.LevelName(level))
}

// --- Popup keys ---

func (m Model) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.popup {
	case popupAdd:
		return m.handleAddPopup(msg)
	case popupRename:
		return m.handleRenamePopup(msg)
	case popupConfirmDelete:
		return m.handleConfirmDeletePopup(msg)
	case popupImportPath:
		return m.handleImportPathPopup(msg)
	case popupConfirmImport:
		return m.handleConfirmImportPopup(msg)
	}
	return m, nil
}

func (m Model) handleAddPopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePopup(), nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m.closePopup(), nil
		}
		level := m.inputLevel
		err := m.engine.Dispatch(engine.AddCommand{Level: level, Title: title})
		m.cursor[level] = len(m.rows(level)) - 1
		m.clampCursor()
		m.input.Reset()
		full := len(m.rows(level)) >= m.engine.MaxItems()
		switch {
		case errors.Is(err, engine.ErrStorageUnavailable):
			// A failed save keeps the entry.
			if full {
				m = m.closePopup()
			}
			return m.failWith(err)
		case full:
			m = m.closePopup()
			return m.fail(capacityMessage(level, m.engine.MaxItems()))
		case err != nil:
			m = m.closePopup()
			return m.failWith(err)
		}
		// The input stays open for the next entry until the column is full.
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleRenamePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePopup(), nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		level, index := m.inputLevel, m.inputIndex
		m = m.closePopup()
		if err := m.engine.Dispatch(engine.RenameCommand{Level: level, Index: index, Title: title}); err != nil {
			m.clampCursor()
			return m.failWith(err)
		}
		m.clampCursor()
		if title == "" {
			return m.flash("Deleted " + tree.LevelName(level))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmDeletePopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		level, index := m.inputLevel, m.inputIndex
		m = m.closePopup()
		err := m.engine.Dispatch(engine.DeleteCommand{Level: level, Index: index})
		m.clampCursor()
		if err != nil {
			return m.failWith(err)
		}
		return m.flash("Deleted " + tree.LevelName(level))
	case "n", "N", "esc":
		return m.closePopup(), nil
	}
	return m, nil
}

func (m Model) handleImportPathPopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePopup(), nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			return m.closePopup(), nil
		}
		data, err := os.ReadFile(name)
		if err != nil {
			m = m.closePopup()
			return m.fail("Import failed: " + err.Error())
		}
		tasks, err := transfer.Decode(name, data)
		if err != nil {
			m = m.closePopup()
			if errors.Is(err, transfer.ErrInvalidImportShape) {
				return m.fail("Invalid file format: expected a list of tasks")
			}
			return m.fail("Import failed: " + err.Error())
		}
		m.input.Blur()
		m.pending = tasks
		m.pendingFile = name
		m.popup = popupConfirmImport
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmImportPopup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		tasks, name := m.pending, m.pendingFile
		m = m.closePopup()
		err := m.engine.Dispatch(engine.ImportCommand{Tasks: tasks})
		m.focus = 0
		m.cursor = [tree.Levels]int{}
		m.clampCursor()
		if err != nil {
			return m.failWith(err)
		}
		return m.flash(fmt.Sprintf("Imported %d tasks from %s", len(tasks), name))
	case "n", "N", "esc":
		return m.closePopup(), nil
	}
	return m, nil
}
