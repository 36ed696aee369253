package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/imkarma/subtask/internal/tree"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle   = lipgloss.NewStyle().Foreground(clrDim)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrSubtle).
			Padding(0, 1)

	columnFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(clrHighlight).
				Padding(0, 1)

	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(clrHighlight)
	finalStyle    = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Underline(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(clrDim).Strikethrough(true)

	glyphEmpty   = lipgloss.NewStyle().Foreground(clrDim).Render("○")
	glyphPartial = lipgloss.NewStyle().Foreground(clrYellow).Render("◐")
	glyphDone    = lipgloss.NewStyle().Foreground(clrGreen).Render("●")

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

var placeholderHeaders = [tree.Levels]string{"All Tasks", "Select a task", "Select a subtask"}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	content := m.viewColumns()

	// Overlay popup if active.
	if m.popup != popupNone {
		content = m.overlayPopup(content)
	}

	return content
}

func (m Model) viewColumns() string {
	var b strings.Builder

	// Header.
	st := m.engine.Tree().Stats()
	header := titleStyle.Render("subtask")
	header += dimStyle.Render(fmt.Sprintf("  %d tasks · %d/%d items done", st.Tasks, st.CompletedItems, st.Items))
	b.WriteString(header + "\n\n")

	cols := make([]string, tree.Levels)
	for level := range cols {
		cols[level] = m.renderColumn(level)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...) + "\n")

	// Status line.
	switch {
	case m.statusMsg != "" && m.statusErr:
		b.WriteString(errorStyle.Render("  "+m.statusMsg) + "\n")
	case m.statusMsg != "":
		b.WriteString(statusStyle.Render("  "+m.statusMsg) + "\n")
	default:
		b.WriteString("\n")
	}

	h := m.help
	h.ShowAll = m.showHelp
	b.WriteString("  " + h.View(m.keys))

	return b.String()
}

func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 36
	}
	// Border and padding take 4 cells per column.
	w := m.width/tree.Levels - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) columnHeight() int {
	if m.height <= 0 {
		return 15
	}
	// Header, column header, borders, status and help.
	h := m.height - 9
	if m.showHelp {
		h -= 4
	}
	if h < 3 {
		h = 3
	}
	return h
}

// headerText is the column heading: the parent's title, or a prompt when
// nothing is selected above.
func (m Model) headerText(level int) string {
	if level > 0 && !m.engine.CanAdd(level) {
		return placeholderHeaders[level]
	}
	return m.engine.ColumnTitle(level)
}

func (m Model) renderColumn(level int) string {
	width := m.columnWidth()
	height := m.columnHeight()
	rows := m.rows(level)

	var b strings.Builder
	title := truncate(m.headerText(level), width-8)
	count := ""
	if m.engine.CanAdd(level) {
		count = dimStyle.Render(fmt.Sprintf(" %d/%d", len(rows), m.engine.MaxItems()))
	}
	b.WriteString(headerStyle.Render(title) + count + "\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", width)) + "\n")

	switch {
	case len(rows) == 0 && level == 0:
		b.WriteString(dimStyle.Render("Add your task here..."))
	case len(rows) == 0 && m.engine.CanAdd(level):
		b.WriteString(dimStyle.Render(fmt.Sprintf("No %ss yet. Press a to add.", tree.LevelName(level))))
	}

	start := 0
	if c := m.cursor[level]; c >= height {
		start = c - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(level, i, rows[i], width))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	if end < len(rows) {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("↓ %d more", len(rows)-end)))
	}

	style := columnStyle
	if level == m.focus {
		style = columnFocusedStyle
	}
	return style.Width(width + 2).Height(height + 2).Render(b.String())
}

func (m Model) renderRow(level, i int, r tree.Row, width int) string {
	marker := "  "
	atCursor := level == m.focus && i == m.cursor[level]
	if atCursor {
		marker = "› "
	}

	sel := m.engine.Selection()
	idx, ok := sel.At(level)
	selected := ok && idx == i
	final := selected && level == sel.FinalLevel()

	var prefix, suffix string
	if level == tree.Levels-1 {
		prefix = "[ ] "
		if r.Done() {
			prefix = lipgloss.NewStyle().Foreground(clrGreen).Render("[x]") + " "
		}
	} else {
		prefix = progressGlyph(r.Progress) + " "
		suffix = dimStyle.Render(fmt.Sprintf(" %d/%d", r.Progress.Completed, r.Progress.Total))
	}

	title := truncate(r.Title, width-lipgloss.Width(marker+prefix+suffix))
	switch {
	case final:
		title = finalStyle.Render(title)
	case selected:
		title = selectedStyle.Render(title)
	case r.Done():
		title = doneStyle.Render(title)
	case atCursor:
		title = cursorStyle.Render(title)
	}
	return marker + prefix + title + suffix
}

func progressGlyph(p tree.Progress) string {
	switch {
	case p.Total > 0 && p.Completed == p.Total:
		return glyphDone
	case p.Completed > 0:
		return glyphPartial
	}
	return glyphEmpty
}

// truncate shortens s to at most n cells, ending in an ellipsis when cut.
func truncate(s string, n int) string {
	if n < 1 {
		n = 1
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r)) > n-1 {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// ════════════════════════════════════════════════
// POPUPS
// ════════════════════════════════════════════════

func (m Model) overlayPopup(bg string) string {
	var popup string

	switch m.popup {
	case popupAdd:
		popup = m.viewAddPopup()
	case popupRename:
		popup = m.viewRenamePopup()
	case popupConfirmDelete:
		popup = m.viewConfirmDeletePopup()
	case popupImportPath:
		popup = m.viewImportPathPopup()
	case popupConfirmImport:
		popup = m.viewConfirmImportPopup()
	default:
		return bg
	}

	// Place popup in center of screen.
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			popup,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return popup
}

func (m Model) viewAddPopup() string {
	var b strings.Builder

	level := m.inputLevel
	heading := "Add " + tree.LevelName(level)
	if level > 0 {
		heading += " to " + m.engine.ColumnTitle(level)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Render(heading) + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d in this column", len(m.rows(level)), m.engine.MaxItems())) + "\n")
	b.WriteString(footerDescStyle.Render("enter add and continue • esc done"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) viewRenamePopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrYellow).Render("Rename " + tree.LevelName(m.inputLevel))
	b.WriteString(title + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(footerDescStyle.Render("enter save • empty title deletes • esc cancel"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) viewConfirmDeletePopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrRed).Render("Delete " + tree.LevelName(m.inputLevel))
	b.WriteString(title + "\n\n")

	rows := m.rows(m.inputLevel)
	if m.inputIndex < len(rows) {
		r := rows[m.inputIndex]
		b.WriteString(fmt.Sprintf("%q\n", r.Title))
		if r.Level < tree.Levels-1 && r.Progress.Total > 0 {
			b.WriteString(fmt.Sprintf("Its %d %ss will be deleted too.\n", r.Progress.Total, tree.LevelName(r.Level+1)))
		}
	}
	b.WriteString("\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{{"y", "confirm"}, {"n", "cancel"}}))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) viewImportPathPopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Render("Import")
	b.WriteString(title + "\n\n")
	b.WriteString("File (.json, .yaml):\n")
	b.WriteString(m.input.View() + "\n\n")
	b.WriteString(footerDescStyle.Render("enter load • esc cancel"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) viewConfirmImportPopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrRed).Render("Replace all tasks?")
	b.WriteString(title + "\n\n")
	b.WriteString(fmt.Sprintf("%s contains %d tasks.\n", m.pendingFile, len(m.pending)))
	b.WriteString("This will replace all your current tasks. Are you sure?\n\n")
	b.WriteString(renderFooter([]struct{ key, desc string }{{"y", "replace"}, {"n", "cancel"}}))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) popupBoxStyle() lipgloss.Style {
	w := 60
	if m.width > 0 {
		w = m.width - 12
		if w < 42 {
			w = 42
		}
		if w > 84 {
			w = 84
		}
	}
	return popupStyle.Width(w)
}

// ════════════════════════════════════════════════
// SHARED HELPERS
// ════════════════════════════════════════════════

func renderFooter(keys []struct{ key, desc string }) string {
	var parts []string
	for _, k := range keys {
		key := footerKeyStyle.Render(k.key)
		desc := footerDescStyle.Render(k.desc)
		parts = append(parts, key+" "+desc)
	}
	return strings.Join(parts, "  ")
}
