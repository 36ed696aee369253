package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/subtask/internal/engine"
	"github.com/imkarma/subtask/internal/selection"
	"github.com/imkarma/subtask/internal/transfer"
	"github.com/imkarma/subtask/internal/tree"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testModel(t *testing.T, maxItems int) (Model, *engine.Engine) {
	t.Helper()
	e := engine.Open(engine.Options{
		MaxItems: maxItems,
		Now:      func() time.Time { return testNow },
	})
	m := New(e, Options{
		ExportDir: t.TempDir(),
		Clipboard: func(string) error { return nil },
	})
	return m, e
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends each key in turn.
func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(keyPress(k))
		m = next.(Model)
	}
	return m
}

// typeText sends s one rune at a time, as a terminal would.
func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func titles(rows []tree.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

// seeded builds Garden > Beds > [Dig, Plant] through the keyboard and leaves
// focus on the item column with the cursor on Dig.
func seeded(t *testing.T) (Model, *engine.Engine) {
	t.Helper()
	m, e := testModel(t, 0)
	m = press(m, "a")
	m = typeText(m, "Garden")
	m = press(m, "enter", "esc", "enter")
	m = press(m, "a")
	m = typeText(m, "Beds")
	m = press(m, "enter", "esc", "enter")
	m = press(m, "a")
	m = typeText(m, "Dig")
	m = press(m, "enter")
	m = typeText(m, "Plant")
	m = press(m, "enter", "esc", "k")
	return m, e
}

func TestAdd_StaysOpenForNextEntry(t *testing.T) {
	m, e := testModel(t, 0)

	m = press(m, "a")
	if m.popup != popupAdd {
		t.Fatal("expected add popup")
	}
	m = typeText(m, "First")
	m = press(m, "enter")
	if m.popup != popupAdd {
		t.Fatal("expected the input to stay open after adding")
	}
	m = typeText(m, "Second")
	m = press(m, "enter")
	m = press(m, "esc")

	if m.popup != popupNone {
		t.Error("expected esc to close the input")
	}
	if got := titles(e.Column(0)); strings.Join(got, ",") != "First,Second" {
		t.Errorf("unexpected tasks %v", got)
	}
	if m.cursor[0] != 1 {
		t.Errorf("expected cursor on the newest task, got %d", m.cursor[0])
	}
}

func TestAdd_ClosesWhenColumnFull(t *testing.T) {
	m, e := testModel(t, 2)

	m = press(m, "a")
	m = typeText(m, "one")
	m = press(m, "enter")
	m = typeText(m, "two")
	m = press(m, "enter")

	if m.popup != popupNone {
		t.Error("expected input to close at capacity")
	}
	if !m.statusErr || !strings.Contains(m.statusMsg, "Limit of 2 tasks") {
		t.Errorf("expected capacity warning, got %q", m.statusMsg)
	}
	if len(e.Column(0)) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(e.Column(0)))
	}

	m = press(m, "a")
	if m.popup != popupNone {
		t.Error("a full column must not open the input")
	}
}

// brokenStorage loads nothing and fails every save.
type brokenStorage struct{}

func (brokenStorage) Load() ([]tree.Task, bool, error) { return nil, false, nil }
func (brokenStorage) Save([]tree.Task) error { return errors.New("disk full") }

func TestAdd_SaveFailureWinsOverCapacity(t *testing.T) {
	e := engine.Open(engine.Options{Storage: brokenStorage{}, MaxItems: 1})
	m := New(e, Options{ExportDir: t.TempDir(), Clipboard: func(string) error { return nil }})

	m = press(m, "a")
	m = typeText(m, "only")
	m = press(m, "enter")

	if len(e.Column(0)) != 1 {
		t.Fatal("a failed save must keep the entry")
	}
	if !m.statusErr || !strings.Contains(m.statusMsg, "could not be saved") {
		t.Errorf("expected storage warning, got %q", m.statusMsg)
	}
	if m.popup != popupNone {
		t.Error("expected the full column to close the input")
	}
}

func TestAdd_BlankEnterCloses(t *testing.T) {
	m, e := testModel(t, 0)
	m = press(m, "a", "enter")
	if m.popup != popupNone || len(e.Column(0)) != 0 {
		t.Error("blank enter should close without adding")
	}
}

func TestAdd_NeedsParentSelection(t *testing.T) {
	m, _ := testModel(t, 0)
	m = press(m, "a")
	m = typeText(m, "Lonely")
	m = press(m, "enter", "esc")

	// Focus cannot move right without a selected task.
	m = press(m, "l")
	if m.focus != 0 {
		t.Fatalf("expected focus to stay on tasks, got %d", m.focus)
	}
}

func TestSelectMovesFocusRight(t *testing.T) {
	m, e := seeded(t)

	if m.focus != 2 {
		t.Fatalf("expected focus on items, got %d", m.focus)
	}
	if e.Selection() != (selection.Path{0, 0, selection.None}) {
		t.Fatalf("unexpected selection %s", e.Selection())
	}
	if got := titles(e.Column(2)); strings.Join(got, ",") != "Dig,Plant" {
		t.Errorf("unexpected items %v", got)
	}

	// Selecting an item keeps focus on the last column.
	m = press(m, "j", "enter")
	if m.focus != 2 || e.Selection() != (selection.Path{0, 0, 1}) {
		t.Errorf("unexpected focus %d selection %s", m.focus, e.Selection())
	}
}

func TestSelectAgainDeselects(t *testing.T) {
	m, e := seeded(t)

	m = press(m, "h", "h", "enter")
	if e.Selection() != selection.Empty() {
		t.Errorf("expected deselect, got %s", e.Selection())
	}
	if m.focus != 0 {
		t.Errorf("expected focus to stay, got %d", m.focus)
	}
}

func TestEscClearsSelection(t *testing.T) {
	m, e := seeded(t)
	m = press(m, "esc")
	if e.Selection() != selection.Empty() || m.focus != 0 {
		t.Errorf("expected cleared selection and focus 0, got %s focus %d", e.Selection(), m.focus)
	}
}

func TestToggleItem(t *testing.T) {
	m, e := seeded(t)

	m = press(m, " ")
	it := e.Tree().Tasks[0].Subtasks[0].Items[0]
	if !it.Done() || it.Completed == nil || *it.Completed != "2025-06-01" {
		t.Fatalf("expected Dig done on 2025-06-01, got %+v", it)
	}
	m = press(m, "x")
	if e.Tree().Tasks[0].Subtasks[0].Items[0].Done() {
		t.Error("expected x to toggle back")
	}

	m = press(m, "h", " ")
	if m.statusMsg == "" {
		t.Error("expected a hint when toggling a subtask")
	}
}

func TestRename(t *testing.T) {
	m, e := seeded(t)

	m = press(m, "e")
	if m.popup != popupRename || m.input.Value() != "Dig" {
		t.Fatalf("expected rename prefilled with Dig, got %q", m.input.Value())
	}
	m = typeText(m, " deep")
	m = press(m, "enter")
	if got := e.Column(2)[0].Title; got != "Dig deep" {
		t.Errorf("expected renamed item, got %q", got)
	}
}

func TestRename_EmptyDeletes(t *testing.T) {
	m, e := seeded(t)

	m = press(m, "e")
	for range "Dig" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
		m = next.(Model)
	}
	m = press(m, "enter")
	if got := titles(e.Column(2)); strings.Join(got, ",") != "Plant" {
		t.Errorf("expected Dig deleted, got %v", got)
	}
	if !strings.Contains(m.statusMsg, "Deleted") {
		t.Errorf("unexpected status %q", m.statusMsg)
	}
}

func TestDelete_Confirm(t *testing.T) {
	m, e := seeded(t)

	m = press(m, "h", "d")
	if m.popup != popupConfirmDelete {
		t.Fatal("expected delete confirmation")
	}
	if view := m.View(); !strings.Contains(view, "Its 2 items will be deleted too.") {
		t.Errorf("confirmation should mention children, got %q", view)
	}
	m = press(m, "n")
	if len(e.Column(1)) != 1 {
		t.Fatal("n must cancel")
	}

	m = press(m, "d", "y")
	if len(e.Column(1)) != 0 {
		t.Fatal("expected subtask deleted")
	}
	if e.Selection() != (selection.Path{0, selection.None, selection.None}) {
		t.Errorf("expected [0 - -], got %s", e.Selection())
	}
	if m.focus != 1 {
		t.Errorf("expected focus to stay on subtasks, got %d", m.focus)
	}
}

func TestDelete_SelectedTaskEmptiesColumns(t *testing.T) {
	m, e := seeded(t)

	m = press(m, "h", "h", "d", "y")
	if len(e.Column(0)) != 0 || e.Selection() != selection.Empty() {
		t.Fatalf("expected empty tree and selection, got %d tasks %s", len(e.Column(0)), e.Selection())
	}
	m = press(m, "l")
	if m.focus != 0 {
		t.Errorf("expected focus to stay on tasks, got %d", m.focus)
	}
}

func TestCopy(t *testing.T) {
	m, _ := seeded(t)
	var got string
	m.opts.Clipboard = func(s string) error { got = s; return nil }

	m = press(m, "y")
	if got != "Beds\n- Dig\n- Plant" {
		t.Errorf("unexpected clipboard text %q", got)
	}
	if !strings.Contains(m.statusMsg, "Copied 2 items") {
		t.Errorf("unexpected status %q", m.statusMsg)
	}

	m.opts.Clipboard = func(string) error { return errors.New("no display") }
	m = press(m, "y")
	if !m.statusErr {
		t.Error("expected clipboard failure to show as error")
	}
}

func TestPaste(t *testing.T) {
	m, e := seeded(t)
	m.opts.Paste = func() (string, error) { return "Beds\n- [x] Water\n- Weed", nil }

	m = press(m, "p")
	if got := titles(e.Column(2)); strings.Join(got, ",") != "Dig,Plant,Water,Weed" {
		t.Fatalf("unexpected items %v", got)
	}
	if !e.Column(2)[2].Done() || e.Column(2)[3].Done() {
		t.Error("expected only Water checked off")
	}
	if m.cursor[2] != 3 || !strings.Contains(m.statusMsg, "Pasted 2 items") {
		t.Errorf("unexpected cursor %d status %q", m.cursor[2], m.statusMsg)
	}

	m.opts.Paste = func() (string, error) { return "nothing listed", nil }
	m = press(m, "p")
	if len(e.Column(2)) != 4 || m.statusMsg != "Nothing to paste" {
		t.Errorf("unexpected status %q", m.statusMsg)
	}
}

func TestPaste_StopsAtCapacity(t *testing.T) {
	m, e := testModel(t, 2)
	m.opts.Paste = func() (string, error) { return "- one\n- two\n- three", nil }

	m = press(m, "p")
	if len(e.Column(0)) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(e.Column(0)))
	}
	if !m.statusErr || !strings.Contains(m.statusMsg, "Limit of 2 tasks") {
		t.Errorf("expected capacity warning, got %q", m.statusMsg)
	}
}

func TestExport(t *testing.T) {
	m, _ := seeded(t)
	m = press(m, "E")

	path := filepath.Join(m.opts.ExportDir, "subtasks-2025-06-01.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected export at %s: %v", path, err)
	}
	tasks, err := transfer.Unmarshal(data)
	if err != nil || len(tasks) != 1 || tasks[0].Title != "Garden" {
		t.Errorf("unexpected export %s (%v)", data, err)
	}
	if !strings.Contains(m.statusMsg, "Exported") {
		t.Errorf("unexpected status %q", m.statusMsg)
	}
}

func TestImport(t *testing.T) {
	m, e := seeded(t)
	file := filepath.Join(t.TempDir(), "in.json")
	os.WriteFile(file, []byte(`[{"id":"task-1","title":"Imported","order":0,"created":"2024-01-01","tasks":[]}]`), 0644)

	m = press(m, "I")
	m = typeText(m, file)
	m = press(m, "enter")
	if m.popup != popupConfirmImport {
		t.Fatalf("expected confirmation, got popup %d status %q", m.popup, m.statusMsg)
	}
	if view := m.View(); !strings.Contains(view, "This will replace all your current tasks.") {
		t.Errorf("confirmation text missing from %q", view)
	}

	m = press(m, "y")
	if got := titles(e.Column(0)); strings.Join(got, ",") != "Imported" {
		t.Errorf("unexpected tasks after import %v", got)
	}
	if e.Selection() != selection.Empty() || m.focus != 0 {
		t.Errorf("expected reset selection, got %s focus %d", e.Selection(), m.focus)
	}
}

func TestImport_InvalidShape(t *testing.T) {
	m, e := seeded(t)
	file := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(file, []byte(`{"title":"not a list"}`), 0644)

	m = press(m, "I")
	m = typeText(m, file)
	m = press(m, "enter")

	if m.popup != popupNone || !m.statusErr || !strings.Contains(m.statusMsg, "Invalid file format") {
		t.Errorf("expected invalid format error, got popup %d status %q", m.popup, m.statusMsg)
	}
	if len(e.Column(0)) != 1 {
		t.Error("tree must be unchanged")
	}
}

func TestStatusClears(t *testing.T) {
	m, _ := testModel(t, 0)
	next, _ := m.flash("hello")
	m = next.(Model)

	// A stale clear message must not remove a newer status.
	next, _ = m.Update(statusClearMsg{seq: m.statusSeq - 1})
	m = next.(Model)
	if m.statusMsg != "hello" {
		t.Fatal("stale clear removed the status")
	}
	next, _ = m.Update(statusClearMsg{seq: m.statusSeq})
	if next.(Model).statusMsg != "" {
		t.Error("expected status to clear")
	}
}

func TestView(t *testing.T) {
	m, _ := testModel(t, 0)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"All Tasks", "Select a task", "Select a subtask", "Add your task here..."} {
		if !strings.Contains(view, want) {
			t.Errorf("empty view missing %q", want)
		}
	}

	m, _ = seeded(t)
	view = m.View()
	for _, want := range []string{"Garden", "Beds", "Dig", "Plant", "0/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "export") {
		t.Error("expected full help")
	}

	m = press(m, "q")
	if !m.quitting || m.View() != "" {
		t.Error("expected quit to blank the view")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("a much longer title", 8); got != "a much …" {
		t.Errorf("got %q", got)
	}
}
