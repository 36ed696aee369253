package tree

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const today = Date("2025-03-14")

// testTree builds a tree with the given number of tasks, each with subs
// subtasks, each with items leaves.
func testTree(t *testing.T, tasks, subs, items int) *Tree {
	t.Helper()
	tr := New(nil)
	for i := 0; i < tasks; i++ {
		if _, err := tr.Add(nil, "task", today, 0); err != nil {
			t.Fatalf("add task: %v", err)
		}
		for j := 0; j < subs; j++ {
			if _, err := tr.Add([]int{i}, "sub", today, 0); err != nil {
				t.Fatalf("add subtask: %v", err)
			}
			for k := 0; k < items; k++ {
				if _, err := tr.Add([]int{i, j}, "item", today, 0); err != nil {
					t.Fatalf("add item: %v", err)
				}
			}
		}
	}
	return tr
}

func TestAdd_AssignsFields(t *testing.T) {
	tr := New(nil)

	first, err := tr.Add(nil, "  Write report  ", today, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, _ := tr.Add(nil, "Ship it", today, 0)

	if first.Title != "Write report" {
		t.Errorf("expected trimmed title, got %q", first.Title)
	}
	if first.Order != 0 || second.Order != 1 {
		t.Errorf("expected orders 0,1 got %d,%d", first.Order, second.Order)
	}
	if first.Created != today {
		t.Errorf("expected created %s, got %s", today, first.Created)
	}
	if !strings.HasPrefix(first.ID, "task-") || first.ID == second.ID {
		t.Errorf("expected distinct task- ids, got %q and %q", first.ID, second.ID)
	}
	if tr.Tasks[0].Subtasks == nil {
		t.Error("expected new task to carry an empty subtask list")
	}
}

func TestAdd_LeafStartsIncomplete(t *testing.T) {
	tr := testTree(t, 1, 1, 1)

	it, ok := tr.Item(0, 0, 0)
	if !ok {
		t.Fatal("item not found")
	}
	if it.Status != StatusIncomplete {
		t.Errorf("expected incomplete, got %s", it.Status)
	}
	if it.Completed != nil {
		t.Errorf("expected no completion date, got %v", *it.Completed)
	}
}

func TestAdd_InvalidPrefix(t *testing.T) {
	tr := testTree(t, 1, 0, 0)

	for _, prefix := range [][]int{{5}, {0, 0}, {-1}, {0, 0, 0}} {
		if _, err := tr.Add(prefix, "x", today, 0); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Add(%v): expected ErrInvalidPath, got %v", prefix, err)
		}
	}
}

func TestAdd_EmptyTitle(t *testing.T) {
	tr := New(nil)
	if _, err := tr.Add(nil, "   ", today, 0); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	if len(tr.Tasks) != 0 {
		t.Errorf("expected no task added, got %d", len(tr.Tasks))
	}
}

func TestAdd_Capacity(t *testing.T) {
	tr := testTree(t, DefaultMaxItems, 0, 0)

	_, err := tr.Add(nil, "one too many", today, 0)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if len(tr.Tasks) != DefaultMaxItems {
		t.Errorf("expected %d tasks, got %d", DefaultMaxItems, len(tr.Tasks))
	}
}

func TestAdd_CustomLimit(t *testing.T) {
	tr := testTree(t, 1, 2, 0)
	if _, err := tr.Add([]int{0}, "third", today, 2); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded at limit 2, got %v", err)
	}
}

func TestChildren(t *testing.T) {
	tr := testTree(t, 2, 2, 3)

	tests := []struct {
		prefix []int
		want   int
		level  int
	}{
		{nil, 2, 0},
		{[]int{1}, 2, 1},
		{[]int{1, 1}, 3, 2},
		{[]int{9}, 0, 0},
		{[]int{0, 9}, 0, 0},
	}
	for _, tc := range tests {
		rows := tr.Children(tc.prefix)
		if len(rows) != tc.want {
			t.Errorf("Children(%v): expected %d rows, got %d", tc.prefix, tc.want, len(rows))
			continue
		}
		for _, r := range rows {
			if r.Level != tc.level {
				t.Errorf("Children(%v): expected level %d, got %d", tc.prefix, tc.level, r.Level)
			}
		}
	}
}

func TestRename(t *testing.T) {
	tr := testTree(t, 1, 1, 1)

	if err := tr.Rename([]int{0, 0, 0}, "  renamed "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if got := tr.Title([]int{0, 0, 0}); got != "renamed" {
		t.Errorf("expected 'renamed', got %q", got)
	}
	if err := tr.Rename([]int{0}, " "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if got := tr.Title([]int{0}); got != "task" {
		t.Errorf("title must not change on blank rename, got %q", got)
	}
	if err := tr.Rename([]int{3}, "x"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestDelete_ShiftsLaterSiblings(t *testing.T) {
	tr := New(nil)
	a, _ := tr.Add(nil, "a", today, 0)
	_, _ = tr.Add(nil, "b", today, 0)
	c, _ := tr.Add(nil, "c", today, 0)

	removed, err := tr.Delete([]int{1})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.Title != "b" {
		t.Errorf("expected to remove b, got %q", removed.Title)
	}
	if len(tr.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tr.Tasks))
	}
	if tr.Tasks[0].ID != a.ID || tr.Tasks[1].ID != c.ID {
		t.Error("expected remaining ids to be preserved in order")
	}
	if tr.Tasks[1].Order != 2 {
		t.Errorf("order must not be renumbered, got %d", tr.Tasks[1].Order)
	}
}

func TestDelete_Nested(t *testing.T) {
	tr := testTree(t, 1, 2, 2)

	if _, err := tr.Delete([]int{0, 1, 0}); err != nil {
		t.Fatalf("Delete item: %v", err)
	}
	if n, _ := tr.Len([]int{0, 1}); n != 1 {
		t.Errorf("expected 1 item left, got %d", n)
	}
	if _, err := tr.Delete([]int{0, 0}); err != nil {
		t.Fatalf("Delete subtask: %v", err)
	}
	if n, _ := tr.Len([]int{0}); n != 1 {
		t.Errorf("expected 1 subtask left, got %d", n)
	}
	if _, err := tr.Delete([]int{0, 5}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestToggle(t *testing.T) {
	tr := testTree(t, 1, 1, 1)
	path := []int{0, 0, 0}

	status, err := tr.Toggle(path, today)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	it, _ := tr.Item(0, 0, 0)
	if status != StatusComplete || it.Completed == nil || *it.Completed != today {
		t.Fatalf("expected complete with date %s, got %s %v", today, status, it.Completed)
	}

	status, _ = tr.Toggle(path, "2025-03-15")
	if status != StatusIncomplete || it.Completed != nil {
		t.Errorf("expected incomplete with no date, got %s %v", status, it.Completed)
	}
}

func TestToggle_NonLeaf(t *testing.T) {
	tr := testTree(t, 1, 1, 0)

	if _, err := tr.Toggle([]int{0, 0}, today); !errors.Is(err, ErrNotLeaf) {
		t.Errorf("expected ErrNotLeaf, got %v", err)
	}
	if _, err := tr.Toggle([]int{0, 0, 0}, today); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestTaskProgress_EmptySubtaskNeverDone(t *testing.T) {
	tr := testTree(t, 1, 1, 0)

	got := tr.Tasks[0].Progress()
	want := Progress{Total: 1, Completed: 0, Percentage: 0}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestTaskProgress_CountsFullyCompleteSubtasks(t *testing.T) {
	tr := testTree(t, 1, 3, 2)
	// Subtask 0: both done. Subtask 1: one of two. Subtask 2: none.
	tr.Toggle([]int{0, 0, 0}, today)
	tr.Toggle([]int{0, 0, 1}, today)
	tr.Toggle([]int{0, 1, 0}, today)

	got := tr.Tasks[0].Progress()
	want := Progress{Total: 3, Completed: 1, Percentage: 33}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSubtaskProgress(t *testing.T) {
	tr := testTree(t, 1, 1, 2)
	tr.Toggle([]int{0, 0, 1}, today)

	got := tr.Tasks[0].Subtasks[0].Progress()
	want := Progress{Total: 2, Completed: 1, Percentage: 50}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestProgress_Rounding(t *testing.T) {
	tests := []struct {
		total, done, want int
	}{
		{0, 0, 0},
		{3, 2, 67},
		{3, 1, 33},
		{8, 1, 13},
		{2, 2, 100},
	}
	for _, tc := range tests {
		if got := newProgress(tc.total, tc.done).Percentage; got != tc.want {
			t.Errorf("newProgress(%d,%d) = %d, expected %d", tc.total, tc.done, got, tc.want)
		}
	}
}

func TestStats(t *testing.T) {
	tr := testTree(t, 2, 2, 2)
	tr.Toggle([]int{1, 0, 0}, today)
	tr.Toggle([]int{1, 0, 1}, today)
	tr.Toggle([]int{1, 1, 0}, today)
	tr.Toggle([]int{1, 1, 1}, today)

	s := tr.Stats()
	if s.Tasks != 2 || s.Subtasks != 4 || s.Items != 8 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.CompletedItems != 4 || s.CompletedTasks != 1 {
		t.Errorf("unexpected completion counts: %+v", s)
	}
}

func TestClone_IsDeep(t *testing.T) {
	tr := testTree(t, 1, 1, 1)
	tr.Toggle([]int{0, 0, 0}, today)

	cp := tr.Clone()
	cp.Rename([]int{0, 0, 0}, "changed")
	*cp.Tasks[0].Subtasks[0].Items[0].Completed = "1999-01-01"

	if tr.Title([]int{0, 0, 0}) != "item" {
		t.Error("rename on clone leaked into original")
	}
	if *tr.Tasks[0].Subtasks[0].Items[0].Completed != today {
		t.Error("completion date on clone aliases original")
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	if got := Today(now); got != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", got)
	}
}
