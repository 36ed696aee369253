// Package tree holds the three-level task hierarchy and the operations that
// mutate it. It knows nothing about selection or persistence; callers address
// entries by index paths.
package tree

import (
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrCapacityExceeded = errors.New("column is full")
	ErrEmptyTitle       = errors.New("title is empty")
	ErrNotLeaf          = errors.New("only items can be completed")
)

// Tree is the root sequence of tasks.
type Tree struct {
	Tasks []Task
}

// New wraps an existing task sequence. A nil slice becomes an empty tree.
func New(tasks []Task) *Tree {
	if tasks == nil {
		tasks = []Task{}
	}
	return &Tree{Tasks: tasks}
}

// NewID returns a fresh opaque task identifier.
func NewID() string {
	return "task-" + uuid.NewString()
}

// Len returns the size of the column addressed by prefix.
// ok is false when the prefix does not resolve to a parent.
func (t *Tree) Len(prefix []int) (n int, ok bool) {
	switch len(prefix) {
	case 0:
		return len(t.Tasks), true
	case 1:
		task := t.task(prefix[0])
		if task == nil {
			return 0, false
		}
		return len(task.Subtasks), true
	case 2:
		sub := t.subtask(prefix[0], prefix[1])
		if sub == nil {
			return 0, false
		}
		return len(sub.Items), true
	}
	return 0, false
}

// Children returns the column under prefix as rows. An invalid prefix or a
// parent without children yields an empty slice.
func (t *Tree) Children(prefix []int) []Row {
	rows := []Row{}
	switch len(prefix) {
	case 0:
		for _, task := range t.Tasks {
			rows = append(rows, Row{Base: task.Base, Level: 0, Progress: task.Progress()})
		}
	case 1:
		if task := t.task(prefix[0]); task != nil {
			for _, sub := range task.Subtasks {
				rows = append(rows, Row{Base: sub.Base, Level: 1, Progress: sub.Progress()})
			}
		}
	case 2:
		if sub := t.subtask(prefix[0], prefix[1]); sub != nil {
			for _, it := range sub.Items {
				rows = append(rows, Row{Base: it.Base, Level: 2, Status: it.Status})
			}
		}
	}
	return rows
}

// Title returns the title of the entry at path, or "" when path is empty or invalid.
func (t *Tree) Title(path []int) string {
	if b := t.base(path); b != nil {
		return b.Title
	}
	return ""
}

// Item returns the leaf at (i, j, k).
func (t *Tree) Item(i, j, k int) (*Item, bool) {
	it := t.item(i, j, k)
	return it, it != nil
}

// Add appends a new entry under prefix and returns its base fields.
func (t *Tree) Add(prefix []int, title string, today Date, limit int) (Base, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Base{}, ErrEmptyTitle
	}
	n, ok := t.Len(prefix)
	if !ok {
		return Base{}, ErrInvalidPath
	}
	if limit <= 0 {
		limit = DefaultMaxItems
	}
	if n >= limit {
		return Base{}, ErrCapacityExceeded
	}

	b := Base{ID: NewID(), Title: title, Order: n, Created: today}
	switch len(prefix) {
	case 0:
		t.Tasks = append(t.Tasks, Task{Base: b, Subtasks: []Subtask{}})
	case 1:
		task := t.task(prefix[0])
		task.Subtasks = append(task.Subtasks, Subtask{Base: b, Items: []Item{}})
	case 2:
		sub := t.subtask(prefix[0], prefix[1])
		sub.Items = append(sub.Items, Item{Base: b, Status: StatusIncomplete})
	}
	return b, nil
}

// Rename sets the trimmed title of the entry at path. A blank title is
// rejected; callers turn that into a delete.
func (t *Tree) Rename(path []int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	b := t.base(path)
	if b == nil {
		return ErrInvalidPath
	}
	b.Title = title
	return nil
}

// Delete removes the entry at path and returns what was removed. Later
// siblings move down one index; their ids and order fields are untouched.
func (t *Tree) Delete(path []int) (Base, error) {
	b := t.base(path)
	if b == nil {
		return Base{}, ErrInvalidPath
	}
	removed := *b
	last := path[len(path)-1]
	switch len(path) {
	case 1:
		t.Tasks = append(t.Tasks[:last], t.Tasks[last+1:]...)
	case 2:
		task := t.task(path[0])
		task.Subtasks = append(task.Subtasks[:last], task.Subtasks[last+1:]...)
	case 3:
		sub := t.subtask(path[0], path[1])
		sub.Items = append(sub.Items[:last], sub.Items[last+1:]...)
	}
	return removed, nil
}

// Toggle flips the completion state of the leaf at path.
func (t *Tree) Toggle(path []int, today Date) (Status, error) {
	if len(path) != Levels {
		if t.base(path) != nil {
			return "", ErrNotLeaf
		}
		return "", ErrInvalidPath
	}
	it := t.item(path[0], path[1], path[2])
	if it == nil {
		return "", ErrInvalidPath
	}
	it.Toggle(today)
	return it.Status, nil
}

// Toggle flips the item between complete and incomplete, keeping Completed in step.
func (i *Item) Toggle(today Date) {
	if i.Status == StatusComplete {
		i.Status = StatusIncomplete
		i.Completed = nil
		return
	}
	i.Status = StatusComplete
	d := today
	i.Completed = &d
}

// Progress counts subtasks, treating a subtask as done only when it has at
// least one item and every item is complete. An empty subtask is never done.
func (t Task) Progress() Progress {
	var total, done int
	for _, sub := range t.Subtasks {
		total++
		if len(sub.Items) > 0 && sub.allDone() {
			done++
		}
	}
	return newProgress(total, done)
}

// Progress counts complete items.
func (s Subtask) Progress() Progress {
	var done int
	for _, it := range s.Items {
		if it.Done() {
			done++
		}
	}
	return newProgress(len(s.Items), done)
}

func (s Subtask) allDone() bool {
	for _, it := range s.Items {
		if !it.Done() {
			return false
		}
	}
	return true
}

func newProgress(total, done int) Progress {
	p := Progress{Total: total, Completed: done}
	if total > 0 {
		p.Percentage = int(math.Round(100 * float64(done) / float64(total)))
	}
	return p
}

// Stats walks the tree and returns totals.
func (t *Tree) Stats() Stats {
	var s Stats
	for _, task := range t.Tasks {
		s.Tasks++
		if p := task.Progress(); p.Total > 0 && p.Completed == p.Total {
			s.CompletedTasks++
		}
		for _, sub := range task.Subtasks {
			s.Subtasks++
			for _, it := range sub.Items {
				s.Items++
				if it.Done() {
					s.CompletedItems++
				}
			}
		}
	}
	return s
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return New(CloneTasks(t.Tasks))
}

// CloneTasks deep-copies a task sequence, preserving nil versus empty slices.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, task := range tasks {
		out[i] = task
		if task.Subtasks == nil {
			continue
		}
		out[i].Subtasks = make([]Subtask, len(task.Subtasks))
		for j, sub := range task.Subtasks {
			out[i].Subtasks[j] = sub
			if sub.Items == nil {
				continue
			}
			out[i].Subtasks[j].Items = make([]Item, len(sub.Items))
			for k, it := range sub.Items {
				if it.Completed != nil {
					d := *it.Completed
					it.Completed = &d
				}
				out[i].Subtasks[j].Items[k] = it
			}
		}
	}
	return out
}

func (t *Tree) task(i int) *Task {
	if i < 0 || i >= len(t.Tasks) {
		return nil
	}
	return &t.Tasks[i]
}

func (t *Tree) subtask(i, j int) *Subtask {
	task := t.task(i)
	if task == nil || j < 0 || j >= len(task.Subtasks) {
		return nil
	}
	return &task.Subtasks[j]
}

func (t *Tree) item(i, j, k int) *Item {
	sub := t.subtask(i, j)
	if sub == nil || k < 0 || k >= len(sub.Items) {
		return nil
	}
	return &sub.Items[k]
}

// base resolves a 1..3 element path to the shared fields of its entry.
func (t *Tree) base(path []int) *Base {
	switch len(path) {
	case 1:
		if task := t.task(path[0]); task != nil {
			return &task.Base
		}
	case 2:
		if sub := t.subtask(path[0], path[1]); sub != nil {
			return &sub.Base
		}
	case 3:
		if it := t.item(path[0], path[1], path[2]); it != nil {
			return &it.Base
		}
	}
	return nil
}
