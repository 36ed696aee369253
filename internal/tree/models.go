package tree

import (
	"fmt"
	"time"
)

// Levels is the fixed depth of the hierarchy: tasks, subtasks, items.
const Levels = 3

// DefaultMaxItems is the per-column ceiling used when no limit is configured.
const DefaultMaxItems = 50

// Level names used in messages and journal entries.
var levelNames = [Levels]string{"task", "subtask", "item"}

// LevelName returns the human label for a column level.
func LevelName(level int) string {
	if level < 0 || level >= Levels {
		return fmt.Sprintf("level %d", level)
	}
	return levelNames[level]
}

// DateLayout is the calendar-day format used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar day in YYYY-MM-DD form. It is kept as the raw string so
// imported documents round-trip byte for byte.
type Date string

// Today returns the calendar day of now in its own location.
func Today(now time.Time) Date {
	return Date(now.Format(DateLayout))
}

// Status is the completion state of a leaf item.
type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
)

// Base carries the fields every level shares.
type Base struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Order   int    `json:"order" yaml:"order"` // insertion index at creation, never renumbered
	Created Date   `json:"created" yaml:"created"`
}

// Task is a top-level (column 0) entry.
type Task struct {
	Base     `yaml:",inline"`
	Subtasks []Subtask `json:"tasks" yaml:"tasks"`
}

// Subtask is a column 1 entry.
type Subtask struct {
	Base  `yaml:",inline"`
	Items []Item `json:"sub-tasks" yaml:"sub-tasks"`
}

// Item is a leaf (column 2) entry. Completed is set iff Status is complete.
type Item struct {
	Base      `yaml:",inline"`
	Status    Status `json:"status" yaml:"status"`
	Completed *Date  `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// Done reports whether the item is complete.
func (i Item) Done() bool {
	return i.Status == StatusComplete
}

// Progress is the rollup shown next to task and subtask titles.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
}

// Row is a level-agnostic view of one column entry, used by renderers.
type Row struct {
	Base
	Level    int
	Status   Status   // leaf level only
	Progress Progress // levels 0 and 1 only
}

// Done reports whether a leaf row is complete. Non-leaf rows are never done.
func (r Row) Done() bool {
	return r.Level == Levels-1 && r.Status == StatusComplete
}

// Stats summarizes the whole tree.
type Stats struct {
	Tasks          int
	Subtasks       int
	Items          int
	CompletedItems int
	CompletedTasks int
}
