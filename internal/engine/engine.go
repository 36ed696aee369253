// Package engine applies commands to the task tree and the selection path
// together, so neither can drift out of step with the other. Every command
// that changes state is followed by an immediate save.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imkarma/subtask/internal/selection"
	"github.com/imkarma/subtask/internal/store"
	"github.com/imkarma/subtask/internal/transfer"
	"github.com/imkarma/subtask/internal/tree"
)

var (
	ErrCapacityExceeded   = tree.ErrCapacityExceeded
	ErrEmptyTitle         = tree.ErrEmptyTitle
	ErrInvalidPath        = tree.ErrInvalidPath
	ErrNotLeaf            = tree.ErrNotLeaf
	ErrInvalidImportShape = transfer.ErrInvalidImportShape
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Storage loads and saves the serialized tree.
type Storage interface {
	Load() ([]tree.Task, bool, error)
	Save([]tree.Task) error
}

// Journal receives a record of every applied mutation.
type Journal interface {
	Record(store.Event) error
}

// Options configures an Engine.
type Options struct {
	Storage  Storage
	Journal  Journal
	Logger   *slog.Logger
	Now      func() time.Time
	MaxItems int
}

// Engine owns the tree and the selection for one session.
type Engine struct {
	tree     *tree.Tree
	sel      selection.Path
	storage  Storage
	journal  Journal
	log      *slog.Logger
	now      func() time.Time
	maxItems int
}

// Open builds an engine and loads the stored tree. A load failure is logged
// and the session starts from an empty tree.
func Open(opts Options) *Engine {
	e := &Engine{
		tree:     tree.New(nil),
		sel:      selection.Empty(),
		storage:  opts.Storage,
		journal:  opts.Journal,
		log:      opts.Logger,
		now:      opts.Now,
		maxItems: opts.MaxItems,
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.maxItems <= 0 {
		e.maxItems = tree.DefaultMaxItems
	}

	if e.storage == nil {
		return e
	}
	tasks, found, err := e.storage.Load()
	switch {
	case err != nil:
		e.log.Warn("failed to load tasks, starting empty", "error", err)
	case found:
		e.tree = tree.New(tasks)
		e.log.Debug("loaded tasks", "count", len(tasks))
	}
	return e
}

// Tree returns the live tree. Callers must treat it as read-only.
func (e *Engine) Tree() *tree.Tree {
	return e.tree
}

// Selection returns a copy of the current selection path.
func (e *Engine) Selection() selection.Path {
	return e.sel
}

// MaxItems is the per-column ceiling.
func (e *Engine) MaxItems() int {
	return e.maxItems
}

// Today is the current calendar day according to the engine clock.
func (e *Engine) Today() tree.Date {
	return tree.Today(e.now())
}

// Dispatch applies a command.
func (e *Engine) Dispatch(cmd Command) error {
	return cmd.apply(e)
}

// Column returns the entries shown in column level for the current selection.
// Columns whose parent is not selected are empty.
func (e *Engine) Column(level int) []tree.Row {
	prefix, ok := e.sel.Prefix(level)
	if !ok {
		return []tree.Row{}
	}
	return e.tree.Children(prefix)
}

// CanAdd reports whether column level currently has a parent to add under.
func (e *Engine) CanAdd(level int) bool {
	_, ok := e.sel.Prefix(level)
	return ok
}

// ColumnTitle is the header of column level: "All Tasks" for the first
// column, the selected parent's title for the others, "" when unselected.
func (e *Engine) ColumnTitle(level int) string {
	if level == 0 {
		return "All Tasks"
	}
	prefix, ok := e.sel.Prefix(level)
	if !ok {
		return ""
	}
	return e.tree.Title(prefix)
}

// ColumnText renders column level as a header followed by "- title" lines.
// ok is false when the column is empty.
func (e *Engine) ColumnText(level int) (string, bool) {
	rows := e.Column(level)
	if len(rows) == 0 {
		return "", false
	}
	header := e.ColumnTitle(level)
	if header == "" {
		header = "Tasks"
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, header)
	for _, r := range rows {
		lines = append(lines, "- "+r.Title)
	}
	return strings.Join(lines, "\n"), true
}

// Export returns the current tree as an independent copy, ready for encoding.
func (e *Engine) Export() []tree.Task {
	return tree.CloneTasks(e.tree.Tasks)
}

// persist saves the tree and then journals the events. A save failure leaves
// the in-memory change in place and is reported as ErrStorageUnavailable.
func (e *Engine) persist(events ...store.Event) error {
	var saveErr error
	if e.storage != nil {
		if err := e.storage.Save(e.tree.Tasks); err != nil {
			e.log.Error("failed to save tasks", "error", err)
			saveErr = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	if e.journal != nil {
		now := e.now().UTC()
		for _, ev := range events {
			ev.Timestamp = now
			if err := e.journal.Record(ev); err != nil {
				e.log.Warn("failed to record event", "type", ev.Type, "error", err)
			}
		}
	}
	return saveErr
}
