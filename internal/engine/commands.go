package engine

import (
	"errors"
	"fmt"

	"github.com/imkarma/subtask/internal/store"
	"github.com/imkarma/subtask/internal/tree"
)

// Command is a user intent the engine knows how to apply.
type Command interface {
	apply(e *Engine) error
}

// AddCommand appends a new entry to column Level under the current selection.
type AddCommand struct {
	Level int
	Title string
}

// DeleteCommand removes entry Index from column Level.
type DeleteCommand struct {
	Level int
	Index int
}

// RenameCommand retitles entry Index in column Level. A blank title deletes it.
type RenameCommand struct {
	Level int
	Index int
	Title string
}

// ToggleCommand flips completion of item Index in the leaf column.
type ToggleCommand struct {
	Index int
}

// SelectCommand selects, or deselects, entry Index in column Level.
type SelectCommand struct {
	Level int
	Index int
}

// ClearCommand drops the whole selection.
type ClearCommand struct{}

// ImportCommand replaces the entire tree.
type ImportCommand struct {
	Tasks []tree.Task
}

func (c AddCommand) apply(e *Engine) error {
	prefix, ok := e.sel.Prefix(c.Level)
	if !ok {
		e.log.Debug("add ignored, parent not selected", "level", c.Level, "selection", e.sel)
		return nil
	}
	b, err := e.tree.Add(prefix, c.Title, e.Today(), e.maxItems)
	switch {
	case errors.Is(err, tree.ErrEmptyTitle):
		return nil
	case errors.Is(err, tree.ErrCapacityExceeded):
		return fmt.Errorf("%w: limit of %d %ss per column", ErrCapacityExceeded, e.maxItems, tree.LevelName(c.Level))
	case err != nil:
		return err
	}
	e.log.Debug("added", "level", c.Level, "id", b.ID, "title", b.Title)
	return e.persist(store.Event{TaskID: b.ID, Level: c.Level, Type: store.EventCreated, Content: b.Title})
}

func (c DeleteCommand) apply(e *Engine) error {
	return e.delete(c.Level, c.Index)
}

func (e *Engine) delete(level, index int) error {
	prefix, ok := e.sel.Prefix(level)
	if !ok {
		return ErrInvalidPath
	}
	removed, err := e.tree.Delete(append(prefix, index))
	if err != nil {
		return err
	}
	e.sel.Deleted(level, index)
	e.log.Debug("deleted", "level", level, "id", removed.ID, "selection", e.sel)
	return e.persist(store.Event{TaskID: removed.ID, Level: level, Type: store.EventDeleted, Content: removed.Title})
}

func (c RenameCommand) apply(e *Engine) error {
	prefix, ok := e.sel.Prefix(c.Level)
	if !ok {
		return ErrInvalidPath
	}
	path := append(prefix, c.Index)
	before := e.tree.Title(path)
	err := e.tree.Rename(path, c.Title)
	if errors.Is(err, tree.ErrEmptyTitle) {
		return e.delete(c.Level, c.Index)
	}
	if err != nil {
		return err
	}
	after := e.tree.Title(path)
	b := e.tree.Children(prefix)[c.Index].Base
	return e.persist(store.Event{
		TaskID:  b.ID,
		Level:   c.Level,
		Type:    store.EventRenamed,
		Content: fmt.Sprintf("%s -> %s", before, after),
	})
}

func (c ToggleCommand) apply(e *Engine) error {
	prefix, ok := e.sel.Prefix(tree.Levels - 1)
	if !ok {
		return ErrInvalidPath
	}
	path := append(prefix, c.Index)
	status, err := e.tree.Toggle(path, e.Today())
	if err != nil {
		return err
	}
	it, _ := e.tree.Item(path[0], path[1], path[2])
	typ := store.EventReopened
	if status == tree.StatusComplete {
		typ = store.EventCompleted
	}
	return e.persist(store.Event{TaskID: it.ID, Level: tree.Levels - 1, Type: typ, Content: it.Title})
}

func (c SelectCommand) apply(e *Engine) error {
	prefix, ok := e.sel.Prefix(c.Level)
	if !ok {
		return ErrInvalidPath
	}
	n, _ := e.tree.Len(prefix)
	if c.Index < 0 || c.Index >= n {
		return ErrInvalidPath
	}
	e.sel.Select(c.Level, c.Index)
	return nil
}

func (ClearCommand) apply(e *Engine) error {
	e.sel.Clear()
	return nil
}

func (c ImportCommand) apply(e *Engine) error {
	if c.Tasks == nil {
		return ErrInvalidImportShape
	}
	e.tree = tree.New(tree.CloneTasks(c.Tasks))
	e.sel.Clear()
	e.log.Info("imported tasks", "count", len(c.Tasks))
	return e.persist(store.Event{Type: store.EventImported, Content: fmt.Sprintf("%d tasks", len(c.Tasks))})
}
