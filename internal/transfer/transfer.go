// Package transfer encodes and decodes the task tree in its document form: a
// top-level sequence of tasks, each carrying "tasks" (subtasks) which carry
// "sub-tasks" (items). JSON is canonical and is also what the store persists.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imkarma/subtask/internal/tree"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidImportShape is returned when a document is not a sequence of tasks.
	ErrInvalidImportShape = errors.New("invalid import: top level must be a list of tasks")
	// ErrMalformed wraps syntax and type errors in an otherwise sequence-shaped document.
	ErrMalformed = errors.New("malformed document")
)

// Marshal renders tasks as indented JSON.
func Marshal(tasks []tree.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []tree.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses a JSON document. Anything other than a top-level array is
// rejected with ErrInvalidImportShape.
func Unmarshal(data []byte) ([]tree.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrInvalidImportShape
	}

	var tasks []tree.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tasks == nil {
		tasks = []tree.Task{}
	}
	if err := check(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarshalYAML renders tasks as a YAML sequence with the same field names.
func MarshalYAML(tasks []tree.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []tree.Task{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML parses a YAML document whose root must be a sequence.
func UnmarshalYAML(data []byte) ([]tree.Task, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, ErrInvalidImportShape
	}

	var tasks []tree.Task
	if err := doc.Content[0].Decode(&tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if tasks == nil {
		tasks = []tree.Task{}
	}
	if err := check(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// check rejects entries without a title or with a repeated id. Entries
// without an id get a fresh one.
func check(tasks []tree.Task) error {
	seen := make(map[string]bool)
	visit := func(b *tree.Base, where string) error {
		if strings.TrimSpace(b.Title) == "" {
			return fmt.Errorf("%w: %s has no title", ErrMalformed, where)
		}
		if b.ID == "" {
			b.ID = tree.NewID()
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: %s repeats id %q", ErrMalformed, where, b.ID)
		}
		seen[b.ID] = true
		return nil
	}

	for i := range tasks {
		task := &tasks[i]
		if err := visit(&task.Base, fmt.Sprintf("task %d", i+1)); err != nil {
			return err
		}
		for j := range task.Subtasks {
			sub := &task.Subtasks[j]
			if err := visit(&sub.Base, fmt.Sprintf("subtask %d.%d", i+1, j+1)); err != nil {
				return err
			}
			for k := range sub.Items {
				if err := visit(&sub.Items[k].Base, fmt.Sprintf("item %d.%d.%d", i+1, j+1, k+1)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// IsYAML reports whether name carries a YAML extension.
func IsYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Decode picks the codec from the file name.
func Decode(name string, data []byte) ([]tree.Task, error) {
	if IsYAML(name) {
		return UnmarshalYAML(data)
	}
	return Unmarshal(data)
}

// Encode picks the codec from the file name.
func Encode(name string, tasks []tree.Task) ([]byte, error) {
	if IsYAML(name) {
		return MarshalYAML(tasks)
	}
	return Marshal(tasks)
}

// FileName is the default export name for the given day.
func FileName(day tree.Date) string {
	return fmt.Sprintf("subtasks-%s.json", day)
}
