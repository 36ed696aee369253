package store

import "time"

// DefaultKey is the namespaced key the task tree is stored under.
const DefaultKey = "subtask-app-data"

// EventType names a journal entry.
type EventType string

const (
	EventCreated   EventType = "created"
	EventRenamed   EventType = "renamed"
	EventDeleted   EventType = "deleted"
	EventCompleted EventType = "completed"
	EventReopened  EventType = "reopened"
	EventImported  EventType = "imported"
)

// Event records something that happened to a task, subtask or item.
// TaskID is empty for whole-tree events such as imports.
type Event struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id,omitempty"`
	Level     int       `json:"level"`
	Type      EventType `json:"event_type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
