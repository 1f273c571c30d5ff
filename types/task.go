package types

import (
	"strings"
	"time"
)

// TaskStatus enumerates the board states a task can be in.
type TaskStatus string

const (
	StatusPending   TaskStatus = "Pending"
	StatusActive    TaskStatus = "Active"
	StatusComplete  TaskStatus = "Complete"
	StatusCancelled TaskStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

// Task is an externally sourced unit of work. It is a value: construct it
// once via NewTask and treat it as immutable (WithContent and WithStatus
// return copies).
//
// Assignee and Status are independent fields; an assignee does not imply any
// particular status.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Content     string            `json:"content,omitempty"`
	Assignee    string            `json:"assignee,omitempty"` // drives routing; empty means unassigned
	Status      TaskStatus        `json:"status"`
	CreatedBy   string            `json:"created_by,omitempty"`
	SourceURL   string            `json:"source_url,omitempty"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewTask builds a Task and enforces the construction invariants: non-empty
// identifier and title, known status.
func NewTask(id, title string, status TaskStatus) (Task, error) {
	if strings.TrimSpace(id) == "" {
		return Task{}, NewError(ErrInvalidTask, "task id must not be empty")
	}
	if strings.TrimSpace(title) == "" {
		return Task{}, NewError(ErrInvalidTask, "task title must not be empty")
	}
	if !status.Valid() {
		return Task{}, NewError(ErrInvalidTask, "unknown task status: "+string(status))
	}
	return Task{ID: id, Title: title, Status: status, CreatedAt: time.Now().UTC()}, nil
}

// HasAssignee reports whether an agent name is set on the task.
func (t Task) HasAssignee() bool {
	return strings.TrimSpace(t.Assignee) != ""
}

// IsAssignedTo compares the assignee against name, case-insensitively and
// ignoring surrounding whitespace.
func (t Task) IsAssignedTo(name string) bool {
	if !t.HasAssignee() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(t.Assignee), strings.TrimSpace(name))
}

// Processable reports whether the task is in a state a workflow may pick up.
func (t Task) Processable() bool {
	return (t.Status == StatusPending || t.Status == StatusActive) && t.HasAssignee()
}

// Field returns a named text field for predicate evaluation. Unknown names
// yield the empty string.
func (t Task) Field(name string) string {
	switch name {
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "content":
		return t.Content
	default:
		return ""
	}
}

// WithContent returns a copy of the task with Content replaced.
func (t Task) WithContent(content string) Task {
	t.Content = content
	return t
}

// WithStatus returns a copy of the task with Status replaced.
func (t Task) WithStatus(status TaskStatus) Task {
	t.Status = status
	return t
}
