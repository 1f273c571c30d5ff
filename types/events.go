package types

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a domain event emitted by the employee aggregate.
type EventKind string

const (
	EventTaskProcessed        EventKind = "task_processed"
	EventTaskProcessingFailed EventKind = "task_processing_failed"
	EventEmployeeActivated    EventKind = "employee_activated"
	EventEmployeeDeactivated  EventKind = "employee_deactivated"
)

// DomainEvent is an immutable record of something that happened in the
// domain. Events are collected on the employee aggregate and drained by the
// dispatcher for persistence.
type DomainEvent struct {
	ID         string            `json:"id"`
	Kind       EventKind         `json:"kind"`
	EmployeeID string            `json:"employee_id"`
	TaskID     string            `json:"task_id,omitempty"`
	Detail     string            `json:"detail,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewDomainEvent stamps a fresh event with a uuid and the current time.
func NewDomainEvent(kind EventKind, employeeID, taskID, detail string) DomainEvent {
	return DomainEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		EmployeeID: employeeID,
		TaskID:     taskID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}
