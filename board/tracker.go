package board

import (
	"context"

	"github.com/BaSui01/aicrew/types"
)

// Tracker is the task-board collaborator the dispatcher drives. All methods
// are individually idempotent so redelivered tasks stay safe.
type Tracker interface {
	// SaveTask records the task as seen, creating or refreshing its row.
	SaveTask(ctx context.Context, task types.Task) error
	// UpdateStatus moves the task to the given status, enforcing the
	// transition rules.
	UpdateStatus(ctx context.Context, taskID string, status types.TaskStatus) error
	// PostComment attaches a result or failure comment to the task.
	PostComment(ctx context.Context, taskID, body string) error
	// MarkProcessed flags the task so redeliveries become no-ops.
	MarkProcessed(ctx context.Context, taskID string) error
	// IsProcessed reports whether the task already ran to completion.
	IsProcessed(ctx context.Context, taskID string) (bool, error)
	// SaveEvent appends a domain event to the event log.
	SaveEvent(ctx context.Context, event types.DomainEvent) error
}

// allowedTransitions encodes the board's status machine: tasks are picked
// up (Pending to Active), finished (Active to Complete), or handed back
// after a failed run (Active to Pending).
var allowedTransitions = map[types.TaskStatus][]types.TaskStatus{
	types.StatusPending: {types.StatusActive, types.StatusCancelled},
	types.StatusActive:  {types.StatusComplete, types.StatusPending, types.StatusCancelled},
}

// CanTransition reports whether moving from one status to another is
// allowed. Same-status writes are allowed as idempotent no-ops.
func CanTransition(from, to types.TaskStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
