package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		title   string
		status  TaskStatus
		wantErr bool
	}{
		{"valid", "T1", "Research caching strategies", StatusPending, false},
		{"empty id", "", "title", StatusPending, true},
		{"blank id", "   ", "title", StatusPending, true},
		{"empty title", "T1", "", StatusPending, true},
		{"blank title", "T1", "  \t", StatusPending, true},
		{"unknown status", "T1", "title", TaskStatus("Archived"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.id, tt.title, tt.status)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrInvalidTask, CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, task.ID)
			assert.Equal(t, tt.status, task.Status)
			assert.False(t, task.CreatedAt.IsZero())
		})
	}
}

func TestTask_IsAssignedTo(t *testing.T) {
	task := Task{ID: "T1", Title: "t", Assignee: "  ResearchAgent "}

	assert.True(t, task.IsAssignedTo("researchagent"))
	assert.True(t, task.IsAssignedTo(" RESEARCHAGENT "))
	assert.False(t, task.IsAssignedTo("DocSpecialist"))

	unassigned := Task{ID: "T2", Title: "t"}
	assert.False(t, unassigned.IsAssignedTo("ResearchAgent"))
	assert.False(t, unassigned.HasAssignee())

	blank := Task{ID: "T3", Title: "t", Assignee: "   "}
	assert.False(t, blank.HasAssignee())
}

func TestTask_Processable(t *testing.T) {
	base := Task{ID: "T1", Title: "t", Assignee: "ResearchAgent"}

	for status, want := range map[TaskStatus]bool{
		StatusPending:   true,
		StatusActive:    true,
		StatusComplete:  false,
		StatusCancelled: false,
	} {
		assert.Equal(t, want, base.WithStatus(status).Processable(), "status %s", status)
	}

	// Assignment is required regardless of status.
	assert.False(t, Task{ID: "T1", Title: "t", Status: StatusPending}.Processable())
}

func TestTask_FieldAndCopies(t *testing.T) {
	task := Task{ID: "T1", Title: "title", Description: "desc", Content: "body", Status: StatusPending}

	assert.Equal(t, "title", task.Field("title"))
	assert.Equal(t, "desc", task.Field("description"))
	assert.Equal(t, "body", task.Field("content"))
	assert.Equal(t, "", task.Field("nope"))

	updated := task.WithContent("replaced")
	assert.Equal(t, "body", task.Content, "original must be untouched")
	assert.Equal(t, "replaced", updated.Content)

	active := task.WithStatus(StatusActive)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, StatusActive, active.Status)
}

func TestResult_FinalAndSuccess(t *testing.T) {
	empty := Result{}
	assert.Equal(t, "", empty.Final())

	r := Result{Results: []string{"first", "second"}}
	assert.Equal(t, "second", r.Final())
}

func TestError_WrappingAndCode(t *testing.T) {
	cause := assert.AnError
	err := NewError(ErrGenerate, "model call failed").WithCause(cause).WithRetryable(true)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrGenerate, CodeOf(err))
	assert.Contains(t, err.Error(), "GENERATE_FAILED")

	assert.False(t, IsRetryable(cause))
	assert.Equal(t, ErrorCode(""), CodeOf(cause))
}
