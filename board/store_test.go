package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/aicrew/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:", nil)
	require.NoError(t, err)
	return store
}

func pendingTask(id string) types.Task {
	return types.Task{
		ID:       id,
		Title:    "Research vector databases",
		Assignee: "ResearchAgent",
		Status:   types.StatusPending,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to types.TaskStatus
		want     bool
	}{
		{types.StatusPending, types.StatusActive, true},
		{types.StatusActive, types.StatusComplete, true},
		{types.StatusActive, types.StatusPending, true},
		{types.StatusPending, types.StatusCancelled, true},
		{types.StatusPending, types.StatusComplete, false},
		{types.StatusComplete, types.StatusActive, false},
		{types.StatusComplete, types.StatusPending, false},
		{types.StatusCancelled, types.StatusActive, false},
		{types.StatusActive, types.StatusActive, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStore_SaveTaskAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTask(ctx, pendingTask("T1")))

	rec, err := s.Task(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "Research vector databases", rec.Title)
	assert.Equal(t, string(types.StatusPending), rec.Status)
	assert.False(t, rec.Processed)

	_, err = s.Task(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, types.ErrTracker, types.CodeOf(err))
}

func TestStore_SaveTaskRefreshKeepsStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTask(ctx, pendingTask("T1")))
	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusActive))

	// A redelivered payload still claims Pending; the stored status wins.
	redelivered := pendingTask("T1")
	redelivered.Title = "Research vector databases (edited)"
	require.NoError(t, s.SaveTask(ctx, redelivered))

	rec, err := s.Task(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, string(types.StatusActive), rec.Status)
	assert.Equal(t, "Research vector databases (edited)", rec.Title)
}

func TestStore_StatusMachine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTask(ctx, pendingTask("T1")))

	// Pending cannot jump straight to Complete.
	err := s.UpdateStatus(ctx, "T1", types.StatusComplete)
	require.Error(t, err)
	assert.Equal(t, types.ErrTracker, types.CodeOf(err))

	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusActive))
	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusActive), "same status is a no-op")

	// A failed run hands the task back.
	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusPending))
	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusActive))
	require.NoError(t, s.UpdateStatus(ctx, "T1", types.StatusComplete))

	// Complete is terminal.
	err = s.UpdateStatus(ctx, "T1", types.StatusActive)
	require.Error(t, err)

	err = s.UpdateStatus(ctx, "missing", types.StatusActive)
	require.Error(t, err)
}

func TestStore_ProcessedFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTask(ctx, pendingTask("T1")))

	done, err := s.IsProcessed(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkProcessed(ctx, "T1"))
	require.NoError(t, s.MarkProcessed(ctx, "T1"), "marking twice is fine")

	done, err = s.IsProcessed(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, done)

	// Unknown tasks are simply not processed.
	done, err = s.IsProcessed(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, done)

	require.Error(t, s.MarkProcessed(ctx, "missing"))
}

func TestStore_Comments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTask(ctx, pendingTask("T1")))

	require.NoError(t, s.PostComment(ctx, "T1", "first result"))
	require.NoError(t, s.PostComment(ctx, "T1", "second result"))
	require.Error(t, s.PostComment(ctx, "T1", ""))

	comments, err := s.Comments(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first result", comments[0].Body)
	assert.Equal(t, "second result", comments[1].Body)
}

func TestStore_EventLogIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	event := types.NewDomainEvent(types.EventTaskProcessed, "emp-1", "T1", "done")
	require.NoError(t, s.SaveEvent(ctx, event))
	require.NoError(t, s.SaveEvent(ctx, event), "replaying the same event id is a no-op")

	other := types.NewDomainEvent(types.EventTaskProcessingFailed, "emp-1", "T1", "failed")
	other.OccurredAt = event.OccurredAt.Add(time.Second)
	require.NoError(t, s.SaveEvent(ctx, other))

	events, err := s.Events(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(types.EventTaskProcessed), events[0].Kind)
	assert.Equal(t, string(types.EventTaskProcessingFailed), events[1].Kind)
}
