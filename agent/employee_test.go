package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/check"
	"github.com/BaSui01/aicrew/types"
	"github.com/BaSui01/aicrew/workflow"
)

// orderCheck records the order reactions are evaluated in.
type orderCheck struct {
	tag   string
	match bool
	seen  *[]string
}

func (o orderCheck) Matches(types.Task, check.Identity) bool {
	*o.seen = append(*o.seen, o.tag)
	return o.match
}

func trueCheck() check.Check { return orderCheck{match: true, seen: new([]string)} }

func minimalGraph(t *testing.T, kind string) *workflow.Graph {
	t.Helper()
	noop := func(context.Context, *workflow.State) error { return nil }
	return workflow.MustCompile(workflow.Definition{
		Kind:  kind,
		Entry: "end",
		Steps: []workflow.StepDef{
			{Name: "end", Run: noop, Terminal: true},
			{Name: "handle_error", Run: noop, Terminal: true},
		},
	})
}

func newEmployee(t *testing.T, id, name string) *Employee {
	t.Helper()
	e, err := NewEmployee(id, name, "persona", zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestNewEmployee_Validation(t *testing.T) {
	_, err := NewEmployee("", "Name", "p", nil)
	require.Error(t, err)
	_, err = NewEmployee("id", "  ", "p", nil)
	require.Error(t, err)

	e, err := NewEmployee("emp-1", "ResearchAgent", "p", nil)
	require.NoError(t, err)
	assert.True(t, e.Active())
}

func TestEmployee_ReactionOrdering(t *testing.T) {
	// Priorities inserted as [5,10,10,1] must evaluate as
	// [10 (first inserted), 10 (second inserted), 5, 1].
	e := newEmployee(t, "emp-1", "Agent")
	var seen []string
	add := func(tag string, priority int) {
		require.NoError(t, e.AddReaction(orderCheck{tag: tag, match: false, seen: &seen}, "kind-"+tag, priority))
	}
	add("p5", 5)
	add("p10-a", 10)
	add("p10-b", 10)
	add("p1", 1)

	task := types.Task{ID: "T1", Title: "t", Status: types.StatusPending}
	_, ok := e.MatchingReaction(task)
	assert.False(t, ok)
	assert.Equal(t, []string{"p10-a", "p10-b", "p5", "p1"}, seen)
}

func TestEmployee_MatchingReactionStopsAtFirstHit(t *testing.T) {
	e := newEmployee(t, "emp-1", "Agent")
	var seen []string
	require.NoError(t, e.AddReaction(orderCheck{tag: "miss", match: false, seen: &seen}, "a", 10))
	require.NoError(t, e.AddReaction(orderCheck{tag: "hit", match: true, seen: &seen}, "b", 5))
	require.NoError(t, e.AddReaction(orderCheck{tag: "late", match: true, seen: &seen}, "c", 1))

	r, ok := e.MatchingReaction(types.Task{ID: "T1", Title: "t"})
	require.True(t, ok)
	assert.Equal(t, "b", r.Kind)
	assert.Equal(t, []string{"miss", "hit"}, seen)
}

func TestEmployee_AddReactionValidation(t *testing.T) {
	e := newEmployee(t, "emp-1", "Agent")
	require.Error(t, e.AddReaction(nil, "kind", 0))
	require.Error(t, e.AddReaction(trueCheck(), "", 0))
}

func TestEmployee_RoutedKindSkipsUnboundWorkflows(t *testing.T) {
	e := newEmployee(t, "emp-1", "Agent")
	require.NoError(t, e.AddReaction(trueCheck(), "unbound", 10))
	require.NoError(t, e.AddReaction(trueCheck(), "bound", 5))
	e.BindWorkflow(minimalGraph(t, "bound"))

	kind, ok := e.RoutedKind(types.Task{ID: "T1", Title: "t"})
	require.True(t, ok)
	assert.Equal(t, "bound", kind)

	// With nothing bound there is no route even though reactions match.
	e2 := newEmployee(t, "emp-2", "Other")
	require.NoError(t, e2.AddReaction(trueCheck(), "unbound", 10))
	_, ok = e2.RoutedKind(types.Task{ID: "T1", Title: "t"})
	assert.False(t, ok)
}

func TestEmployee_Lifecycle(t *testing.T) {
	e := newEmployee(t, "emp-1", "Agent")

	require.Error(t, e.Activate(), "already active")
	require.NoError(t, e.Deactivate())
	assert.False(t, e.Active())
	require.Error(t, e.Deactivate(), "already inactive")
	require.NoError(t, e.Activate())
	assert.True(t, e.Active())

	events := e.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, types.EventEmployeeDeactivated, events[0].Kind)
	assert.Equal(t, types.EventEmployeeActivated, events[1].Kind)
	assert.Empty(t, e.DrainEvents(), "drain clears the queue")
}

func TestEmployee_CanHandle(t *testing.T) {
	e := newEmployee(t, "emp-1", "ResearchAgent")
	require.NoError(t, e.AddReaction(check.MustKeyword([]string{"research"}), "research", 10))

	task := types.Task{ID: "T1", Title: "Research topic", Assignee: "ResearchAgent", Status: types.StatusPending}
	assert.True(t, e.CanHandle(task))

	other := task
	other.Assignee = "SomeoneElse"
	assert.False(t, e.CanHandle(other))

	require.NoError(t, e.Deactivate())
	assert.False(t, e.CanHandle(task), "inactive employees handle nothing")
}

func TestEmployee_OutcomeTracking(t *testing.T) {
	e := newEmployee(t, "emp-1", "Agent")
	assert.Equal(t, 0.0, e.SuccessRate())

	e.RecordOutcome(types.Result{TaskID: "T1", Kind: "research", Success: true})
	e.RecordOutcome(types.Result{TaskID: "T2", Kind: "research", Success: false, Errors: []string{"model down"}})

	assert.InDelta(t, 0.5, e.SuccessRate(), 1e-9)

	events := e.DrainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, types.EventTaskProcessed, events[0].Kind)
	assert.Equal(t, "T1", events[0].TaskID)
	assert.Equal(t, types.EventTaskProcessingFailed, events[1].Kind)
	assert.Equal(t, "model down", events[1].Detail)
}
