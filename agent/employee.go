package agent

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/check"
	"github.com/BaSui01/aicrew/types"
	"github.com/BaSui01/aicrew/workflow"
)

// Reaction binds one capability check to a workflow kind with a priority.
// Reactions are owned by exactly one employee.
type Reaction struct {
	Check    check.Check
	Kind     string
	Priority int
}

// Employee is the aggregate root for one AI employee: identity, persona,
// ordered reactions, and compiled workflow bindings.
type Employee struct {
	id      string
	name    string
	persona string

	// reactions stays sorted by priority descending, insertion order on
	// ties. Populated during construction, read-only afterwards.
	reactions []Reaction
	workflows map[string]*workflow.Graph

	mu        sync.Mutex
	active    bool
	processed int
	succeeded int
	events    []types.DomainEvent

	logger *zap.Logger
}

// NewEmployee constructs an active employee. ID and name must be non-empty.
func NewEmployee(id, name, persona string, logger *zap.Logger) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, types.NewError(types.ErrInvalidTask, "employee id must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, types.NewError(types.ErrInvalidTask, "employee name must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Employee{
		id:        id,
		name:      name,
		persona:   persona,
		workflows: make(map[string]*workflow.Graph),
		active:    true,
		logger:    logger.With(zap.String("employee", name)),
	}, nil
}

// ID returns the employee identifier.
func (e *Employee) ID() string { return e.id }

// Name returns the routing name, unique within a registry.
func (e *Employee) Name() string { return e.name }

// Persona returns the opaque persona text handed to the language model.
func (e *Employee) Persona() string { return e.persona }

// Active reports whether the employee accepts tasks.
func (e *Employee) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Activate re-enables the employee. Activating an active employee is a
// caller bug.
func (e *Employee) Activate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return types.NewError(types.ErrInvalidTask, "employee "+e.name+" is already active")
	}
	e.active = true
	e.events = append(e.events, types.NewDomainEvent(types.EventEmployeeActivated, e.id, "", ""))
	return nil
}

// Deactivate stops the employee from accepting new tasks. There is no
// deletion: deactivation keeps historical references valid.
func (e *Employee) Deactivate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active {
		return types.NewError(types.ErrInvalidTask, "employee "+e.name+" is already inactive")
	}
	e.active = false
	e.events = append(e.events, types.NewDomainEvent(types.EventEmployeeDeactivated, e.id, "", ""))
	return nil
}

// AddReaction appends a reaction and re-establishes the ordering invariant:
// priority descending, stable on ties.
func (e *Employee) AddReaction(c check.Check, kind string, priority int) error {
	if c == nil {
		return types.NewError(types.ErrInvalidCheck, "reaction requires a check")
	}
	if kind == "" {
		return types.NewError(types.ErrInvalidCheck, "reaction requires a workflow kind")
	}
	e.reactions = append(e.reactions, Reaction{Check: c, Kind: kind, Priority: priority})
	sort.SliceStable(e.reactions, func(i, j int) bool {
		return e.reactions[i].Priority > e.reactions[j].Priority
	})
	e.logger.Debug("reaction added", zap.String("kind", kind), zap.Int("priority", priority))
	return nil
}

// BindWorkflow registers a compiled graph under its kind.
func (e *Employee) BindWorkflow(g *workflow.Graph) {
	e.workflows[g.Kind()] = g
	e.logger.Debug("workflow bound", zap.String("kind", g.Kind()))
}

// Reactions returns the reactions in evaluation order.
func (e *Employee) Reactions() []Reaction {
	out := make([]Reaction, len(e.reactions))
	copy(out, e.reactions)
	return out
}

// Kinds returns the bound workflow kinds.
func (e *Employee) Kinds() []string {
	kinds := make([]string, 0, len(e.workflows))
	for k := range e.workflows {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// MatchingReaction returns the first reaction, in priority order, whose
// check matches the task — the single source of truth for "can this
// employee's configuration handle this task, and with which workflow".
func (e *Employee) MatchingReaction(task types.Task) (Reaction, bool) {
	for _, r := range e.reactions {
		if r.Check.Matches(task, e) {
			return r, true
		}
	}
	return Reaction{}, false
}

// RoutedKind resolves the workflow kind for a task: the first matching
// reaction whose kind actually has a graph bound. A matching reaction with
// no bound graph is a configuration gap worth a warning, not a match.
func (e *Employee) RoutedKind(task types.Task) (string, bool) {
	for _, r := range e.reactions {
		if !r.Check.Matches(task, e) {
			continue
		}
		if _, bound := e.workflows[r.Kind]; !bound {
			e.logger.Warn("matching reaction has no bound workflow",
				zap.String("kind", r.Kind), zap.String("task_id", task.ID))
			continue
		}
		return r.Kind, true
	}
	return "", false
}

// CanHandle reports whether this employee can take the task: active,
// assignment matches, and some reaction fires.
func (e *Employee) CanHandle(task types.Task) bool {
	if !e.Active() {
		return false
	}
	if !task.IsAssignedTo(e.name) {
		return false
	}
	_, ok := e.MatchingReaction(task)
	return ok
}

// RecordOutcome updates the performance counters and queues the matching
// domain event for the dispatcher to drain.
func (e *Employee) RecordOutcome(result types.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed++
	if result.Success {
		e.succeeded++
		e.events = append(e.events, types.NewDomainEvent(
			types.EventTaskProcessed, e.id, result.TaskID,
			"processed with "+result.Kind+" workflow"))
		return
	}
	detail := "workflow failed"
	if len(result.Errors) > 0 {
		detail = result.Errors[len(result.Errors)-1]
	}
	e.events = append(e.events, types.NewDomainEvent(
		types.EventTaskProcessingFailed, e.id, result.TaskID, detail))
}

// SuccessRate is succeeded/processed, or 0 before any task ran.
func (e *Employee) SuccessRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.processed == 0 {
		return 0
	}
	return float64(e.succeeded) / float64(e.processed)
}

// DrainEvents returns and clears the pending domain events.
func (e *Employee) DrainEvents() []types.DomainEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.events
	e.events = nil
	return events
}
