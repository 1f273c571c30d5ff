package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

// Engine executes compiled workflow graphs. Graphs are registered once at
// construction and treated as read-only; concurrent Execute calls for
// different tasks share nothing but the graph table.
type Engine struct {
	graphs map[string]*Graph
	logger *zap.Logger
}

// NewEngine builds an engine over a set of compiled graphs, keyed by kind.
func NewEngine(logger *zap.Logger, graphs ...*Graph) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(map[string]*Graph, len(graphs))
	for _, g := range graphs {
		if _, dup := table[g.kind]; dup {
			return nil, types.NewError(types.ErrInvalidGraph, "duplicate workflow kind "+g.kind)
		}
		table[g.kind] = g
	}
	return &Engine{
		graphs: table,
		logger: logger.With(zap.String("component", "workflow_engine")),
	}, nil
}

// Kinds returns the registered workflow kinds.
func (e *Engine) Kinds() []string {
	kinds := make([]string, 0, len(e.graphs))
	for k := range e.graphs {
		kinds = append(kinds, k)
	}
	return kinds
}

// Execute runs the graph registered for kind against the task/actor pair.
//
// Business-logic failures (collaborator errors, retry exhaustion) end up as
// error entries in a non-success Result, never as a returned error. The
// returned error is reserved for contract violations: an unknown kind, or a
// branch function returning an undeclared label.
func (e *Engine) Execute(ctx context.Context, kind string, task types.Task, actor Actor) (types.Result, error) {
	graph, ok := e.graphs[kind]
	if !ok {
		return types.Result{}, types.NewError(types.ErrUnknownKind, "no workflow registered for kind "+kind)
	}

	log := e.logger.With(
		zap.String("kind", kind),
		zap.String("task_id", task.ID),
		zap.String("employee", actor.Name()),
	)
	log.Info("workflow run starting")

	start := time.Now()
	st := NewState(task, actor)
	seen := make(map[string]bool, len(graph.steps))

	current := graph.entry
	for {
		// Cooperative cancellation at each step boundary. Mid-step
		// cancellation is the collaborator's own business.
		if err := ctx.Err(); err != nil {
			st.AddError("run cancelled: " + err.Error())
			log.Warn("workflow run cancelled", zap.String("step", current))
			break
		}

		sd, ok := graph.step(current)
		if !ok {
			// Unreachable on a compiled graph; kept as a guard.
			return types.Result{}, types.NewError(types.ErrInvalidGraph, "step vanished: "+current)
		}

		if err := sd.Run(ctx, st); err != nil {
			st.AddError(fmt.Sprintf("%s: %v", current, err))
			log.Warn("step recorded error", zap.String("step", current), zap.Error(err))
		}
		seen[current] = true

		if sd.Terminal {
			break
		}
		if sd.Next != "" {
			current = sd.Next
			continue
		}

		label := sd.Branch(st)
		next, err := resolveLabel(graph, sd, label)
		if err != nil {
			return types.Result{}, err
		}
		// A conditional edge back to an already-executed step is a
		// retry; the branch functions budget against this counter.
		if seen[next] {
			st.Retries++
			log.Debug("backward transition",
				zap.String("from", current),
				zap.String("to", next),
				zap.Int("retries", st.Retries),
			)
		}
		current = next
	}

	result := types.Result{
		TaskID:     task.ID,
		EmployeeID: actor.ID(),
		Kind:       kind,
		Success:    !st.Failed(),
		Results:    st.Results,
		Errors:     st.Errors,
		Elapsed:    time.Since(start),
	}

	log.Info("workflow run finished",
		zap.Bool("success", result.Success),
		zap.Int("results", len(result.Results)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func resolveLabel(graph *Graph, sd StepDef, label string) (string, error) {
	if label == LabelError {
		return graph.errorStep, nil
	}
	next, ok := sd.Targets[label]
	if !ok {
		return "", types.NewError(types.ErrInvalidGraph,
			fmt.Sprintf("workflow %q: step %q branch returned undeclared label %q", graph.kind, sd.Name, label))
	}
	return next, nil
}
