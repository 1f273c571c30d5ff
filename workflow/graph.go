package workflow

import (
	"context"
	"fmt"

	"github.com/BaSui01/aicrew/types"
)

// LabelError is the reserved branch label. Returning it from any branch
// function routes the run to the graph's error step, regardless of the
// step's declared targets.
const LabelError = "error"

// StepFunc executes one workflow step against the run state. A returned
// error is recorded as an error entry; it never aborts the run by itself.
type StepFunc func(ctx context.Context, st *State) error

// BranchFunc inspects the run state after a conditional step and returns the
// label of the edge to follow.
type BranchFunc func(st *State) string

// StepDef declares one step of a workflow graph. Exactly one of the
// following must hold: Terminal is set, Next names an unconditional edge, or
// Branch/Targets declare a conditional edge.
type StepDef struct {
	Name string
	Run  StepFunc

	// Next is the unconditional successor.
	Next string

	// Branch selects among Targets; the reserved "error" label needs no
	// Targets entry.
	Branch  BranchFunc
	Targets map[string]string

	// Terminal marks the step as an end state of the run.
	Terminal bool
}

// Definition is the static, table-form description of a workflow graph. It
// is what the shipped kinds construct and what Compile validates.
type Definition struct {
	Kind  string
	Entry string

	// ErrorStep names the terminal step the reserved "error" label routes
	// to. Defaults to "handle_error".
	ErrorStep string

	Steps []StepDef
}

// Graph is a compiled, immutable workflow graph. Execution never mutates it.
type Graph struct {
	kind      string
	entry     string
	errorStep string
	steps     map[string]StepDef
	order     []string
}

// Compile validates a definition and produces an executable graph. All
// topology defects (unknown step references, missing entry, missing error
// step, unconditional cycles) are construction-time failures; execution can
// rely on a compiled graph being well formed.
func Compile(def Definition) (*Graph, error) {
	if def.Kind == "" {
		return nil, types.NewError(types.ErrInvalidGraph, "workflow kind must not be empty")
	}
	if len(def.Steps) == 0 {
		return nil, graphErr(def.Kind, "no steps defined")
	}

	steps := make(map[string]StepDef, len(def.Steps))
	order := make([]string, 0, len(def.Steps))
	for _, sd := range def.Steps {
		if sd.Name == "" {
			return nil, graphErr(def.Kind, "step with empty name")
		}
		if sd.Run == nil {
			return nil, graphErr(def.Kind, "step %q has no function", sd.Name)
		}
		if _, dup := steps[sd.Name]; dup {
			return nil, graphErr(def.Kind, "duplicate step %q", sd.Name)
		}
		steps[sd.Name] = sd
		order = append(order, sd.Name)
	}

	if def.Entry == "" {
		return nil, graphErr(def.Kind, "no entry step set")
	}
	if _, ok := steps[def.Entry]; !ok {
		return nil, graphErr(def.Kind, "entry step %q not defined", def.Entry)
	}

	errorStep := def.ErrorStep
	if errorStep == "" {
		errorStep = "handle_error"
	}
	es, ok := steps[errorStep]
	if !ok {
		return nil, graphErr(def.Kind, "error step %q not defined", errorStep)
	}
	if !es.Terminal {
		return nil, graphErr(def.Kind, "error step %q must be terminal", errorStep)
	}

	terminals := 0
	for _, sd := range steps {
		modes := 0
		if sd.Terminal {
			modes++
			terminals++
		}
		if sd.Next != "" {
			modes++
		}
		if sd.Branch != nil {
			modes++
		}
		if modes != 1 {
			return nil, graphErr(def.Kind, "step %q must be exactly one of terminal, unconditional, or conditional", sd.Name)
		}

		if sd.Next != "" {
			if _, ok := steps[sd.Next]; !ok {
				return nil, graphErr(def.Kind, "step %q references unknown step %q", sd.Name, sd.Next)
			}
		}
		if sd.Branch != nil {
			if len(sd.Targets) == 0 {
				return nil, graphErr(def.Kind, "conditional step %q declares no targets", sd.Name)
			}
			for label, target := range sd.Targets {
				if label == LabelError {
					return nil, graphErr(def.Kind, "step %q redeclares the reserved %q label", sd.Name, LabelError)
				}
				if _, ok := steps[target]; !ok {
					return nil, graphErr(def.Kind, "step %q target %q -> unknown step %q", sd.Name, label, target)
				}
			}
		}
	}
	if terminals == 0 {
		return nil, graphErr(def.Kind, "no terminal step defined")
	}

	if cycle := findUnconditionalCycle(steps); cycle != "" {
		return nil, graphErr(def.Kind, "unconditional cycle through step %q", cycle)
	}

	return &Graph{
		kind:      def.Kind,
		entry:     def.Entry,
		errorStep: errorStep,
		steps:     steps,
		order:     order,
	}, nil
}

// MustCompile is Compile for statically known definitions; it panics on a
// malformed graph.
func MustCompile(def Definition) *Graph {
	g, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return g
}

// Kind returns the workflow-kind identifier this graph was compiled for.
func (g *Graph) Kind() string { return g.kind }

// Entry returns the entry step name.
func (g *Graph) Entry() string { return g.entry }

// StepNames returns the step names in definition order.
func (g *Graph) StepNames() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// step looks up a compiled step definition.
func (g *Graph) step(name string) (StepDef, bool) {
	sd, ok := g.steps[name]
	return sd, ok
}

// findUnconditionalCycle walks Next chains only. A cycle reachable purely
// through unconditional edges can never escape, so it is a compile error.
// Returns a step on the cycle, or "".
func findUnconditionalCycle(steps map[string]StepDef) string {
	const (
		white = 0 // unvisited
		grey  = 1 // on the current chain
		black = 2 // proven cycle-free
	)
	color := make(map[string]int, len(steps))

	var visit func(name string) string
	visit = func(name string) string {
		switch color[name] {
		case grey:
			return name
		case black:
			return ""
		}
		color[name] = grey
		if next := steps[name].Next; next != "" {
			if hit := visit(next); hit != "" {
				return hit
			}
		}
		color[name] = black
		return ""
	}

	for name := range steps {
		if hit := visit(name); hit != "" {
			return hit
		}
	}
	return ""
}

func graphErr(kind, format string, args ...any) error {
	return types.NewError(types.ErrInvalidGraph,
		fmt.Sprintf("workflow %q: %s", kind, fmt.Sprintf(format, args...)))
}
