package workflow

import (
	"context"

	"github.com/BaSui01/aicrew/types"
)

// Actor is the view of an employee a workflow run needs: identity plus the
// persona text handed to the language model.
type Actor interface {
	ID() string
	Name() string
	Persona() string
}

// Generator is the language-model collaborator. Generate may be slow and may
// fail or time out; steps record such failures as error entries and let the
// branch functions decide between retry and terminal failure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// MemoryStore is the persistent-memory collaborator. Search results are
// advisory context; a failed Search never fails a run.
type MemoryStore interface {
	Save(ctx context.Context, agentName, text string, metadata map[string]string) error
	Search(ctx context.Context, agentName, query string, limit int) ([]string, error)
}

// Searcher is the optional external-search collaborator used by the research
// kind. A nil Searcher skips the search step's lookup.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// State is the mutable per-run state threaded through the steps of one
// workflow execution. It is owned exclusively by its run and destroyed when
// the run terminates.
type State struct {
	Task  types.Task
	Actor Actor

	// Results and Errors are the ordered sequences accumulated by steps.
	Results []string
	Errors  []string

	// Retries counts backward transitions taken via conditional edges.
	Retries int

	// Typed context shared across kinds.
	Memories []string

	// Typed context for the research kind.
	Scope   []string
	Sources []string

	// Typed context for the documentation kind.
	CodeBlocks []string
	HasCode    bool

	// values is the generic fallback for artifacts that have no typed slot.
	values map[string]any
}

// NewState creates the initial run state for a task/actor pair.
func NewState(task types.Task, actor Actor) *State {
	return &State{Task: task, Actor: actor}
}

// AddResult appends to the result sequence.
func (s *State) AddResult(text string) {
	s.Results = append(s.Results, text)
}

// AddError appends to the error sequence.
func (s *State) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Failed reports whether any error entry has been recorded.
func (s *State) Failed() bool { return len(s.Errors) > 0 }

// LastResult returns the most recent result string, or "".
func (s *State) LastResult() string {
	if len(s.Results) == 0 {
		return ""
	}
	return s.Results[len(s.Results)-1]
}

// Set stores a generic context value.
func (s *State) Set(key string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

// Value retrieves a generic context value.
func (s *State) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}
