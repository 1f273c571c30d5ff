package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/aicrew/types"
)

// Step names shared across the shipped kinds. Graph topologies are built
// from this vocabulary plus a few kind-specific steps.
const (
	StepGatherContext   = "gather_context"
	StepGenerate        = "generate"
	StepValidateResult  = "validate_result"
	StepPersistMemory   = "persist_memory"
	StepFinalize        = "finalize"
	StepHandleError     = "handle_error"
	StepAnalyzeScope    = "analyze_scope"
	StepSearchSources   = "search_sources"
	StepAnalyzeMaterial = "analyze_material"
	StepGenerateDiagram = "generate_diagram"
)

const (
	// memoryRecallLimit caps how many memories gather_context pulls in.
	memoryRecallLimit = 5
	// minValidResultLen is the validation floor for a generated result.
	minValidResultLen = 50
	// shortResearchLen is the length under which a research result asks
	// for another pass.
	shortResearchLen = 500
	// searchSourceLimit caps external search hits per pass.
	searchSourceLimit = 5
)

var codeBlockRe = regexp.MustCompile("(?s)```.*?```")

// Steps builds the step functions of the shared vocabulary around the
// collaborator set. One Steps value serves all kinds and all concurrent
// runs; it holds no per-run state.
type Steps struct {
	gen      Generator
	mem      MemoryStore
	searcher Searcher
	logger   *zap.Logger
}

// NewSteps wires the step vocabulary to its collaborators. gen is required;
// mem and searcher may be nil, in which case the corresponding steps degrade
// to no-ops.
func NewSteps(gen Generator, mem MemoryStore, searcher Searcher, logger *zap.Logger) *Steps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Steps{
		gen:      gen,
		mem:      mem,
		searcher: searcher,
		logger:   logger.With(zap.String("component", "workflow_steps")),
	}
}

// GatherContext pulls recent memories for the actor. Retrieval is advisory:
// a failed or missing memory store logs a warning and the run carries on
// without context.
func (s *Steps) GatherContext() StepFunc {
	return func(ctx context.Context, st *State) error {
		if s.mem == nil {
			return nil
		}
		query := strings.TrimSpace(st.Task.Title + " " + st.Task.Description)
		memories, err := s.mem.Search(ctx, st.Actor.Name(), query, memoryRecallLimit)
		if err != nil {
			s.logger.Warn("memory recall failed, continuing without context",
				zap.String("employee", st.Actor.Name()), zap.Error(err))
			return nil
		}
		st.Memories = memories
		return nil
	}
}

// Generate calls the language model with the composite prompt for kind. A
// collaborator failure (including timeout) becomes an error entry via the
// returned error; the branch function downstream decides retry vs. fail.
func (s *Steps) Generate(kind string) StepFunc {
	return func(ctx context.Context, st *State) error {
		prompt := compositePrompt(kind, st)
		text, err := s.gen.Generate(ctx, prompt)
		if err != nil {
			return types.NewError(types.ErrGenerate, "language model call failed").WithCause(err).WithRetryable(true)
		}
		st.AddResult(text)
		return nil
	}
}

// ValidateResult applies the minimum-quality gate to the latest result.
func (s *Steps) ValidateResult() StepFunc {
	return func(_ context.Context, st *State) error {
		if len(st.Results) == 0 {
			return fmt.Errorf("no results to validate")
		}
		if len(strings.TrimSpace(st.LastResult())) < minValidResultLen {
			return fmt.Errorf("result too short, may be incomplete")
		}
		return nil
	}
}

// PersistMemory stores a digest of the interaction for future recall. A
// store failure is a recorded error: the run still finishes, but not as a
// success.
func (s *Steps) PersistMemory(kind string) StepFunc {
	return func(ctx context.Context, st *State) error {
		if s.mem == nil || len(st.Results) == 0 {
			return nil
		}
		digest := st.LastResult()
		if len(digest) > 200 {
			digest = digest[:200] + "..."
		}
		text := fmt.Sprintf("Processed task %q with %s workflow. Result: %s", st.Task.Title, kind, digest)
		meta := map[string]string{
			"task_id":   st.Task.ID,
			"kind":      kind,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.mem.Save(ctx, st.Actor.Name(), text, meta); err != nil {
			return types.NewError(types.ErrMemory, "memory store failed").WithCause(err)
		}
		return nil
	}
}

// Finalize is the success terminal. It records the final response under the
// generic context for callers that want it by name.
func (s *Steps) Finalize() StepFunc {
	return func(_ context.Context, st *State) error {
		st.Set("final_response", st.LastResult())
		return nil
	}
}

// HandleError is the terminal error-handling step: it reports the
// accumulated error sequence and ends the run.
func (s *Steps) HandleError() StepFunc {
	return func(_ context.Context, st *State) error {
		s.logger.Error("workflow run failed",
			zap.String("task_id", st.Task.ID),
			zap.String("employee", st.Actor.Name()),
			zap.Strings("errors", st.Errors),
		)
		return nil
	}
}

// AnalyzeScope extracts research questions from the task content. Research
// kind only.
func (s *Steps) AnalyzeScope() StepFunc {
	return func(_ context.Context, st *State) error {
		var scope []string
		for _, part := range strings.Split(st.Task.Content, "?") {
			if q := strings.TrimSpace(part); q != "" {
				scope = append(scope, q)
			}
		}
		st.Scope = scope
		return nil
	}
}

// SearchSources queries the external search collaborator for supporting
// material. Research kind only. A failure surfaces as an error entry so the
// branch function can retry the pass or fail the run.
func (s *Steps) SearchSources() StepFunc {
	return func(ctx context.Context, st *State) error {
		if s.searcher == nil {
			return nil
		}
		hits, err := s.searcher.Search(ctx, st.Task.Title, searchSourceLimit)
		if err != nil {
			return types.NewError(types.ErrTimeout, "external search failed").WithCause(err).WithRetryable(true)
		}
		st.Sources = append(st.Sources, hits...)
		return nil
	}
}

// AnalyzeMaterial extracts fenced code blocks from the task content.
// Documentation kind only.
func (s *Steps) AnalyzeMaterial() StepFunc {
	return func(_ context.Context, st *State) error {
		st.CodeBlocks = codeBlockRe.FindAllString(st.Task.Content, -1)
		st.HasCode = len(st.CodeBlocks) > 0
		return nil
	}
}

// GenerateDiagram appends an architecture-diagram section to the latest
// result. Documentation kind only.
func (s *Steps) GenerateDiagram() StepFunc {
	return func(_ context.Context, st *State) error {
		if len(st.Results) == 0 {
			return nil
		}
		note := "\n\n## Architecture Diagram\n[diagram generated from the documented code structure]"
		st.Results[len(st.Results)-1] += note
		return nil
	}
}
