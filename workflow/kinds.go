package workflow

import (
	"fmt"
	"strings"
)

// The shipped workflow kinds. They share the step vocabulary; only the
// graph topology differs.
const (
	KindSpecification = "specification"
	KindResearch      = "research"
	KindDocumentation = "documentation"
	KindDefault       = "default"
)

// Default retry budgets. Every shipped branch function compares the run's
// backward-transition counter to a finite budget, so no graph can loop
// unbounded.
const (
	// DefaultSpecRetryBudget bounds generate retries in the
	// specification kind.
	DefaultSpecRetryBudget = 2
	// DefaultResearchPassBudget bounds additional research passes.
	DefaultResearchPassBudget = 1
)

// exhaustedMarker records retry exhaustion in the error sequence.
func exhaustedMarker(st *State) {
	st.AddError(fmt.Sprintf("retries exhausted after %d backward transitions", st.Retries))
}

// SpecificationDefinition is the engineering-manager kind: gather context,
// generate, retry on collaborator failure up to maxRetries, then validate
// that the specification carries its required sections, regenerating
// incomplete drafts within the same budget.
func SpecificationDefinition(s *Steps, maxRetries int) Definition {
	shouldRetry := func(st *State) string {
		if !st.Failed() {
			return "validate"
		}
		if st.Retries < maxRetries {
			return "retry"
		}
		exhaustedMarker(st)
		return LabelError
	}

	specComplete := func(st *State) string {
		if st.Failed() {
			return LabelError
		}
		if specSectionsPresent(st.LastResult()) {
			return "complete"
		}
		if st.Retries >= maxRetries {
			exhaustedMarker(st)
			return LabelError
		}
		return "incomplete"
	}

	return Definition{
		Kind:  KindSpecification,
		Entry: StepGatherContext,
		Steps: []StepDef{
			{Name: StepGatherContext, Run: s.GatherContext(), Next: StepGenerate},
			{Name: StepGenerate, Run: s.Generate(KindSpecification), Branch: shouldRetry, Targets: map[string]string{
				"retry":    StepGatherContext,
				"validate": StepValidateResult,
			}},
			{Name: StepValidateResult, Run: s.ValidateResult(), Branch: specComplete, Targets: map[string]string{
				"complete":   StepPersistMemory,
				"incomplete": StepGenerate,
			}},
			{Name: StepPersistMemory, Run: s.PersistMemory(KindSpecification), Next: StepFinalize},
			{Name: StepFinalize, Run: s.Finalize(), Terminal: true},
			{Name: StepHandleError, Run: s.HandleError(), Terminal: true},
		},
	}
}

// specSectionsPresent checks the structural floor for a specification.
func specSectionsPresent(result string) bool {
	lowered := strings.ToLower(result)
	for _, section := range []string{"requirements", "approach", "implementation"} {
		if !strings.Contains(lowered, section) {
			return false
		}
	}
	return true
}

// ResearchDefinition is the research-agent kind: gather context, analyze the
// research scope, search external sources, generate, and loop back for at
// most maxPasses additional passes when the result is thin or a collaborator
// hiccuped.
func ResearchDefinition(s *Steps, maxPasses int) Definition {
	needsMorePasses := func(st *State) string {
		if st.Failed() {
			if st.Retries < maxPasses {
				return "continue"
			}
			exhaustedMarker(st)
			return LabelError
		}
		if len(st.LastResult()) < shortResearchLen && st.Retries < maxPasses {
			return "continue"
		}
		return "validate"
	}

	return Definition{
		Kind:  KindResearch,
		Entry: StepGatherContext,
		Steps: []StepDef{
			{Name: StepGatherContext, Run: s.GatherContext(), Next: StepAnalyzeScope},
			{Name: StepAnalyzeScope, Run: s.AnalyzeScope(), Next: StepSearchSources},
			{Name: StepSearchSources, Run: s.SearchSources(), Next: StepGenerate},
			{Name: StepGenerate, Run: s.Generate(KindResearch), Branch: needsMorePasses, Targets: map[string]string{
				"continue": StepAnalyzeScope,
				"validate": StepValidateResult,
			}},
			{Name: StepValidateResult, Run: s.ValidateResult(), Next: StepPersistMemory},
			{Name: StepPersistMemory, Run: s.PersistMemory(KindResearch), Next: StepFinalize},
			{Name: StepFinalize, Run: s.Finalize(), Terminal: true},
			{Name: StepHandleError, Run: s.HandleError(), Terminal: true},
		},
	}
}

// DocumentationDefinition is the documentation-specialist kind: analyze the
// subject material, generate, and add a diagram section when the task
// contains code. No backward edges; the graph terminates in at most one
// pass through each step.
func DocumentationDefinition(s *Steps) Definition {
	needsDiagram := func(st *State) string {
		if st.Failed() {
			return LabelError
		}
		if st.HasCode {
			return "diagram"
		}
		return "validate"
	}

	return Definition{
		Kind:  KindDocumentation,
		Entry: StepGatherContext,
		Steps: []StepDef{
			{Name: StepGatherContext, Run: s.GatherContext(), Next: StepAnalyzeMaterial},
			{Name: StepAnalyzeMaterial, Run: s.AnalyzeMaterial(), Next: StepGenerate},
			{Name: StepGenerate, Run: s.Generate(KindDocumentation), Branch: needsDiagram, Targets: map[string]string{
				"diagram":  StepGenerateDiagram,
				"validate": StepValidateResult,
			}},
			{Name: StepGenerateDiagram, Run: s.GenerateDiagram(), Next: StepValidateResult},
			{Name: StepValidateResult, Run: s.ValidateResult(), Next: StepPersistMemory},
			{Name: StepPersistMemory, Run: s.PersistMemory(KindDocumentation), Next: StepFinalize},
			{Name: StepFinalize, Run: s.Finalize(), Terminal: true},
			{Name: StepHandleError, Run: s.HandleError(), Terminal: true},
		},
	}
}

// DefaultDefinition is the straight-line fallback kind with no branching at
// all: gather, generate, validate, persist, finalize.
func DefaultDefinition(s *Steps) Definition {
	fail := func(st *State) string {
		if st.Failed() {
			return LabelError
		}
		return "validate"
	}

	return Definition{
		Kind:  KindDefault,
		Entry: StepGatherContext,
		Steps: []StepDef{
			{Name: StepGatherContext, Run: s.GatherContext(), Next: StepGenerate},
			{Name: StepGenerate, Run: s.Generate(KindDefault), Branch: fail, Targets: map[string]string{
				"validate": StepValidateResult,
			}},
			{Name: StepValidateResult, Run: s.ValidateResult(), Next: StepPersistMemory},
			{Name: StepPersistMemory, Run: s.PersistMemory(KindDefault), Next: StepFinalize},
			{Name: StepFinalize, Run: s.Finalize(), Terminal: true},
			{Name: StepHandleError, Run: s.HandleError(), Terminal: true},
		},
	}
}

// DefaultGraphs compiles every shipped kind with its default budget.
func DefaultGraphs(s *Steps) ([]*Graph, error) {
	defs := []Definition{
		SpecificationDefinition(s, DefaultSpecRetryBudget),
		ResearchDefinition(s, DefaultResearchPassBudget),
		DocumentationDefinition(s),
		DefaultDefinition(s),
	}
	graphs := make([]*Graph, 0, len(defs))
	for _, def := range defs {
		g, err := Compile(def)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}
