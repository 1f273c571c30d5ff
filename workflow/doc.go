// Package workflow contains the workflow-execution core: compiled step
// graphs with conditional edges, the engine that walks them, and the shipped
// workflow kinds (specification, research, documentation, default).
//
// A graph is compiled once per kind at startup; Compile validates the
// topology (unknown step references, missing entry, unconditional cycles)
// so that execution can never hit a malformed graph. Execution mutates only
// the per-run State, which is exclusively owned by one run.
package workflow
