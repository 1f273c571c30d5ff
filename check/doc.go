// Package check implements the capability predicates that gate which tasks
// an employee may handle. A Check is a pure, deterministic boolean function
// of a (task, employee) pair; checks compose into AND/OR trees evaluated
// depth-first with short-circuit semantics.
//
// All configuration validation happens at construction time: evaluating a
// well-formed check never fails.
package check
